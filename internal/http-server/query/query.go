package query

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

func Int(r *http.Request, key string) (val int, present bool, err error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%s must be integer", key)
	}
	return n, true, nil
}

func IntAny(r *http.Request, keys ...string) (val int, present bool, err error) {
	for _, k := range keys {
		v, ok, e := Int(r, k)
		if e != nil {
			return 0, false, e
		}
		if ok {
			return v, true, nil
		}
	}
	return 0, false, nil
}

// StringAny returns the first non-blank value among keys.
func StringAny(r *http.Request, keys ...string) string {
	q := r.URL.Query()
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

func DecimalAny(r *http.Request, keys ...string) (*decimal.Decimal, error) {
	for _, k := range keys {
		raw := strings.TrimSpace(r.URL.Query().Get(k))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", k)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("%s must be >= 0", k)
		}
		return &d, nil
	}
	return nil, nil
}

// Bounded reads an optional integer in [1, max]. def is returned when
// none of keys is present.
func Bounded(r *http.Request, def, max int, keys ...string) (int, error) {
	v, ok, err := IntAny(r, keys...)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	if v < 1 || v > max {
		return 0, fmt.Errorf("%s must be between 1 and %d", keys[0], max)
	}
	return v, nil
}
