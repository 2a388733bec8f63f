package endpoints

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"buscalisto/internal/apis/marketplace/responses"
)

// The API wraps payloads inconsistently: bare arrays, {"data": [...]},
// {"data": {"products": [...]}}, {"products": [...]}, {"items": [...]},
// with pagination either beside the list or inside "data".

var listKeys = []string{"data", "products", "items", "results"}

func decodeList[T any](op string, b []byte) ([]T, error) {
	items, _, err := decodeListWithPage[T](b)
	if err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return items, nil
}

func decodePage[T any](op string, b []byte) ([]T, *responses.Pagination, error) {
	items, pg, err := decodeListWithPage[T](b)
	if err != nil {
		return nil, nil, &DecodeError{Op: op, Err: err}
	}
	return items, pg, nil
}

func decodeObject[T any](op string, b []byte) (T, error) {
	var zero T
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return zero, &DecodeError{Op: op, Err: errors.New("expected a JSON object")}
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(b, &env); err != nil {
		return zero, &DecodeError{Op: op, Err: err}
	}
	if raw, ok := env["data"]; ok && isObject(raw) {
		b = raw
	}

	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, &DecodeError{Op: op, Err: err}
	}
	return out, nil
}

func decodeListWithPage[T any](b []byte) ([]T, *responses.Pagination, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil, errors.New("empty body")
	}

	if b[0] == '[' {
		var out []T
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, nil, err
		}
		return out, nil, nil
	}
	if b[0] != '{' {
		return nil, nil, fmt.Errorf("unexpected body start %q", b[0])
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, nil, err
	}

	pg, err := pagination(env)
	if err != nil {
		return nil, nil, err
	}

	for _, k := range listKeys {
		raw, ok := env[k]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '[' {
			var out []T
			if err := json.Unmarshal(raw, &out); err != nil {
				return nil, nil, err
			}
			return out, pg, nil
		}
		if isObject(raw) {
			var inner map[string]json.RawMessage
			if err := json.Unmarshal(raw, &inner); err != nil {
				return nil, nil, err
			}
			if pg == nil {
				if pg, err = pagination(inner); err != nil {
					return nil, nil, err
				}
			}
			for _, ik := range listKeys[1:] {
				if arr, ok := inner[ik]; ok {
					var out []T
					if err := json.Unmarshal(arr, &out); err != nil {
						return nil, nil, err
					}
					return out, pg, nil
				}
			}
		}
	}

	return nil, nil, errors.New("no list found in response")
}

func pagination(env map[string]json.RawMessage) (*responses.Pagination, error) {
	raw, ok := env["pagination"]
	if !ok {
		raw, ok = env["meta"]
	}
	if !ok || !isObject(raw) {
		return nil, nil
	}
	var pg responses.Pagination
	if err := json.Unmarshal(raw, &pg); err != nil {
		return nil, err
	}
	return &pg, nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
