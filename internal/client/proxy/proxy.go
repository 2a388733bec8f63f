// Package proxy picks the egress proxy for calls to the marketplace API.
package proxy

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
)

type Mode string

const (
	ModeDisabled Mode = "disabled"
	ModeEnv      Mode = "env"
	ModeList     Mode = "list"
)

type Config struct {
	Mode string
	List []string
}

type Func = func(*http.Request) (*url.URL, error)

// FromConfig returns the proxy func for http.Transport. Disabled mode
// returns nil, which means direct connections.
func FromConfig(cfg Config, log *slog.Logger) (Func, error) {
	if log == nil {
		log = slog.Default()
	}
	mode := Mode(strings.ToLower(strings.TrimSpace(cfg.Mode)))
	if mode == "" {
		mode = ModeDisabled
	}

	switch mode {
	case ModeDisabled:
		return nil, nil
	case ModeEnv:
		log.Info("egress proxy from environment")
		return http.ProxyFromEnvironment, nil
	case ModeList:
		rr, err := newRoundRobin(cfg.List)
		if err != nil {
			return nil, err
		}
		log.Info("egress proxy list", "count", len(rr.items))
		return rr.next, nil
	default:
		return nil, fmt.Errorf("unknown proxy.mode=%q (expected disabled|env|list)", cfg.Mode)
	}
}

type roundRobin struct {
	items []*url.URL
	idx   atomic.Uint64
}

func newRoundRobin(list []string) (*roundRobin, error) {
	rr := &roundRobin{}
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !strings.Contains(s, "://") {
			s = "http://" + s
		}
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("proxy %q: %w", s, err)
		}
		rr.items = append(rr.items, u)
	}
	if len(rr.items) == 0 {
		return nil, fmt.Errorf("proxy list is empty")
	}
	return rr, nil
}

func (r *roundRobin) next(*http.Request) (*url.URL, error) {
	i := r.idx.Add(1) - 1
	return r.items[int(i%uint64(len(r.items)))], nil
}
