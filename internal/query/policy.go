package query

import (
	"fmt"
	"time"

	"buscalisto/internal/dataaccess"
)

// Policy is the caching and retry rule for one resource.
type Policy struct {
	StaleTime time.Duration `yaml:"stale_time"`
	Retries   int           `yaml:"retries"`
}

// MaxRetries caps configured policies: a failed fetch is retried at most
// once.
const MaxRetries = 1

// Policies is the single table of per-resource rules.
type Policies map[string]Policy

func DefaultPolicies() Policies {
	return Policies{
		dataaccess.ResRecent:            {StaleTime: 5 * time.Minute, Retries: 1},
		dataaccess.ResMostViewed:        {StaleTime: 5 * time.Minute, Retries: 1},
		dataaccess.ResDeals:             {StaleTime: 5 * time.Minute, Retries: 1},
		dataaccess.ResByCategory:        {StaleTime: 5 * time.Minute, Retries: 1},
		dataaccess.ResSearch:            {StaleTime: 2 * time.Minute, Retries: 1},
		dataaccess.ResAll:               {StaleTime: 5 * time.Minute, Retries: 1},
		dataaccess.ResFiltered:          {StaleTime: 0, Retries: 1},
		dataaccess.ResPopularCategories: {StaleTime: 10 * time.Minute, Retries: 1},
		dataaccess.ResCategories:        {StaleTime: 10 * time.Minute, Retries: 1},
		dataaccess.ResDetail:            {StaleTime: 5 * time.Minute, Retries: 1},
		dataaccess.ResStore:             {StaleTime: 10 * time.Minute, Retries: 1},
	}
}

// With returns a copy of p with overrides applied. Unknown resources,
// negative values and retries above MaxRetries are rejected.
func (p Policies) With(overrides Policies) (Policies, error) {
	out := make(Policies, len(p))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overrides {
		if _, ok := out[k]; !ok {
			return nil, fmt.Errorf("query policy: unknown resource %q", k)
		}
		if v.StaleTime < 0 || v.Retries < 0 {
			return nil, fmt.Errorf("query policy %q: negative stale_time or retries", k)
		}
		if v.Retries > MaxRetries {
			return nil, fmt.Errorf("query policy %q: retries=%d exceeds %d", k, v.Retries, MaxRetries)
		}
		out[k] = v
	}
	return out, nil
}

func (p Policies) For(resource string) Policy {
	if v, ok := p[resource]; ok {
		return v
	}
	return Policy{Retries: 1}
}
