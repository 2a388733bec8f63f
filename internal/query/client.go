// Package query wraps data access calls the way views consume them: each
// request is keyed by its resolved URL, cached for its resource's stale
// window, retried per policy and shared with identical in-flight requests.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"buscalisto/internal/dataaccess"
	"buscalisto/internal/metrics"
)

const (
	defaultRetryDelay   = 250 * time.Millisecond
	defaultFetchTimeout = 30 * time.Second
)

// FetchFunc produces one result. Errors other than ErrNotFound and
// context errors are retried.
type FetchFunc[T any] func(ctx context.Context) (dataaccess.Result[T], error)

type Options struct {
	Policies     Policies
	Store        Store
	RetryDelay   time.Duration
	FetchTimeout time.Duration
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

type Client struct {
	policies     Policies
	store        Store
	group        singleflight.Group
	retryDelay   time.Duration
	fetchTimeout time.Duration
	metrics      *metrics.Metrics
	log          *slog.Logger
	now          func() time.Time
}

func NewClient(opts Options) *Client {
	if opts.Policies == nil {
		opts.Policies = DefaultPolicies()
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore(0)
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		policies:     opts.Policies,
		store:        opts.Store,
		retryDelay:   opts.RetryDelay,
		fetchTimeout: opts.FetchTimeout,
		metrics:      opts.Metrics,
		log:          opts.Logger,
		now:          time.Now,
	}
}

func (c *Client) Policies() Policies { return c.policies }

// Invalidate drops the cached entry for key.
func (c *Client) Invalidate(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

type fetched[T any] struct {
	res dataaccess.Result[T]
	at  time.Time
}

// Do resolves one keyed request: a fresh cache entry if there is one,
// otherwise a fetch shared with every concurrent caller of the same key.
// A caller whose ctx ends stops waiting; the fetch itself continues and
// its result is still cached.
func Do[T any](ctx context.Context, c *Client, resource, key string, fn FetchFunc[T]) State[T] {
	pol := c.policies.For(resource)

	if st, ok := cached[T](ctx, c, resource, key, pol); ok {
		return st
	}

	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return fetchWithRetry(fctx, c, resource, key, pol, fn)
	})

	select {
	case <-ctx.Done():
		return State[T]{Data: zeroData[T](), Err: ctx.Err()}
	case r := <-ch:
		if r.Shared {
			c.metrics.RecordShared(resource)
		}
		if r.Err != nil {
			return State[T]{Data: zeroData[T](), Err: r.Err}
		}
		f := r.Val.(fetched[T])
		return State[T]{
			Data:      f.res.Data,
			Source:    f.res.Source,
			FetchedAt: f.at,
		}
	}
}

func cached[T any](ctx context.Context, c *Client, resource, key string, pol Policy) (State[T], bool) {
	if pol.StaleTime <= 0 {
		return State[T]{}, false
	}

	e, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("query cache read failed", "resource", resource, "err", err)
		return State[T]{}, false
	}
	if !ok {
		c.metrics.RecordCache(resource, "miss")
		return State[T]{}, false
	}
	if c.now().Sub(e.FetchedAt) >= pol.StaleTime {
		c.metrics.RecordCache(resource, "stale")
		return State[T]{}, false
	}

	var data T
	if err := json.Unmarshal(e.Payload, &data); err != nil {
		c.log.Warn("query cache entry unreadable", "resource", resource, "err", err)
		return State[T]{}, false
	}
	c.metrics.RecordCache(resource, "hit")
	return State[T]{Data: data, Source: e.Source, FetchedAt: e.FetchedAt, Cached: true}, true
}

func fetchWithRetry[T any](ctx context.Context, c *Client, resource, key string, pol Policy, fn FetchFunc[T]) (fetched[T], error) {
	var (
		res dataaccess.Result[T]
		err error
	)
	for attempt := 0; attempt <= pol.Retries; attempt++ {
		if attempt > 0 {
			c.metrics.RecordRetry(resource)
			c.log.Debug("query retry", "resource", resource, "attempt", attempt+1, "err", err)
			if werr := sleepCtx(ctx, c.retryDelay); werr != nil {
				return fetched[T]{}, werr
			}
		}
		res, err = fn(ctx)
		if err == nil || !retryable(err) {
			break
		}
	}
	if err != nil {
		return fetched[T]{}, err
	}

	f := fetched[T]{res: res, at: c.now()}
	if pol.StaleTime > 0 {
		payload, merr := json.Marshal(res.Data)
		if merr != nil {
			return f, nil
		}
		e := Entry{Payload: payload, Source: res.Source, FetchedAt: f.at}
		if serr := c.store.Set(ctx, key, e, pol.StaleTime); serr != nil {
			c.log.Warn("query cache write failed", "resource", resource, "err", serr)
		}
	}
	return f, nil
}

func retryable(err error) bool {
	return !errors.Is(err, dataaccess.ErrNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Key builds a cache key for requests that have no URL form.
func Key(resource string, parts ...any) string {
	return fmt.Sprintf("%s:%v", resource, parts)
}
