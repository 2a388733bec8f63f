// Package transport holds the decorators wrapped around the marketplace
// HTTP client: per-attempt observation, bounded retries and a cap on
// in-flight requests.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"
)

type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// ObserveFunc receives one record per upstream attempt. status is 0 when
// the attempt failed before a response arrived.
type ObserveFunc func(method, path string, status int, err error, elapsed time.Duration)

type Options struct {
	HTTPClient *http.Client

	// Retries is the number of extra attempts for a GET or HEAD that hit
	// a network error, a 5xx or a 429. Requests carrying WithoutRetry are
	// always sent once.
	Retries int

	Concurrency int // max in-flight upstream requests, 0 = unlimited
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Observe     ObserveFunc
	Logger      *slog.Logger
}

func (o *Options) normalize() error {
	switch {
	case o.HTTPClient == nil:
		return errors.New("transport: HTTPClient is nil")
	case o.Concurrency < 0:
		return errors.New("transport: Concurrency must be >= 0")
	case o.Retries < 0:
		return errors.New("transport: Retries must be >= 0")
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 200 * time.Millisecond
	}
	if o.MaxDelay < o.BaseDelay {
		o.MaxDelay = max(2*time.Second, o.BaseDelay)
	}
	return nil
}

// Build stacks http, observe, retry and concurrency, innermost first.
// Each attempt is observed on its own and a slot is held across all
// attempts of one request.
func Build(opts Options) (Transport, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	var t Transport = &HTTPTransport{Client: opts.HTTPClient}
	if opts.Observe != nil {
		t = &ObservedTransport{Base: t, Observe: opts.Observe}
	}
	if opts.Retries > 0 {
		t = &RetryTransport{
			Base:       t,
			MaxRetries: opts.Retries,
			BaseDelay:  opts.BaseDelay,
			MaxDelay:   opts.MaxDelay,
			Log:        opts.Logger,
		}
	}
	if opts.Concurrency > 0 {
		t = NewConcurrencyTransport(t, opts.Concurrency)
	}
	return t, nil
}

type noRetryKey struct{}

// WithoutRetry marks requests built from ctx as single-shot. Availability
// checks use it: one failed HEAD already answers the question.
func WithoutRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey{}, true)
}

func retryable(req *http.Request) bool {
	if off, _ := req.Context().Value(noRetryKey{}).(bool); off {
		return false
	}
	if req.Body != nil && req.Body != http.NoBody {
		return false
	}
	return req.Method == http.MethodGet || req.Method == http.MethodHead
}

type HTTPTransport struct {
	Client *http.Client
}

func (h *HTTPTransport) Do(req *http.Request) (*http.Response, error) {
	return h.Client.Do(req)
}

type ObservedTransport struct {
	Base    Transport
	Observe ObserveFunc
}

func (o *ObservedTransport) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := o.Base.Do(req)
	o.Observe(req.Method, req.URL.Path, statusOf(resp), err, time.Since(start))
	return resp, err
}

// ConcurrencyTransport bounds the requests in flight against the API.
// A caller whose context ends while waiting gets the context error.
type ConcurrencyTransport struct {
	Base  Transport
	slots *semaphore.Weighted
}

func NewConcurrencyTransport(base Transport, n int) *ConcurrencyTransport {
	return &ConcurrencyTransport{Base: base, slots: semaphore.NewWeighted(int64(max(n, 1)))}
}

func (t *ConcurrencyTransport) Do(req *http.Request) (*http.Response, error) {
	if err := t.slots.Acquire(req.Context(), 1); err != nil {
		return nil, err
	}
	defer t.slots.Release(1)
	return t.Base.Do(req)
}

// RetryTransport resends idempotent requests after a network error, a 5xx
// or a 429, waiting a jittered exponential backoff (or Retry-After, capped
// at MaxDelay) in between. When attempts run out the last response or
// error is returned as is.
type RetryTransport struct {
	Base       Transport
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Log        *slog.Logger
}

func (r *RetryTransport) Do(req *http.Request) (*http.Response, error) {
	if r.MaxRetries <= 0 || !retryable(req) {
		return r.Base.Do(req)
	}

	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		resp, err := r.Base.Do(req.Clone(ctx))

		wait, again := r.verdict(resp, err)
		if !again || attempt >= r.MaxRetries {
			return resp, err
		}
		discard(resp)

		r.logger().Warn("marketplace attempt failed, retrying",
			"method", req.Method,
			"path", req.URL.Path,
			"attempt", attempt+1,
			"attempts", r.MaxRetries+1,
			"status", statusOf(resp),
			"err", err,
		)

		if wait <= 0 {
			wait = r.backoff(attempt)
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// verdict reports whether an attempt is worth repeating and how long the
// server asked us to wait, if it did.
func (r *RetryTransport) verdict(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, false
		}
		var ne net.Error
		return 0, errors.As(err, &ne)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return retryAfter(resp.Header.Get("Retry-After"), r.MaxDelay), true
	case resp.StatusCode >= 500:
		return 0, true
	default:
		return 0, false
	}
}

func (r *RetryTransport) backoff(attempt int) time.Duration {
	d := r.BaseDelay << attempt
	if d <= 0 || d > r.MaxDelay {
		d = r.MaxDelay
	}
	half := d / 2
	return half + rand.N(half+1)
}

func (r *RetryTransport) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// retryAfter accepts both forms of the header: delta seconds and an HTTP
// date. Anything unusable yields 0.
func retryAfter(v string, ceiling time.Duration) time.Duration {
	if v == "" {
		return 0
	}
	var d time.Duration
	if sec, err := strconv.Atoi(v); err == nil {
		d = time.Duration(sec) * time.Second
	} else if at, err := http.ParseTime(v); err == nil {
		d = time.Until(at)
	}
	if d <= 0 {
		return 0
	}
	return min(d, ceiling)
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 32<<10))
	_ = resp.Body.Close()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("retry wait: %w", ctx.Err())
	}
}
