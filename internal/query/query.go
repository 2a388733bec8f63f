package query

import (
	"context"
	"sync"
)

// Query is one keyed request with observable state. Its state starts as
// loading with empty data.
type Query[T any] struct {
	c        *Client
	resource string
	key      string
	fn       FetchFunc[T]

	mu      sync.Mutex
	state   State[T]
	done    chan struct{}
	running bool
}

func NewQuery[T any](c *Client, resource, key string, fn FetchFunc[T]) *Query[T] {
	return &Query[T]{
		c:        c,
		resource: resource,
		key:      key,
		fn:       fn,
		state:    loadingState[T](),
		done:     make(chan struct{}),
	}
}

func (q *Query[T]) Key() string { return q.key }

// Start begins the fetch in the background. Calls while a fetch is
// running are ignored.
func (q *Query[T]) Start(ctx context.Context) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.state.IsLoading = true
	done := q.done
	q.mu.Unlock()

	go func() {
		st := Do(ctx, q.c, q.resource, q.key, q.fn)

		q.mu.Lock()
		q.state = st
		q.running = false
		q.done = make(chan struct{})
		q.mu.Unlock()
		close(done)
	}()
}

func (q *Query[T]) Snapshot() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Wait starts the query if needed and blocks until it settles or ctx
// ends. On ctx end the last snapshot is returned with ctx.Err().
func (q *Query[T]) Wait(ctx context.Context) State[T] {
	q.mu.Lock()
	if !q.running && !q.state.IsLoading {
		st := q.state
		q.mu.Unlock()
		return st
	}
	done := q.done
	q.mu.Unlock()

	q.Start(ctx)

	select {
	case <-done:
		return q.Snapshot()
	case <-ctx.Done():
		st := q.Snapshot()
		st.Err = ctx.Err()
		return st
	}
}

// Refetch drops the cached entry and fetches again, keeping the current
// data visible while loading.
func (q *Query[T]) Refetch(ctx context.Context) State[T] {
	if err := q.c.Invalidate(ctx, q.key); err != nil {
		q.c.log.Warn("query invalidate failed", "resource", q.resource, "err", err)
	}

	q.mu.Lock()
	if !q.running {
		q.state.IsLoading = true
		q.state.Err = nil
	}
	q.mu.Unlock()

	return q.Wait(ctx)
}
