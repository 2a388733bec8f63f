package query_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buscalisto/internal/apis/marketplace"
	"buscalisto/internal/catalog"
	"buscalisto/internal/dataaccess"
	"buscalisto/internal/domain/models"
	"buscalisto/internal/health"
	"buscalisto/internal/metrics"
	"buscalisto/internal/query"
	"buscalisto/internal/taxonomy"
)

func newClient(m *metrics.Metrics, pol query.Policies) *query.Client {
	return query.NewClient(query.Options{
		Policies:   pol,
		RetryDelay: time.Millisecond,
		Metrics:    m,
	})
}

func products(ids ...string) []models.Product {
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Product{ID: models.ProductID(id), Name: "p" + id})
	}
	return out
}

func ids(ps []models.Product) []models.ProductID {
	out := make([]models.ProductID, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestCacheServesFreshEntries(t *testing.T) {
	var calls atomic.Int32
	c := newClient(nil, nil)
	fn := func(ctx context.Context) (dataaccess.Result[[]models.Product], error) {
		calls.Add(1)
		return dataaccess.Result[[]models.Product]{Success: true, Data: products("1", "2"), Source: dataaccess.SourceLive}, nil
	}

	first := query.Do(context.Background(), c, dataaccess.ResRecent, "k1", fn)
	second := query.Do(context.Background(), c, dataaccess.ResRecent, "k1", fn)
	other := query.Do(context.Background(), c, dataaccess.ResRecent, "k2", fn)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.False(t, other.Cached)
	assert.Equal(t, ids(first.Data), ids(second.Data))
	assert.Equal(t, dataaccess.SourceLive, second.Source)
	assert.EqualValues(t, 2, calls.Load())
}

func TestZeroStaleTimeAlwaysFetches(t *testing.T) {
	var calls atomic.Int32
	c := newClient(nil, nil)
	fn := func(ctx context.Context) (dataaccess.Result[models.Page[models.Product]], error) {
		calls.Add(1)
		return dataaccess.Result[models.Page[models.Product]]{Success: true}, nil
	}

	query.Do(context.Background(), c, dataaccess.ResFiltered, "f", fn)
	query.Do(context.Background(), c, dataaccess.ResFiltered, "f", fn)
	assert.EqualValues(t, 2, calls.Load())
}

func TestRetryOnce(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := newClient(m, nil)

	var calls atomic.Int32
	st := query.Do(context.Background(), c, dataaccess.ResDetail, "d", func(ctx context.Context) (dataaccess.Result[models.Product], error) {
		if calls.Add(1) == 1 {
			return dataaccess.Result[models.Product]{}, errors.New("boom")
		}
		return dataaccess.Result[models.Product]{Success: true, Data: models.Product{ID: "7"}, Source: dataaccess.SourceLive}, nil
	})

	require.NoError(t, st.Err)
	assert.Equal(t, models.ProductID("7"), st.Data.ID)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueryRetriesTotal.WithLabelValues(dataaccess.ResDetail)))
}

func TestRetryGivesUpAfterPolicy(t *testing.T) {
	c := newClient(nil, query.Policies{dataaccess.ResDetail: {Retries: 2}})

	var calls atomic.Int32
	st := query.Do(context.Background(), c, dataaccess.ResDetail, "d", func(ctx context.Context) (dataaccess.Result[models.Product], error) {
		calls.Add(1)
		return dataaccess.Result[models.Product]{}, errors.New("boom")
	})
	assert.EqualError(t, st.Err, "boom")
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, query.ViewError, st.View())
}

func TestNotFoundIsNotRetried(t *testing.T) {
	c := newClient(nil, nil)

	var calls atomic.Int32
	st := query.Do(context.Background(), c, dataaccess.ResStore, "s", func(ctx context.Context) (dataaccess.Result[models.Store], error) {
		calls.Add(1)
		return dataaccess.Result[models.Store]{}, dataaccess.ErrNotFound
	})
	assert.ErrorIs(t, st.Err, dataaccess.ErrNotFound)
	assert.EqualValues(t, 1, calls.Load())
}

func TestConcurrentCallsShareOneFetch(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := newClient(m, nil)

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(ctx context.Context) (dataaccess.Result[[]models.Product], error) {
		calls.Add(1)
		<-release
		return dataaccess.Result[[]models.Product]{Success: true, Data: products("1"), Source: dataaccess.SourceLive}, nil
	}

	const n = 5
	var wg sync.WaitGroup
	states := make([]query.State[[]models.Product], n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			states[i] = query.Do(context.Background(), c, dataaccess.ResMostViewed, "same", fn)
		}()
	}
	time.Sleep(30 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, st := range states {
		require.NoError(t, st.Err)
		assert.Len(t, st.Data, 1)
	}
	assert.Equal(t, float64(n), testutil.ToFloat64(m.QueryDedupTotal.WithLabelValues(dataaccess.ResMostViewed)))
}

func TestAbandonedCallStillCaches(t *testing.T) {
	c := newClient(nil, nil)

	release := make(chan struct{})
	fn := func(ctx context.Context) (dataaccess.Result[[]models.Product], error) {
		<-release
		return dataaccess.Result[[]models.Product]{Success: true, Data: products("9"), Source: dataaccess.SourceFallbackNetwork}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := query.Do(ctx, c, dataaccess.ResRecent, "gone", fn)
	assert.ErrorIs(t, st.Err, context.Canceled)
	close(release)

	require.Eventually(t, func() bool {
		got := query.Do(context.Background(), c, dataaccess.ResRecent, "gone", fn)
		return got.Cached && len(got.Data) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestView(t *testing.T) {
	assert.Equal(t, query.ViewLoading, query.State[[]int]{IsLoading: true, Err: errors.New("x")}.View())
	assert.Equal(t, query.ViewError, query.State[[]int]{Err: errors.New("x"), Data: []int{1}}.View())
	assert.Equal(t, query.ViewEmpty, query.State[[]int]{}.View())
	assert.Equal(t, query.ViewPopulated, query.State[[]int]{Data: []int{1}}.View())
	assert.Equal(t, query.ViewEmpty, query.State[models.Page[models.Product]]{}.View())
	assert.Equal(t, query.ViewPopulated, query.State[models.Store]{Data: models.Store{Name: "x"}}.View())
}

func TestQueryLifecycle(t *testing.T) {
	c := newClient(nil, nil)
	var calls atomic.Int32
	release := make(chan struct{}, 2)

	q := query.NewQuery(c, dataaccess.ResDeals, "deals", func(ctx context.Context) (dataaccess.Result[[]models.Deal], error) {
		calls.Add(1)
		<-release
		return dataaccess.Result[[]models.Deal]{Success: true, Data: []models.Deal{{ID: "deal-1"}}, Source: dataaccess.SourceLive}, nil
	})

	snap := q.Snapshot()
	assert.Equal(t, query.ViewLoading, snap.View())
	assert.NotNil(t, snap.Data)
	assert.Empty(t, snap.Data)

	q.Start(context.Background())
	release <- struct{}{}
	st := q.Wait(context.Background())
	assert.Equal(t, query.ViewPopulated, st.View())
	assert.False(t, st.IsLoading)

	release <- struct{}{}
	st = q.Refetch(context.Background())
	assert.Equal(t, query.ViewPopulated, st.View())
	assert.False(t, st.Cached)
	assert.EqualValues(t, 2, calls.Load())
}

func TestPoliciesWith(t *testing.T) {
	p, err := query.DefaultPolicies().With(query.Policies{dataaccess.ResSearch: {StaleTime: time.Minute, Retries: 0}})
	require.NoError(t, err)
	assert.Equal(t, query.Policy{StaleTime: time.Minute}, p.For(dataaccess.ResSearch))
	assert.Equal(t, query.DefaultPolicies().For(dataaccess.ResRecent), p.For(dataaccess.ResRecent))

	_, err = query.DefaultPolicies().With(query.Policies{"nope": {}})
	assert.Error(t, err)
	_, err = query.DefaultPolicies().With(query.Policies{dataaccess.ResAll: {Retries: -1}})
	assert.Error(t, err)
	_, err = query.DefaultPolicies().With(query.Policies{dataaccess.ResAll: {Retries: query.MaxRetries + 1}})
	assert.Error(t, err)
}

func TestMemoryStoreEvicts(t *testing.T) {
	s := query.NewMemoryStore(2)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", query.Entry{}, time.Minute))
	require.NoError(t, s.Set(ctx, "b", query.Entry{}, time.Hour))
	require.NoError(t, s.Set(ctx, "c", query.Entry{}, time.Hour))
	assert.Equal(t, 2, s.Len())

	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Delete(ctx, "b"))
	_, ok, _ = s.Get(ctx, "b")
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "z", query.Entry{}, 0))
	_, ok, _ = s.Get(ctx, "z")
	assert.False(t, ok)
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := query.NewRedisStore(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}

type downProbe struct{}

func (downProbe) Check(context.Context) health.Status { return health.Status{Err: "down"} }

func TestHooksKeyByResolvedURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cat, err := catalog.LoadDefault(taxonomy.Default(), nil)
	require.NoError(t, err)
	api := marketplace.New(srv.Client(), marketplace.Options{BaseURL: srv.URL})
	h := query.NewHooks(newClient(nil, nil), dataaccess.New(api, downProbe{}, cat, dataaccess.Options{}))

	assert.Equal(t, srv.URL+"/products/category/bebes?limit=4", h.ByCategory("bebes", 4).Key())
	assert.NotEqual(t, h.Search(models.ProductQuery{Term: "a"}).Key(), h.Search(models.ProductQuery{Term: "b"}).Key())

	st := h.Search(models.ProductQuery{Term: "ibuprofeno", Category: models.AllCategories}).Wait(context.Background())
	require.NoError(t, st.Err)
	assert.Equal(t, dataaccess.SourceFallbackUnavailable, st.Source)
	assert.Equal(t, query.ViewPopulated, st.View())

	missing := h.ProductDetail("12345").Wait(context.Background())
	assert.ErrorIs(t, missing.Err, dataaccess.ErrNotFound)
	assert.Equal(t, query.ViewError, missing.View())
}
