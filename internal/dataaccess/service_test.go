package dataaccess_test

import (
	"context"
	"net/http"
	"net/http/httptest"
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
	"buscalisto/internal/taxonomy"
)

type fixedProbe struct{ up bool }

func (p fixedProbe) Check(context.Context) health.Status {
	if p.up {
		return health.Status{Available: true, CheckedAt: time.Now()}
	}
	return health.Status{CheckedAt: time.Now(), Err: "health probe timed out"}
}

func newService(t *testing.T, up bool, h http.HandlerFunc) (*dataaccess.Service, *metrics.Metrics) {
	t.Helper()
	if h == nil {
		h = func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected upstream call %s", r.URL.Path)
		}
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cat, err := catalog.LoadDefault(taxonomy.Default(), nil)
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	api := marketplace.New(srv.Client(), marketplace.Options{BaseURL: srv.URL})
	return dataaccess.New(api, fixedProbe{up: up}, cat, dataaccess.Options{Metrics: m}), m
}

func TestUnavailableServesEveryResourceFromFallback(t *testing.T) {
	svc, m := newService(t, false, nil)
	ctx := context.Background()
	want := dataaccess.SourceFallbackUnavailable

	recent := svc.Recent(ctx, 5)
	assert.True(t, recent.Success)
	assert.Equal(t, want, recent.Source)
	assert.Len(t, recent.Data, 5)
	assert.Equal(t, "health probe timed out", recent.Reason)

	mv := svc.MostViewed(ctx, 3)
	assert.True(t, mv.Success)
	assert.Len(t, mv.Data, 3)

	deals := svc.Deals(ctx, 0)
	assert.True(t, deals.Success)
	assert.NotNil(t, deals.Data)

	byCat := svc.ByCategory(ctx, "no-such-category", 4)
	assert.True(t, byCat.Success)
	assert.NotNil(t, byCat.Data)
	assert.Empty(t, byCat.Data)

	search := svc.Search(ctx, models.ProductQuery{Term: "zzz-nothing"})
	assert.True(t, search.Success)
	assert.NotNil(t, search.Data.Items)
	assert.Zero(t, search.Data.Total)

	all := svc.All(ctx, models.ProductQuery{Page: 1, Limit: 5})
	assert.True(t, all.Success)
	assert.Equal(t, 19, all.Data.Total)
	assert.Equal(t, 4, all.Data.TotalPages)

	filtered := svc.Filtered(ctx, models.ProductQuery{Category: "medicamentos"})
	assert.True(t, filtered.Success)
	for _, p := range filtered.Data.Items {
		assert.Equal(t, "medicamentos", p.Category)
	}

	pop := svc.PopularCategories(ctx, 3)
	assert.True(t, pop.Success)
	assert.LessOrEqual(t, len(pop.Data), 3)

	cats := svc.Categories(ctx)
	assert.True(t, cats.Success)
	assert.Equal(t, taxonomy.Default().All(), cats.Data)

	for _, r := range []dataaccess.Source{recent.Source, mv.Source, deals.Source, byCat.Source, search.Source, all.Source, filtered.Source, pop.Source, cats.Source} {
		assert.Equal(t, want, r)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DataRequestsTotal.WithLabelValues(dataaccess.ResRecent, string(want))))
}

func TestLiveSuccess(t *testing.T) {
	svc, m := newService(t, true, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/top/newest", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":101,"name":"Live A","price":3},{"id":"102","name":"Live B","price":4}]}`))
	})

	res := svc.Recent(context.Background(), 2)
	assert.Equal(t, dataaccess.SourceLive, res.Source)
	assert.False(t, res.Source.Degraded())
	require.Len(t, res.Data, 2)
	assert.Equal(t, models.ProductID("101"), res.Data[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DataRequestsTotal.WithLabelValues(dataaccess.ResRecent, "live")))
}

func TestLiveEmptyListIsNotNil(t *testing.T) {
	svc, _ := newService(t, true, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	res := svc.MostViewed(context.Background(), 2)
	assert.Equal(t, dataaccess.SourceLive, res.Source)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
}

func TestNetworkFailureFallsBack(t *testing.T) {
	svc, _ := newService(t, true, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	res := svc.ByCategory(context.Background(), "medicamentos", 0)
	assert.True(t, res.Success)
	assert.Equal(t, dataaccess.SourceFallbackNetwork, res.Source)
	assert.NotEmpty(t, res.Data)
	assert.Contains(t, res.Reason, "502")
}

func TestParseFailureFallsBack(t *testing.T) {
	svc, _ := newService(t, true, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": "oops"`))
	})

	res := svc.Search(context.Background(), models.ProductQuery{Term: "ibuprofeno"})
	assert.True(t, res.Success)
	assert.Equal(t, dataaccess.SourceFallbackParse, res.Source)
	require.NotEmpty(t, res.Data.Items)
	assert.Contains(t, res.Data.Items[0].Name, "Ibuprofeno")
}

func TestProductDetail(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		svc, _ := newService(t, true, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/products/900/detail", r.URL.Path)
			_, _ = w.Write([]byte(`{"data":{"id":900,"name":"Remote","price":10}}`))
		})
		res, err := svc.ProductDetail(context.Background(), "900")
		require.NoError(t, err)
		assert.Equal(t, dataaccess.SourceLive, res.Source)
		assert.Equal(t, "Remote", res.Data.Name)
	})

	t.Run("live 404 but local hit", func(t *testing.T) {
		svc, _ := newService(t, true, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		res, err := svc.ProductDetail(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, dataaccess.SourceFallbackNetwork, res.Source)
		assert.Equal(t, models.ProductID("1"), res.Data.ID)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		svc, _ := newService(t, true, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		res, err := svc.ProductDetail(context.Background(), "999")
		require.ErrorIs(t, err, dataaccess.ErrNotFound)
		assert.False(t, res.Success)
	})

	t.Run("unavailable", func(t *testing.T) {
		svc, _ := newService(t, false, nil)
		res, err := svc.ProductDetail(context.Background(), "2")
		require.NoError(t, err)
		assert.Equal(t, dataaccess.SourceFallbackUnavailable, res.Source)
	})
}

func TestStoreByName(t *testing.T) {
	svc, _ := newService(t, false, nil)

	res, err := svc.StoreByName(context.Background(), "farmacia santa ana")
	require.NoError(t, err)
	assert.Equal(t, "Farmacia Santa Ana", res.Data.Name)

	_, err = svc.StoreByName(context.Background(), "Farmacia Inexistente")
	assert.ErrorIs(t, err, dataaccess.ErrNotFound)
}

func TestFallbackDelayHonoursContext(t *testing.T) {
	cat, err := catalog.LoadDefault(taxonomy.Default(), nil)
	require.NoError(t, err)

	svc := dataaccess.New(nil, fixedProbe{up: false}, cat, dataaccess.Options{
		Delay: dataaccess.FallbackDelay{Min: time.Hour, Max: 2 * time.Hour},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := svc.Recent(ctx, 1)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, res.Success)
	assert.Len(t, res.Data, 1)
}

func TestPlans(t *testing.T) {
	svc, _ := newService(t, false, nil)
	plans := svc.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, "basic", plans[0].ID)
}
