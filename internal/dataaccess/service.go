// Package dataaccess decides, per call, whether data comes from the live
// marketplace API or from the bundled fallback catalogue. List operations
// never fail: any probe, transport or decode failure is turned into a
// fallback result whose Source names the reason.
package dataaccess

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"time"

	"buscalisto/internal/apis/marketplace"
	"buscalisto/internal/apis/marketplace/endpoints"
	"buscalisto/internal/catalog"
	"buscalisto/internal/domain/models"
	"buscalisto/internal/health"
	"buscalisto/internal/metrics"
)

// Resource names, shared with the query layer and the metrics labels.
const (
	ResRecent            = "recent"
	ResMostViewed        = "most_viewed"
	ResDeals             = "deals"
	ResByCategory        = "by_category"
	ResSearch            = "search"
	ResAll               = "all"
	ResFiltered          = "filtered"
	ResPopularCategories = "popular_categories"
	ResCategories        = "categories"
	ResDetail            = "detail"
	ResStore             = "store"
)

type Checker interface {
	Check(ctx context.Context) health.Status
}

// FallbackDelay is the simulated latency added to fallback responses.
// A zero value disables it.
type FallbackDelay struct {
	Min time.Duration
	Max time.Duration
}

func (d FallbackDelay) pick() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + rand.N(d.Max-d.Min)
}

type Options struct {
	Delay   FallbackDelay
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type Service struct {
	api     marketplace.API
	probe   Checker
	local   *catalog.Catalog
	delay   FallbackDelay
	metrics *metrics.Metrics
	log     *slog.Logger
}

func New(api marketplace.API, probe Checker, local *catalog.Catalog, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		api:     api,
		probe:   probe,
		local:   local,
		delay:   opts.Delay,
		metrics: opts.Metrics,
		log:     opts.Logger,
	}
}

func (s *Service) API() marketplace.API { return s.api }

func (s *Service) Catalog() *catalog.Catalog { return s.local }

func (s *Service) Recent(ctx context.Context, limit int) Result[[]models.Product] {
	return fetch(ctx, s, ResRecent,
		func(ctx context.Context) ([]models.Product, error) { return s.api.Recent(ctx, limit) },
		func() []models.Product { return s.local.Recent(limit) },
	)
}

func (s *Service) MostViewed(ctx context.Context, limit int) Result[[]models.Product] {
	return fetch(ctx, s, ResMostViewed,
		func(ctx context.Context) ([]models.Product, error) { return s.api.MostViewed(ctx, limit) },
		func() []models.Product { return s.local.MostViewed(limit) },
	)
}

func (s *Service) Deals(ctx context.Context, limit int) Result[[]models.Deal] {
	return fetch(ctx, s, ResDeals,
		func(ctx context.Context) ([]models.Deal, error) { return s.api.Deals(ctx, limit) },
		func() []models.Deal { return s.local.Deals(limit) },
	)
}

func (s *Service) ByCategory(ctx context.Context, key string, limit int) Result[[]models.Product] {
	return fetch(ctx, s, ResByCategory,
		func(ctx context.Context) ([]models.Product, error) { return s.api.ByCategory(ctx, key, limit) },
		func() []models.Product { return s.local.ByCategory(key, limit) },
	)
}

func (s *Service) Search(ctx context.Context, q models.ProductQuery) Result[models.Page[models.Product]] {
	return fetch(ctx, s, ResSearch,
		func(ctx context.Context) (models.Page[models.Product], error) { return s.api.Search(ctx, q) },
		func() models.Page[models.Product] { return s.local.Query(q) },
	)
}

// All lists the whole catalogue page by page. The search term is ignored.
func (s *Service) All(ctx context.Context, q models.ProductQuery) Result[models.Page[models.Product]] {
	q.Term = ""
	return fetch(ctx, s, ResAll,
		func(ctx context.Context) (models.Page[models.Product], error) { return s.api.All(ctx, q) },
		func() models.Page[models.Product] { return s.local.Query(q) },
	)
}

func (s *Service) Filtered(ctx context.Context, q models.ProductQuery) Result[models.Page[models.Product]] {
	return fetch(ctx, s, ResFiltered,
		func(ctx context.Context) (models.Page[models.Product], error) { return s.api.Filtered(ctx, q) },
		func() models.Page[models.Product] { return s.local.Query(q) },
	)
}

func (s *Service) PopularCategories(ctx context.Context, limit int) Result[[]models.PopularCategory] {
	return fetch(ctx, s, ResPopularCategories,
		func(ctx context.Context) ([]models.PopularCategory, error) {
			return s.api.PopularCategories(ctx, limit)
		},
		func() []models.PopularCategory { return s.local.PopularCategories(limit) },
	)
}

func (s *Service) Categories(ctx context.Context) Result[[]models.Category] {
	return fetch(ctx, s, ResCategories,
		func(ctx context.Context) ([]models.Category, error) { return s.api.Categories(ctx) },
		func() []models.Category { return s.local.Taxonomy().All() },
	)
}

// ProductDetail tries the API, then the local catalogue. ErrNotFound is
// returned only when neither has the product.
func (s *Service) ProductDetail(ctx context.Context, id models.ProductID) (Result[models.Product], error) {
	return lookup(ctx, s, ResDetail,
		func(ctx context.Context) (models.Product, error) { return s.api.ProductDetail(ctx, id) },
		func() (models.Product, bool) { return s.local.Find(id) },
	)
}

func (s *Service) StoreByName(ctx context.Context, name string) (Result[models.Store], error) {
	return lookup(ctx, s, ResStore,
		func(ctx context.Context) (models.Store, error) { return s.api.StoreByName(ctx, name) },
		func() (models.Store, bool) { return s.local.StoreByName(name) },
	)
}

func (s *Service) Plans() []models.Plan {
	return catalog.Plans()
}

// fetch is the probe, live, fallback sequence shared by list operations.
func fetch[T any](ctx context.Context, s *Service, resource string, liveFn func(context.Context) (T, error), localFn func() T) Result[T] {
	st := s.probe.Check(ctx)
	if !st.Available {
		return serveLocal(ctx, s, resource, SourceFallbackUnavailable, st.Err, localFn)
	}

	data, err := liveFn(ctx)
	if err != nil {
		return serveLocal(ctx, s, resource, classify(err), err.Error(), localFn)
	}

	s.metrics.RecordDataRequest(resource, string(SourceLive))
	return live(emptyIfNil(data))
}

func serveLocal[T any](ctx context.Context, s *Service, resource string, src Source, reason string, localFn func() T) Result[T] {
	s.log.Warn("serving fallback data", "resource", resource, "source", src, "reason", reason)
	s.simulateLatency(ctx)
	s.metrics.RecordDataRequest(resource, string(src))
	return fallback(emptyIfNil(localFn()), src, reason)
}

// lookup is fetch for single items. A live miss is not final: the local
// catalogue is consulted before reporting ErrNotFound.
func lookup[T any](ctx context.Context, s *Service, resource string, liveFn func(context.Context) (T, error), localFn func() (T, bool)) (Result[T], error) {
	src, reason := SourceFallbackUnavailable, ""

	st := s.probe.Check(ctx)
	if st.Available {
		data, err := liveFn(ctx)
		if err == nil {
			s.metrics.RecordDataRequest(resource, string(SourceLive))
			return live(data), nil
		}
		src, reason = classify(err), err.Error()
	} else {
		reason = st.Err
	}

	s.log.Debug("lookup falling back to local catalogue", "resource", resource, "source", src, "reason", reason)
	s.simulateLatency(ctx)
	s.metrics.RecordDataRequest(resource, string(src))

	data, ok := localFn()
	if !ok {
		return Result[T]{Source: src, Reason: reason}, fmt.Errorf("%s: %w", resource, ErrNotFound)
	}
	return fallback(data, src, reason), nil
}

func classify(err error) Source {
	if endpoints.IsDecode(err) {
		return SourceFallbackParse
	}
	return SourceFallbackNetwork
}

func (s *Service) simulateLatency(ctx context.Context) {
	d := s.delay.pick()
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func emptyIfNil[T any](v T) T {
	rv := reflect.ValueOf(&v).Elem()
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		rv.Set(reflect.MakeSlice(rv.Type(), 0, 0))
	}
	return v
}
