// Package marketplace is the typed client of the Buscalisto REST API.
// Wire DTOs stay in responses; callers get domain values.
package marketplace

import (
	"context"
	"log/slog"
	"net/http"

	"buscalisto/internal/apis/marketplace/endpoints"
	"buscalisto/internal/apis/marketplace/mapper"
	"buscalisto/internal/client"
	"buscalisto/internal/client/transport"
	"buscalisto/internal/domain/models"
	"buscalisto/internal/taxonomy"
)

const DefaultBaseURL = "http://localhost:3000/api"

type API interface {
	Ping(ctx context.Context) error
	URL(r endpoints.Request) (string, error)

	Recent(ctx context.Context, limit int) ([]models.Product, error)
	MostViewed(ctx context.Context, limit int) ([]models.Product, error)
	Deals(ctx context.Context, limit int) ([]models.Deal, error)
	ByCategory(ctx context.Context, key string, limit int) ([]models.Product, error)
	Search(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], error)
	All(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], error)
	Filtered(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], error)
	ProductDetail(ctx context.Context, id models.ProductID) (models.Product, error)
	PopularCategories(ctx context.Context, limit int) ([]models.PopularCategory, error)
	Categories(ctx context.Context) ([]models.Category, error)
	StoreByName(ctx context.Context, name string) (models.Store, error)
}

type service struct {
	api *endpoints.Client
	m   *mapper.Mapper
	ua  string
	log *slog.Logger
}

type Options struct {
	BaseURL   string
	UserAgent string
	Taxonomy  *taxonomy.Taxonomy
	Logger    *slog.Logger
}

func New(transport client.Transport, opts Options) API {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "buscalisto/1.0"
	}

	s := &service{
		m:   mapper.New(opts.Taxonomy, opts.Logger),
		ua:  opts.UserAgent,
		log: opts.Logger,
	}
	s.api = endpoints.New(transport, opts.BaseURL, s.applyDefaultHeaders)
	return s
}

func (s *service) applyDefaultHeaders(req *http.Request) {
	req.Header.Set("User-Agent", s.ua)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "es-VE,es;q=0.9,en;q=0.5")
}

// Ping sends a single HEAD to the health endpoint. It is never retried.
func (s *service) Ping(ctx context.Context) error {
	_, err := s.api.Head(transport.WithoutRetry(ctx), endpoints.PathHealth)
	return err
}

func (s *service) URL(r endpoints.Request) (string, error) {
	return s.api.URL(r.Path, r.Params)
}

func (s *service) Recent(ctx context.Context, limit int) ([]models.Product, error) {
	ps, err := s.api.RecentProducts(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.m.Products(ps), nil
}

func (s *service) MostViewed(ctx context.Context, limit int) ([]models.Product, error) {
	ps, err := s.api.MostViewedProducts(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.m.Products(ps), nil
}

func (s *service) Deals(ctx context.Context, limit int) ([]models.Deal, error) {
	ds, err := s.api.Deals(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.m.Deals(ds), nil
}

func (s *service) ByCategory(ctx context.Context, key string, limit int) ([]models.Product, error) {
	ps, err := s.api.ProductsByCategory(ctx, key, limit)
	if err != nil {
		return nil, err
	}
	return s.m.Products(ps), nil
}

func (s *service) Search(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], error) {
	ps, pg, err := s.api.SearchProducts(ctx, q)
	if err != nil {
		return models.Page[models.Product]{}, err
	}
	return s.m.Page(ps, pg, q), nil
}

func (s *service) All(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], error) {
	ps, pg, err := s.api.AllProducts(ctx, q)
	if err != nil {
		return models.Page[models.Product]{}, err
	}
	return s.m.Page(ps, pg, q), nil
}

func (s *service) Filtered(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], error) {
	ps, pg, err := s.api.FilteredProducts(ctx, q)
	if err != nil {
		return models.Page[models.Product]{}, err
	}
	return s.m.Page(ps, pg, q), nil
}

func (s *service) ProductDetail(ctx context.Context, id models.ProductID) (models.Product, error) {
	p, err := s.api.ProductDetail(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	return s.m.Product(p), nil
}

func (s *service) PopularCategories(ctx context.Context, limit int) ([]models.PopularCategory, error) {
	cs, err := s.api.PopularCategories(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.m.PopularCategories(cs), nil
}

func (s *service) Categories(ctx context.Context) ([]models.Category, error) {
	cs, err := s.api.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return s.m.Categories(cs), nil
}

func (s *service) StoreByName(ctx context.Context, name string) (models.Store, error) {
	st, err := s.api.StoreByName(ctx, name)
	if err != nil {
		return models.Store{}, err
	}
	return s.m.Store(st), nil
}
