package query

import (
	"context"

	"buscalisto/internal/apis/marketplace/endpoints"
	"buscalisto/internal/dataaccess"
	"buscalisto/internal/domain/models"
)

// Hooks builds one Query per data access operation. Queries built with
// the same arguments share a cache key.
type Hooks struct {
	c   *Client
	svc *dataaccess.Service
}

func NewHooks(c *Client, svc *dataaccess.Service) *Hooks {
	return &Hooks{c: c, svc: svc}
}

func (h *Hooks) Client() *Client { return h.c }

func (h *Hooks) key(resource string, r endpoints.Request) string {
	if api := h.svc.API(); api != nil {
		if u, err := api.URL(r); err == nil {
			return u
		}
	}
	return Key(resource, r.Path, r.Params)
}

func list[T any](fn func(ctx context.Context) dataaccess.Result[T]) FetchFunc[T] {
	return func(ctx context.Context) (dataaccess.Result[T], error) {
		return fn(ctx), nil
	}
}

func (h *Hooks) Recent(limit int) *Query[[]models.Product] {
	return NewQuery(h.c, dataaccess.ResRecent, h.key(dataaccess.ResRecent, endpoints.RecentRequest(limit)),
		list(func(ctx context.Context) dataaccess.Result[[]models.Product] { return h.svc.Recent(ctx, limit) }))
}

func (h *Hooks) MostViewed(limit int) *Query[[]models.Product] {
	return NewQuery(h.c, dataaccess.ResMostViewed, h.key(dataaccess.ResMostViewed, endpoints.MostViewedRequest(limit)),
		list(func(ctx context.Context) dataaccess.Result[[]models.Product] { return h.svc.MostViewed(ctx, limit) }))
}

func (h *Hooks) Deals(limit int) *Query[[]models.Deal] {
	return NewQuery(h.c, dataaccess.ResDeals, h.key(dataaccess.ResDeals, endpoints.DealsRequest(limit)),
		list(func(ctx context.Context) dataaccess.Result[[]models.Deal] { return h.svc.Deals(ctx, limit) }))
}

func (h *Hooks) ByCategory(key string, limit int) *Query[[]models.Product] {
	return NewQuery(h.c, dataaccess.ResByCategory, h.key(dataaccess.ResByCategory, endpoints.ByCategoryRequest(key, limit)),
		list(func(ctx context.Context) dataaccess.Result[[]models.Product] {
			return h.svc.ByCategory(ctx, key, limit)
		}))
}

func (h *Hooks) Search(q models.ProductQuery) *Query[models.Page[models.Product]] {
	return NewQuery(h.c, dataaccess.ResSearch, h.key(dataaccess.ResSearch, endpoints.SearchRequest(q)),
		list(func(ctx context.Context) dataaccess.Result[models.Page[models.Product]] { return h.svc.Search(ctx, q) }))
}

func (h *Hooks) All(q models.ProductQuery) *Query[models.Page[models.Product]] {
	return NewQuery(h.c, dataaccess.ResAll, h.key(dataaccess.ResAll, endpoints.AllRequest(q)),
		list(func(ctx context.Context) dataaccess.Result[models.Page[models.Product]] { return h.svc.All(ctx, q) }))
}

func (h *Hooks) Filtered(q models.ProductQuery) *Query[models.Page[models.Product]] {
	return NewQuery(h.c, dataaccess.ResFiltered, h.key(dataaccess.ResFiltered, endpoints.FilteredRequest(q)),
		list(func(ctx context.Context) dataaccess.Result[models.Page[models.Product]] {
			return h.svc.Filtered(ctx, q)
		}))
}

func (h *Hooks) PopularCategories(limit int) *Query[[]models.PopularCategory] {
	return NewQuery(h.c, dataaccess.ResPopularCategories, h.key(dataaccess.ResPopularCategories, endpoints.PopularCategoriesRequest(limit)),
		list(func(ctx context.Context) dataaccess.Result[[]models.PopularCategory] {
			return h.svc.PopularCategories(ctx, limit)
		}))
}

func (h *Hooks) Categories() *Query[[]models.Category] {
	return NewQuery(h.c, dataaccess.ResCategories, h.key(dataaccess.ResCategories, endpoints.CategoriesRequest()),
		list(h.svc.Categories))
}

func (h *Hooks) ProductDetail(id models.ProductID) *Query[models.Product] {
	return NewQuery(h.c, dataaccess.ResDetail, h.key(dataaccess.ResDetail, endpoints.ProductDetailRequest(id)),
		func(ctx context.Context) (dataaccess.Result[models.Product], error) {
			return h.svc.ProductDetail(ctx, id)
		})
}

func (h *Hooks) StoreByName(name string) *Query[models.Store] {
	return NewQuery(h.c, dataaccess.ResStore, h.key(dataaccess.ResStore, endpoints.StoreRequest(name)),
		func(ctx context.Context) (dataaccess.Result[models.Store], error) {
			return h.svc.StoreByName(ctx, name)
		})
}
