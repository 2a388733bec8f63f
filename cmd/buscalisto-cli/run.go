package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"buscalisto/internal/bootstrap"
	"buscalisto/internal/domain/models"
	"buscalisto/internal/query"
	"buscalisto/internal/repository"
)

type params struct {
	Resource string
	Limit    int
	Page     int
	Category string
	Term     string
	SortBy   string
	Order    string
	MinPrice string
	MaxPrice string
	ID       string
	Store    string
}

var resources = []string{
	"recent", "most-viewed", "deals", "category", "search", "all", "filter",
	"popular-categories", "categories", "detail", "store", "plans", "status",
}

func (p params) productQuery() (models.ProductQuery, error) {
	q := models.ProductQuery{
		Category: strings.ToLower(strings.TrimSpace(p.Category)),
		Term:     p.Term,
		Page:     p.Page,
		Limit:    p.Limit,
		SortBy:   models.ParseSortKey(p.SortBy),
	}
	if q.SortBy != models.SortNone {
		q.Order = models.ParseSortOrder(p.Order)
	}
	var err error
	if q.MinPrice, err = price("min-price", p.MinPrice); err != nil {
		return q, err
	}
	if q.MaxPrice, err = price("max-price", p.MaxPrice); err != nil {
		return q, err
	}
	return q, nil
}

func run(ctx context.Context, app *bootstrap.App, p params) (repository.QueryResult, error) {
	h := app.Hooks
	now := time.Now().UTC().Format(time.RFC3339)

	switch p.Resource {
	case "recent":
		return fromState(p.Resource, h.Recent(p.Limit).Wait(ctx))
	case "most-viewed":
		return fromState(p.Resource, h.MostViewed(p.Limit).Wait(ctx))
	case "deals":
		return fromState(p.Resource, h.Deals(p.Limit).Wait(ctx))
	case "category":
		if p.Category == "" {
			return repository.QueryResult{}, fmt.Errorf("--category is required")
		}
		return fromState(p.Resource, h.ByCategory(p.Category, p.Limit).Wait(ctx))
	case "search", "all", "filter":
		q, err := p.productQuery()
		if err != nil {
			return repository.QueryResult{}, err
		}
		build := map[string]func(models.ProductQuery) *query.Query[models.Page[models.Product]]{
			"search": h.Search,
			"all":    h.All,
			"filter": h.Filtered,
		}[p.Resource]
		st := build(q).Wait(ctx)
		res, err := fromState(p.Resource, st)
		res.Count = len(st.Data.Items)
		return res, err
	case "popular-categories":
		return fromState(p.Resource, h.PopularCategories(p.Limit).Wait(ctx))
	case "categories":
		return fromState(p.Resource, h.Categories().Wait(ctx))
	case "detail":
		if p.ID == "" {
			return repository.QueryResult{}, fmt.Errorf("--id is required")
		}
		return fromState(p.Resource, h.ProductDetail(models.ProductID(p.ID)).Wait(ctx))
	case "store":
		if p.Store == "" {
			return repository.QueryResult{}, fmt.Errorf("--store is required")
		}
		return fromState(p.Resource, h.StoreByName(p.Store).Wait(ctx))
	case "plans":
		plans := app.Service.Plans()
		return repository.QueryResult{FetchedAt: now, Resource: p.Resource, Count: len(plans), Data: plans}, nil
	case "status":
		st := app.Prober.Check(ctx)
		return repository.QueryResult{FetchedAt: now, Resource: p.Resource, Count: 1, Data: st}, nil
	default:
		return repository.QueryResult{}, fmt.Errorf("unknown resource %q (expected one of %s)", p.Resource, strings.Join(resources, ", "))
	}
}

func fromState[T any](resource string, st query.State[T]) (repository.QueryResult, error) {
	if st.Err != nil {
		return repository.QueryResult{}, st.Err
	}
	return repository.QueryResult{
		FetchedAt: st.FetchedAt.UTC().Format(time.RFC3339),
		Resource:  resource,
		Source:    string(st.Source),
		View:      string(st.View()),
		Count:     count(st.Data),
		Data:      st.Data,
	}, nil
}

func count(v any) int {
	switch d := v.(type) {
	case []models.Product:
		return len(d)
	case []models.Deal:
		return len(d)
	case []models.PopularCategory:
		return len(d)
	case []models.Category:
		return len(d)
	default:
		return 1
	}
}
