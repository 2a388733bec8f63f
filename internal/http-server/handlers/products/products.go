package products

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"buscalisto/internal/dataaccess"
	"buscalisto/internal/domain/models"
	httpquery "buscalisto/internal/http-server/query"
	"buscalisto/internal/http-server/respond"
	"buscalisto/internal/query"
)

const (
	DefaultLimit = 8
	MaxLimit     = 100
)

type Queries interface {
	Recent(limit int) *query.Query[[]models.Product]
	MostViewed(limit int) *query.Query[[]models.Product]
	Deals(limit int) *query.Query[[]models.Deal]
	ByCategory(key string, limit int) *query.Query[[]models.Product]
	Search(q models.ProductQuery) *query.Query[models.Page[models.Product]]
	All(q models.ProductQuery) *query.Query[models.Page[models.Product]]
	Filtered(q models.ProductQuery) *query.Query[models.Page[models.Product]]
	ProductDetail(id models.ProductID) *query.Query[models.Product]
}

type Options struct {
	Log     *slog.Logger
	Queries Queries
	Timeout time.Duration
}

type Handlers struct {
	log     *slog.Logger
	q       Queries
	timeout time.Duration
}

func New(opts Options) *Handlers {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Handlers{log: opts.Log, q: opts.Queries, timeout: opts.Timeout}
}

func (h *Handlers) Recent(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, dataaccess.ResRecent, h.q.Recent)
}

func (h *Handlers) MostViewed(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, dataaccess.ResMostViewed, h.q.MostViewed)
}

func (h *Handlers) Deals(w http.ResponseWriter, r *http.Request) {
	limit, err := httpquery.Bounded(r, DefaultLimit, MaxLimit, "limit", "limite")
	if err != nil {
		respond.WriteBadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	respond.WriteState(w, h.log, dataaccess.ResDeals, h.q.Deals(limit).Wait(ctx))
}

func (h *Handlers) ByCategory(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.PathValue("key"))
	if key == "" {
		respond.WriteBadRequest(w, fmt.Errorf("category key is required"))
		return
	}
	h.list(w, r, dataaccess.ResByCategory, func(limit int) *query.Query[[]models.Product] {
		return h.q.ByCategory(key, limit)
	})
}

func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, dataaccess.ResSearch, h.q.Search)
}

func (h *Handlers) All(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, dataaccess.ResAll, h.q.All)
}

func (h *Handlers) Filtered(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, dataaccess.ResFiltered, h.q.Filtered)
}

func (h *Handlers) Detail(w http.ResponseWriter, r *http.Request) {
	id := models.ProductID(strings.TrimSpace(r.PathValue("id")))
	if id == "" {
		respond.WriteBadRequest(w, fmt.Errorf("product id is required"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	respond.WriteState(w, h.log, dataaccess.ResDetail, h.q.ProductDetail(id).Wait(ctx))
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request, resource string, build func(limit int) *query.Query[[]models.Product]) {
	limit, err := httpquery.Bounded(r, DefaultLimit, MaxLimit, "limit", "limite")
	if err != nil {
		respond.WriteBadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	respond.WriteState(w, h.log, resource, build(limit).Wait(ctx))
}

func (h *Handlers) page(w http.ResponseWriter, r *http.Request, resource string, build func(q models.ProductQuery) *query.Query[models.Page[models.Product]]) {
	pq, err := ParseProductQuery(r)
	if err != nil {
		respond.WriteBadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	respond.WriteState(w, h.log, resource, build(pq).Wait(ctx))
}

// ParseProductQuery reads the listing parameters. English names are
// canonical; the Spanish names older clients send are accepted too.
func ParseProductQuery(r *http.Request) (models.ProductQuery, error) {
	var pq models.ProductQuery

	page, err := httpquery.Bounded(r, 1, 10_000, "page", "pagina")
	if err != nil {
		return pq, err
	}
	limit, err := httpquery.Bounded(r, 0, MaxLimit, "limit", "limite")
	if err != nil {
		return pq, err
	}
	minPrice, err := httpquery.DecimalAny(r, "minPrice", "precioMin")
	if err != nil {
		return pq, err
	}
	maxPrice, err := httpquery.DecimalAny(r, "maxPrice", "precioMax")
	if err != nil {
		return pq, err
	}
	if minPrice != nil && maxPrice != nil && minPrice.GreaterThan(*maxPrice) {
		return pq, fmt.Errorf("minPrice must not exceed maxPrice")
	}

	pq = models.ProductQuery{
		Category: strings.ToLower(httpquery.StringAny(r, "category", "categoria")),
		Term:     httpquery.StringAny(r, "q", "busqueda"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Page:     page,
		Limit:    limit,
		SortBy:   models.ParseSortKey(httpquery.StringAny(r, "sortBy", "ordenarPor")),
	}
	if pq.SortBy != models.SortNone {
		pq.Order = models.ParseSortOrder(httpquery.StringAny(r, "sortOrder", "orden"))
	}
	return pq, nil
}
