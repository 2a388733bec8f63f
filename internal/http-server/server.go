package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"buscalisto/internal/http-server/handlers/categories"
	"buscalisto/internal/http-server/handlers/products"
	"buscalisto/internal/http-server/handlers/status"
	"buscalisto/internal/http-server/handlers/stores"
	"buscalisto/internal/http-server/middleware"
)

type Server struct {
	log     *slog.Logger
	mux     *http.ServeMux
	observe middleware.ObserveFunc
}

func New(log *slog.Logger, observe middleware.ObserveFunc) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{log: log, mux: http.NewServeMux(), observe: observe}
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = middleware.Observe(s.observe, h)
	h = middleware.WithRequestID(h)
	h = middleware.RecoverPanic(s.log, h)
	h = middleware.AccessLog(s.log, h)
	return h
}

// Queries is the full set of cached queries the routes read from.
type Queries interface {
	products.Queries
	categories.Queries
	stores.Queries
}

type Deps struct {
	Queries     Queries
	Monitor     status.Monitor
	Plans       status.PlanLister
	DatasetSize int
	Gatherer    prometheus.Gatherer
	Timeout     time.Duration
}

func (s *Server) RegisterRoutes(dep Deps) {
	ph := products.New(products.Options{Log: s.log, Queries: dep.Queries, Timeout: dep.Timeout})
	s.mux.HandleFunc("GET /api/products", ph.All)
	s.mux.HandleFunc("GET /api/products/recent", ph.Recent)
	s.mux.HandleFunc("GET /api/products/most-viewed", ph.MostViewed)
	s.mux.HandleFunc("GET /api/products/deals", ph.Deals)
	s.mux.HandleFunc("GET /api/products/category/{key}", ph.ByCategory)
	s.mux.HandleFunc("GET /api/products/search", ph.Search)
	s.mux.HandleFunc("GET /api/products/filter", ph.Filtered)
	s.mux.HandleFunc("GET /api/products/{id}", ph.Detail)

	co := categories.Options{Log: s.log, Queries: dep.Queries, Timeout: dep.Timeout}
	s.mux.HandleFunc("GET /api/categories", categories.NewListHandler(co))
	s.mux.HandleFunc("GET /api/categories/popular", categories.NewPopularHandler(co))

	s.mux.HandleFunc("GET /api/stores/{name}", stores.NewGetHandler(stores.Options{
		Log:     s.log,
		Queries: dep.Queries,
		Timeout: dep.Timeout,
	}))

	if dep.Plans != nil {
		s.mux.HandleFunc("GET /api/plans", status.NewPlansHandler(dep.Plans))
	}
	if dep.Monitor != nil {
		s.mux.HandleFunc("GET /api/status", status.NewStatusHandler(dep.Monitor, dep.DatasetSize))
	}
	if dep.Gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(dep.Gatherer, promhttp.HandlerOpts{}))
	}
}
