package categories

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"buscalisto/internal/dataaccess"
	"buscalisto/internal/domain/models"
	httpquery "buscalisto/internal/http-server/query"
	"buscalisto/internal/http-server/respond"
	"buscalisto/internal/query"
)

const (
	DefaultPopularLimit = 6
	MaxPopularLimit     = 50
)

type Queries interface {
	PopularCategories(limit int) *query.Query[[]models.PopularCategory]
	Categories() *query.Query[[]models.Category]
}

type Options struct {
	Log     *slog.Logger
	Queries Queries
	Timeout time.Duration
}

func NewPopularHandler(opts Options) http.HandlerFunc {
	log, timeout := defaults(opts)

	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := httpquery.Bounded(r, DefaultPopularLimit, MaxPopularLimit, "limit", "limite")
		if err != nil {
			respond.WriteBadRequest(w, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		respond.WriteState(w, log, dataaccess.ResPopularCategories, opts.Queries.PopularCategories(limit).Wait(ctx))
	}
}

func NewListHandler(opts Options) http.HandlerFunc {
	log, timeout := defaults(opts)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		respond.WriteState(w, log, dataaccess.ResCategories, opts.Queries.Categories().Wait(ctx))
	}
}

func defaults(opts Options) (*slog.Logger, time.Duration) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return log, opts.Timeout
}
