package stores

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"buscalisto/internal/dataaccess"
	"buscalisto/internal/domain/models"
	"buscalisto/internal/http-server/respond"
	"buscalisto/internal/query"
)

type Queries interface {
	StoreByName(name string) *query.Query[models.Store]
}

type Options struct {
	Log     *slog.Logger
	Queries Queries
	Timeout time.Duration
}

func NewGetHandler(opts Options) http.HandlerFunc {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.PathValue("name"))
		if name == "" {
			respond.WriteError(w, http.StatusBadRequest, "bad_request", "store name is required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), opts.Timeout)
		defer cancel()

		respond.WriteState(w, log, dataaccess.ResStore, opts.Queries.StoreByName(name).Wait(ctx))
	}
}
