// Package bootstrap assembles the data access stack from a config
// profile. Every command builds its App here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"buscalisto/internal/apis/marketplace"
	"buscalisto/internal/catalog"
	"buscalisto/internal/client/transport"
	"buscalisto/internal/config"
	"buscalisto/internal/dataaccess"
	"buscalisto/internal/health"
	"buscalisto/internal/metrics"
	"buscalisto/internal/query"
	"buscalisto/internal/taxonomy"
)

type App struct {
	Config   *config.Config
	Log      *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Transport  transport.Transport
	HTTPClient *http.Client
	API        marketplace.API
	Taxonomy   *taxonomy.Taxonomy
	Catalog    *catalog.Catalog
	Prober     *health.Prober
	Monitor    *health.Monitor
	Service    *dataaccess.Service
	Query      *query.Client
	Hooks      *query.Hooks

	closers []func() error
}

type Options struct {
	// Workers overrides http.workers when > 0.
	Workers int

	// Retries is the transport-level retry budget. Commands that read
	// through the query layer leave it at 0 so each query policy's
	// Retries is the only one. The snapshot crawl, which calls the API
	// directly, passes http.retries.
	Retries int
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger, opts Options) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	a := &App{Config: cfg, Log: log, Registry: reg, Metrics: m}

	tax := taxonomy.Default()
	if len(cfg.Categories) > 0 {
		t, err := taxonomy.New(cfg.Categories)
		if err != nil {
			return nil, fmt.Errorf("categories: %w", err)
		}
		tax = t
	}
	a.Taxonomy = tax

	tr, hc, err := BuildTransport(cfg, log, opts.Workers, opts.Retries, m.ObserveUpstream)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	a.Transport, a.HTTPClient = tr, hc

	a.API = marketplace.New(tr, marketplace.Options{
		BaseURL:   cfg.API.Host,
		UserAgent: cfg.API.UserAgent,
		Taxonomy:  tax,
		Logger:    log,
	})

	cat, err := loadCatalog(cfg.Fallback.DatasetPath, tax, log)
	if err != nil {
		return nil, err
	}
	m.SetDatasetSize(cat.Len())
	a.Catalog = cat

	a.Prober = health.NewProber(a.API, cfg.Health.Timeout, m, log)
	a.Monitor = health.NewMonitor(a.Prober, cfg.Health.Interval, log)

	a.Service = dataaccess.New(a.API, a.Prober, cat, dataaccess.Options{
		Delay:   dataaccess.FallbackDelay{Min: cfg.Fallback.DelayMin, Max: cfg.Fallback.DelayMax},
		Metrics: m,
		Logger:  log,
	})

	pol, err := policies(cfg.Query.Policies)
	if err != nil {
		return nil, err
	}

	a.Query = query.NewClient(query.Options{
		Policies:   pol,
		Store:      a.store(ctx),
		RetryDelay: cfg.Query.RetryDelay,
		Metrics:    m,
		Logger:     log,
	})
	a.Hooks = query.NewHooks(a.Query, a.Service)

	return a, nil
}

func loadCatalog(path string, tax *taxonomy.Taxonomy, log *slog.Logger) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.LoadDefault(tax, log)
	}
	cat, err := catalog.LoadFile(path, tax, log)
	if err != nil {
		return nil, fmt.Errorf("fallback dataset %s: %w", path, err)
	}
	log.Info("fallback dataset loaded", "path", path, "products", cat.Len())
	return cat, nil
}

func policies(in map[string]config.PolicyConfig) (query.Policies, error) {
	over := make(query.Policies, len(in))
	for k, v := range in {
		over[k] = query.Policy{StaleTime: v.StaleTime, Retries: v.Retries}
	}
	p, err := query.DefaultPolicies().With(over)
	if err != nil {
		return nil, fmt.Errorf("query policies: %w", err)
	}
	return p, nil
}

// store picks redis when configured and reachable, else the in-process store.
func (a *App) store(ctx context.Context) query.Store {
	url := a.Config.Cache.RedisURL
	if url == "" {
		return query.NewMemoryStore(a.Config.Cache.MaxEntries)
	}
	rs, err := query.NewRedisStore(ctx, url)
	if err != nil {
		a.Log.Warn("redis cache unavailable, using memory", "err", err)
		return query.NewMemoryStore(a.Config.Cache.MaxEntries)
	}
	a.closers = append(a.closers, rs.Close)
	a.Log.Info("redis cache ON")
	return rs
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
