package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"buscalisto/internal/bootstrap"
	"buscalisto/internal/config"
	"buscalisto/internal/logger"
	jsonfile "buscalisto/internal/repository/json"
	"buscalisto/internal/snapshot"
)

func main() {
	var (
		configPath = flag.String("config", "./config/config.yaml", "path to config.yaml")
		workers    = flag.Int("workers", 0, "concurrent page fetchers (default from config)")
		pageSize   = flag.Int("page-size", 0, "products per page (default from config)")
		maxPages   = flag.Int("max-pages", 0, "stop after this many pages (default from config)")
		outPath    = flag.String("out", "", "output dataset file (default from config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
		Env:       cfg.Env,
	})
	slog.SetDefault(log)

	if *workers > 0 {
		cfg.Snapshot.Workers = *workers
	}
	if *pageSize > 0 {
		cfg.Snapshot.PageSize = *pageSize
	}
	if *maxPages > 0 {
		cfg.Snapshot.MaxPages = *maxPages
	}
	if *outPath != "" {
		cfg.Snapshot.OutputFile = *outPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{
		Workers: cfg.Snapshot.Workers,
		Retries: cfg.HTTP.Retries,
	})
	if err != nil {
		log.Error("bootstrap failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	if st := app.Prober.Check(ctx); !st.Available {
		log.Error("marketplace API unavailable, nothing to snapshot", "err", st.Err)
		os.Exit(1)
	}

	crawler := snapshot.New(app.API, snapshot.Options{
		Workers:  cfg.Snapshot.Workers,
		PageSize: cfg.Snapshot.PageSize,
		MaxPages: cfg.Snapshot.MaxPages,
		Logger:   log,
	})

	ds, stats, err := crawler.Run(ctx)
	if err != nil {
		log.Error("snapshot failed", "err", err)
		os.Exit(1)
	}

	repo := jsonfile.New(cfg.Snapshot.OutputFile, log)
	if err := repo.SaveDataset(ctx, ds, stats); err != nil {
		log.Error("save dataset failed", "err", err)
		os.Exit(1)
	}

	log.Info("done", "env", cfg.Env, "products", stats.Products, "suppliers", stats.Suppliers, "out", cfg.Snapshot.OutputFile)
}
