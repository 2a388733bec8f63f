package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"

	"buscalisto/internal/bootstrap"
	"buscalisto/internal/config"
	"buscalisto/internal/logger"
	jsonfile "buscalisto/internal/repository/json"
)

func main() {
	var p params
	configPath := flag.String("config", "./config/config.yaml", "path to config.yaml")
	outputFile := flag.StringP("out", "o", "", `output file, "-" for stdout (default from config)`)
	flag.StringVarP(&p.Resource, "resource", "r", "recent", "one of: "+strings.Join(resources, ", "))
	flag.IntVar(&p.Limit, "limit", 8, "max items for list resources")
	flag.IntVar(&p.Page, "page", 1, "page for search, all and filter")
	flag.StringVar(&p.Category, "category", "", "category key")
	flag.StringVar(&p.Term, "q", "", "search term")
	flag.StringVar(&p.SortBy, "sort-by", "", "price|name|popularity")
	flag.StringVar(&p.Order, "order", "asc", "asc|desc")
	flag.StringVar(&p.MinPrice, "min-price", "", "lower price bound for filter")
	flag.StringVar(&p.MaxPrice, "max-price", "", "upper price bound for filter")
	flag.StringVar(&p.ID, "id", "", "product id for detail")
	flag.StringVar(&p.Store, "store", "", "store name for store")
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
		Writer:    os.Stderr,
	})
	slog.SetDefault(log)

	if *outputFile != "" {
		cfg.CLI.OutputFile = *outputFile
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.TimeoutSeconds)*time.Second)
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{})
	if err != nil {
		log.Error("bootstrap failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	res, err := run(ctx, app, p)
	if err != nil {
		log.Error("query failed", "resource", p.Resource, "err", err)
		os.Exit(1)
	}

	if cfg.CLI.OutputFile == "-" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Error("write stdout failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := jsonfile.New(cfg.CLI.OutputFile, log).Save(ctx, res); err != nil {
		log.Error("save json failed", "err", err)
		os.Exit(1)
	}

	log.Info("done",
		"env", cfg.Env,
		"resource", res.Resource,
		"source", res.Source,
		"count", res.Count,
		"output", cfg.CLI.OutputFile,
	)
}

func price(name, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &d, nil
}
