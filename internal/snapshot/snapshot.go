// Package snapshot crawls the marketplace product listing and rebuilds
// the fallback dataset from it.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"buscalisto/internal/catalog"
	"buscalisto/internal/domain/models"
	"buscalisto/internal/repository"
)

// Lister is the single marketplace call a crawl needs.
type Lister interface {
	All(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], error)
}

type Options struct {
	Workers  int
	PageSize int
	MaxPages int
	Progress time.Duration
	Logger   *slog.Logger
}

type Crawler struct {
	api      Lister
	workers  int
	pageSize int
	maxPages int
	progress time.Duration
	log      *slog.Logger
}

func New(api Lister, opts Options) *Crawler {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 200
	}
	if opts.Progress <= 0 {
		opts.Progress = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Crawler{
		api:      api,
		workers:  opts.Workers,
		pageSize: opts.PageSize,
		maxPages: opts.MaxPages,
		progress: opts.Progress,
		log:      opts.Logger,
	}
}

// Run fetches page 1 to learn the page count, then the remaining pages
// concurrently. A failed first page fails the crawl; later failures are
// logged and counted as skipped.
func (c *Crawler) Run(ctx context.Context) (catalog.Dataset, repository.SnapshotStats, error) {
	stats := repository.SnapshotStats{FetchedAt: time.Now().UTC().Format(time.RFC3339)}

	first, err := c.api.All(ctx, models.ProductQuery{Page: 1, Limit: c.pageSize})
	if err != nil {
		return catalog.Dataset{}, stats, fmt.Errorf("snapshot first page: %w", err)
	}

	total := min(max(first.TotalPages, 1), c.maxPages)
	if first.TotalPages > c.maxPages {
		c.log.Warn("snapshot truncated", "total_pages", first.TotalPages, "max_pages", c.maxPages)
	}

	pages := make([][]models.Product, total)
	pages[0] = first.Items

	var fetched, skipped atomic.Int64
	fetched.Add(1)

	jobs := make(chan int, c.workers)
	var wg sync.WaitGroup
	for range c.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				pg, err := c.api.All(ctx, models.ProductQuery{Page: n, Limit: c.pageSize})
				if err != nil {
					skipped.Add(1)
					c.log.Warn("snapshot page failed", "page", n, "err", err)
					continue
				}
				pages[n-1] = pg.Items
				fetched.Add(1)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		t := time.NewTicker(c.progress)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				c.log.Info("snapshot progress", "fetched", fetched.Load(), "skipped", skipped.Load(), "pages", total)
			case <-done:
				return
			}
		}
	}()

feed:
	for n := 2; n <= total; n++ {
		select {
		case jobs <- n:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(done)

	if err := ctx.Err(); err != nil {
		return catalog.Dataset{}, stats, err
	}

	all := make([]models.Product, 0, total*c.pageSize)
	for _, ps := range pages {
		all = append(all, ps...)
	}
	ds := catalog.Regroup(all)

	stats.Pages = int(fetched.Load())
	stats.Skipped = int(skipped.Load())
	stats.Suppliers = len(ds.Suppliers)
	for _, s := range ds.Suppliers {
		for _, b := range s.Branches {
			stats.Products += len(b.Products)
		}
	}
	return ds, stats, nil
}
