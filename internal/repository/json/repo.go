package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"buscalisto/internal/catalog"
	"buscalisto/internal/repository"
)

// Repo writes JSON documents to Path. Writes go through a temp file and
// a rename so readers never see a partial document.
type Repo struct {
	Path string
	Log  *slog.Logger
}

func New(path string, log *slog.Logger) *Repo {
	if log == nil {
		log = slog.Default()
	}
	return &Repo{Path: path, Log: log}
}

func (r *Repo) Save(ctx context.Context, res repository.QueryResult) error {
	if err := r.saveAny(ctx, res); err != nil {
		return err
	}
	r.Log.Info("json saved", "path", r.Path, "resource", res.Resource, "count", res.Count)
	return nil
}

// SaveDataset writes ds in the fallback dataset format, loadable with
// catalog.LoadFile.
func (r *Repo) SaveDataset(ctx context.Context, ds catalog.Dataset, stats repository.SnapshotStats) error {
	if err := r.saveAny(ctx, ds); err != nil {
		return err
	}
	r.Log.Info("dataset saved",
		"path", r.Path,
		"suppliers", stats.Suppliers,
		"products", stats.Products,
		"pages", stats.Pages,
		"skipped", stats.Skipped,
	)
	return nil
}

func (r *Repo) saveAny(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Path == "" {
		return fmt.Errorf("jsonfile repo: empty path")
	}

	dir := filepath.Dir(r.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("jsonfile repo: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(r.Path)+"-*")
	if err != nil {
		return fmt.Errorf("jsonfile repo: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op after a successful rename

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		return fmt.Errorf("jsonfile repo: encode: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("jsonfile repo: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("jsonfile repo: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("jsonfile repo: %w", err)
	}
	return os.Rename(tmp, r.Path)
}
