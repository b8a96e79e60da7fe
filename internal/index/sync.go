package index

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/pantry/internal/checksum"
	"github.com/starford/pantry/internal/parser"
	"github.com/starford/pantry/internal/storage"
)

// Indexer captures listing pages from the site into the catalogue.
type Indexer struct {
	cat    Catalog
	store  storage.Provider
	sel    parser.Selectors
	logger *slog.Logger
}

// NewIndexer returns an Indexer that captures cards with sel.
func NewIndexer(cat Catalog, store storage.Provider, sel parser.Selectors, logger *slog.Logger) *Indexer {
	return &Indexer{cat: cat, store: store, sel: sel, logger: logger}
}

// Sync walks the site and brings the catalogue up to date. Pages whose
// checksum changed are captured again; pages gone from disk are removed.
// A page that fails to capture is logged and skipped.
func (ix *Indexer) Sync() error {
	metas, err := ix.store.List("")
	if err != nil {
		return fmt.Errorf("index: sync list: %w", err)
	}
	known, err := ix.cat.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if known[m.Path] == m.Checksum {
			continue
		}
		if _, err := ix.Capture(m.Path); err != nil {
			ix.logger.Warn("sync: capture failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		ix.logger.Debug("sync: captured", slog.String("path", m.Path))
	}

	for p := range known {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := ix.cat.DeletePage(p); err != nil {
			ix.logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		ix.logger.Debug("sync: removed stale", slog.String("path", p))
	}
	return nil
}

// Capture reads a page, parses its cards and stores them. It returns the
// number of records captured.
func (ix *Indexer) Capture(path string) (int, error) {
	data, err := ix.store.Read(path)
	if err != nil {
		return 0, err
	}
	res, err := parser.Parse(data, ix.sel)
	if err != nil {
		return 0, err
	}
	row := PageRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now().UTC(),
	}
	if err := ix.cat.UpsertPage(row, res.Records); err != nil {
		return 0, err
	}
	return len(res.Records), nil
}
