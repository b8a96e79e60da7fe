package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/pantry/internal/export"
	"github.com/starford/pantry/internal/filter"
	"github.com/starford/pantry/internal/recipeservice"
)

// FilterRequest describes a one-shot pass over a page file.
type FilterRequest struct {
	// Page is a listing page on disk; it need not live in the site.
	Page   string
	Inputs filter.Inputs
	// Out, when set, receives the result as .csv or .xlsx instead of w.
	Out string
}

// RunFilter captures req.Page with the configured selectors, runs one pass
// and writes the result as JSON to w or exports it to req.Out.
func RunFilter(_ context.Context, w io.Writer, req FilterRequest, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.loggerTo(os.Stderr)

	data, err := os.ReadFile(req.Page)
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}
	res, err := recipeservice.FilterDocument(filepath.Base(req.Page), data, app.config.Capture.Selectors, req.Inputs)
	if err != nil {
		return err
	}
	logger.Debug("filter: pass applied",
		slog.String("page", req.Page),
		slog.Int("records", len(res.Records)),
		slog.Int("visible", res.VisibleCount))

	if req.Out != "" {
		if err := export.WriteFile(req.Out, res.Records, res.Result); err != nil {
			return err
		}
		logger.Info("filter: exported", slog.String("out", req.Out), slog.String("label", res.Label))
		return nil
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}
