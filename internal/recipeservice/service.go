// Package recipeservice coordinates the catalogue, filter passes and sessions.
package recipeservice

import (
	"context"
	"fmt"

	"github.com/starford/pantry/internal/apperr"
	"github.com/starford/pantry/internal/filter"
	"github.com/starford/pantry/internal/index"
	"github.com/starford/pantry/internal/models"
	"github.com/starford/pantry/internal/parser"
	"github.com/starford/pantry/internal/session"
)

// PageListItem is a lightweight item in a page listing.
type PageListItem = index.PageRow

// FilterResult is the outcome of a one-shot pass over a page.
type FilterResult struct {
	Page    string          `json:"page"`
	Title   string          `json:"title"`
	Records []models.Record `json:"records"`
	filter.Result
}

// Service coordinates catalogue and session operations.
type Service struct {
	cat      index.Catalog
	sessions *session.Manager
}

// NewService creates a recipe service. sessions may be nil when only
// stateless operations are needed.
func NewService(cat index.Catalog, sessions *session.Manager) *Service {
	return &Service{cat: cat, sessions: sessions}
}

// ListPages returns every captured page.
func (s *Service) ListPages(_ context.Context) ([]PageListItem, error) {
	return s.cat.ListPages()
}

// GetPage returns a captured page with its records.
func (s *Service) GetPage(_ context.Context, path string) (*models.Page, error) {
	if path == "" {
		return nil, fmt.Errorf("recipeservice: page path is empty: %w", apperr.ErrInvalidInput)
	}
	return s.cat.GetPage(path)
}

// Filter runs a single pass over a captured page.
func (s *Service) Filter(ctx context.Context, path string, in filter.Inputs) (*FilterResult, error) {
	p, err := s.GetPage(ctx, path)
	if err != nil {
		return nil, err
	}
	return run(p.Path, p.Title, p.Records, in), nil
}

// OpenSession starts a filter session over a snapshot of a captured page.
func (s *Service) OpenSession(ctx context.Context, path string) (*session.Session, error) {
	if s.sessions == nil {
		return nil, fmt.Errorf("recipeservice: sessions disabled: %w", apperr.ErrClosed)
	}
	p, err := s.GetPage(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.sessions.Create(p.Path, p.Records)
}

// Session returns a live session.
func (s *Service) Session(id string) (*session.Session, error) {
	if s.sessions == nil {
		return nil, fmt.Errorf("session %q: %w", id, apperr.ErrNotFound)
	}
	return s.sessions.Get(id)
}

// CloseSession stops a live session.
func (s *Service) CloseSession(id string) error {
	if s.sessions == nil {
		return fmt.Errorf("session %q: %w", id, apperr.ErrNotFound)
	}
	return s.sessions.Delete(id)
}

// FilterDocument captures an uncatalogued page and runs a single pass over
// it. name only labels the result.
func FilterDocument(name string, data []byte, sel parser.Selectors, in filter.Inputs) (*FilterResult, error) {
	res, err := parser.Parse(data, sel)
	if err != nil {
		return nil, fmt.Errorf("recipeservice: capture %s: %w", name, err)
	}
	return run(name, res.Title, res.Records, in), nil
}

func run(page, title string, records []models.Record, in filter.Inputs) *FilterResult {
	st := filter.NewPageState(records)
	return &FilterResult{
		Page:    page,
		Title:   title,
		Records: st.Records(),
		Result:  st.Apply(in),
	}
}
