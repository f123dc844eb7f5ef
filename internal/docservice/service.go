// Package docservice coordinates the course store, the catalog and the
// derivation engine for the HTTP and MCP surfaces.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/starford/clm/internal/apperr"
	"github.com/starford/clm/internal/course"
	"github.com/starford/clm/internal/diag"
	"github.com/starford/clm/internal/dirkind"
	"github.com/starford/clm/internal/index"
	"github.com/starford/clm/internal/models"
	"github.com/starford/clm/internal/notebook"
	"github.com/starford/clm/internal/storage"
	"github.com/starford/clm/internal/titles"
	"github.com/starford/clm/internal/variant"
)

// VariantDocument is one derived document rendered in its source format.
type VariantDocument struct {
	Path    string          `json:"path"`
	Variant variant.Variant `json:"variant"`
	Name    string          `json:"name"`
	Cells   int             `json:"cells"`
	Content string          `json:"content"`
}

// Classification is the classifier's answer for one path.
type Classification struct {
	Path    string        `json:"path"`
	Label   dirkind.Label `json:"label"`
	Descend bool          `json:"descend"`
	Policy  dirkind.Kind  `json:"policy"`
}

// Service coordinates storage and catalog operations.
type Service struct {
	store     storage.Provider
	db        index.Catalog
	rules     course.Rules
	languages []string
}

// NewService creates a new document service.
func NewService(store storage.Provider, db index.Catalog, rules course.Rules, languages []string) *Service {
	return &Service{store: store, db: db, rules: rules, languages: languages}
}

// Languages returns the configured output languages.
func (s *Service) Languages() []string {
	return append([]string(nil), s.languages...)
}

// Rules returns the classification rules.
func (s *Service) Rules() course.Rules {
	return append(course.Rules(nil), s.rules...)
}

// GetDocument returns the catalog entry for rel with its diagnostics.
func (s *Service) GetDocument(_ context.Context, rel string) (*models.Document, error) {
	row, err := s.db.GetDocument(rel)
	if err != nil {
		return nil, err
	}
	stored, err := s.db.Diagnostics(rel)
	if err != nil {
		return nil, err
	}
	diags := make([]diag.Diagnostic, len(stored))
	for i, d := range stored {
		diags[i] = d.Diagnostic
	}
	return &models.Document{
		Path:        row.Path,
		Label:       row.Label,
		Titles:      row.Titles,
		Checksum:    row.Checksum,
		Cells:       row.Cells,
		Diagnostics: diags,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

// ListDocuments returns a page of catalog entries with an optional label
// filter.
func (s *Service) ListDocuments(_ context.Context, limit, offset int, label dirkind.Label) ([]models.DocumentMetadata, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, label)
	if err != nil {
		return nil, 0, err
	}
	items := make([]models.DocumentMetadata, len(rows))
	for i, r := range rows {
		items[i] = models.DocumentMetadata{
			Path:      r.Path,
			Label:     r.Label,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Diagnostics returns the stored diagnostics of rel, or of the whole
// course when rel is empty.
func (s *Service) Diagnostics(_ context.Context, rel string) ([]index.DiagnosticRow, error) {
	return s.db.Diagnostics(rel)
}

// Classify labels the entry at rel with the configured rules.
func (s *Service) Classify(_ context.Context, rel string) (*Classification, error) {
	d, err := course.Classify(s.store, s.rules, rel)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return &Classification{
		Path:    rel,
		Label:   d.Label,
		Descend: d.Descend,
		Policy:  s.rules.KindFor(path.Dir(rel)),
	}, nil
}

// Titles returns the titles of the notebook at rel.
func (s *Service) Titles(ctx context.Context, rel string) (titles.Titles, error) {
	nb, err := s.loadNotebook(ctx, rel)
	if err != nil {
		return titles.Titles{}, err
	}
	return titles.ForFile(rel, nb.Text), nil
}

// DeriveVariant renders the notebook at rel for v.
func (s *Service) DeriveVariant(ctx context.Context, rel string, v variant.Variant) (*VariantDocument, error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidVariant, err)
	}
	nb, err := s.loadNotebook(ctx, rel)
	if err != nil {
		return nil, err
	}
	derived := variant.DeriveNotebook(nb, v)
	out, err := notebook.Format(derived)
	if err != nil {
		return nil, err
	}
	return &VariantDocument{
		Path:    rel,
		Variant: v,
		Name:    variant.OutputName(titles.ForFile(rel, nb.Text), v, nb.Format),
		Cells:   len(derived.Cells),
		Content: string(out),
	}, nil
}

func (s *Service) loadNotebook(ctx context.Context, rel string) (*notebook.Notebook, error) {
	c, err := s.Classify(ctx, rel)
	if err != nil {
		return nil, err
	}
	if c.Label != dirkind.Notebook {
		return nil, fmt.Errorf("%s is %s: %w", rel, c.Label, apperr.ErrNotNotebook)
	}
	data, err := s.store.Read(rel)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return notebook.Load(rel, data)
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %v", apperr.ErrNotFound, err)
	case errors.Is(err, storage.ErrInvalidPath), errors.Is(err, course.ErrCourseRoot):
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return err
}
