package api

import (
	"github.com/starford/clm/internal/diag"
	"github.com/starford/clm/internal/dirkind"
	"github.com/starford/clm/internal/docservice"
	"github.com/starford/clm/internal/models"
	"github.com/starford/clm/internal/titles"
)

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []models.DocumentMetadata `json:"documents" validate:"required"`
	Total     int                       `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string        `json:"path" example:"slides/module_1/nb_intro.py" validate:"required"`
	Label   dirkind.Label `json:"label" example:"Notebook" validate:"required"`
	Titles  titles.Titles `json:"titles" validate:"required"`
	Snippet string        `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// DiagnosticItem is one stored diagnostic with the document it belongs to.
type DiagnosticItem struct {
	Path string `json:"path" example:"slides/module_1/nb_intro.py" validate:"required"`
	diag.Diagnostic
}

// DiagnosticsResponse wraps diagnostics.
type DiagnosticsResponse struct {
	Diagnostics []DiagnosticItem `json:"diagnostics" validate:"required"`
}

// TitlesResponse is returned by GET /titles/*.
type TitlesResponse struct {
	Path   string        `json:"path" validate:"required"`
	Titles titles.Titles `json:"titles" validate:"required"`
}

// VariantDocument is the derived document response (aliased from the
// domain layer).
type VariantDocument = docservice.VariantDocument

// Classification is the classifier response (aliased from the domain
// layer).
type Classification = docservice.Classification
