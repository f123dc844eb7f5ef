package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/clm/internal/dirkind"
	"github.com/starford/clm/internal/docservice"
	"github.com/starford/clm/internal/models"
	"github.com/starford/clm/internal/variant"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// wildcardPath extracts the course path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. slides%2Fnb_a.py).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List catalog documents with optional pagination and label filter
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			label	query		string	false	"Filter by label"	Enums(DataFile, Folder, Notebook, ExampleSolution, ExampleStarterKit)
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	label := dirkind.Label(q.Get("label"))

	items, total, err := h.svc.ListDocuments(r.Context(), limit, offset, label)
	if err != nil {
		writeServiceError(w, "list documents", "", err)
		return
	}
	if items == nil {
		items = []models.DocumentMetadata{}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a catalog document with its diagnostics
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Course path"
//	@Success		200		{object}	models.Document
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), path)
	if err != nil {
		writeServiceError(w, "get document", path, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeriveVariant handles GET /api/variants/*.
//
//	@Summary		Render one variant of a notebook
//	@Tags			variants
//	@Produce		json,plain
//	@Param			path		path		string	true	"Notebook path"
//	@Param			lang		query		string	true	"Output language"
//	@Param			audience	query		string	false	"Audience"	Enums(public, speaker)
//	@Param			form		query		string	false	"Form"		Enums(completed, codealong)
//	@Param			raw			query		bool	false	"Return the document text only"
//	@Success		200			{object}	VariantDocument
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/variants/{path} [get]
func (h *Handler) DeriveVariant(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	q := r.URL.Query()
	v := variant.Variant{
		Lang:     q.Get("lang"),
		Audience: valueOr(q.Get("audience"), variant.AudiencePublic),
		Form:     valueOr(q.Get("form"), variant.FormCompleted),
	}
	doc, err := h.svc.DeriveVariant(r.Context(), path, v)
	if err != nil {
		writeServiceError(w, "derive variant", path, err)
		return
	}
	if raw, _ := strconv.ParseBool(q.Get("raw")); raw {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", "inline; filename*=UTF-8''"+url.PathEscape(doc.Name))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(doc.Content))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Titles handles GET /api/titles/*.
//
//	@Summary		Get the German and English titles of a notebook
//	@Tags			variants
//	@Produce		json
//	@Param			path	path		string	true	"Notebook path"
//	@Success		200		{object}	TitlesResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/titles/{path} [get]
func (h *Handler) Titles(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	t, err := h.svc.Titles(r.Context(), path)
	if err != nil {
		writeServiceError(w, "titles", path, err)
		return
	}
	writeJSON(w, http.StatusOK, TitlesResponse{Path: path, Titles: t})
}

// Classify handles GET /api/classify.
//
//	@Summary		Classify a course path
//	@Tags			classify
//	@Produce		json
//	@Param			path	query		string	true	"Course path"
//	@Success		200		{object}	Classification
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/classify [get]
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	c, err := h.svc.Classify(r.Context(), path)
	if err != nil {
		writeServiceError(w, "classify", path, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Diagnostics handles GET /api/diagnostics.
//
//	@Summary		List tag diagnostics
//	@Tags			documents
//	@Produce		json
//	@Param			path	query		string	false	"Restrict to one document"
//	@Success		200		{object}	DiagnosticsResponse
//	@Security		BearerAuth
//	@Router			/diagnostics [get]
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	rows, err := h.svc.Diagnostics(r.Context(), path)
	if err != nil {
		writeServiceError(w, "diagnostics", path, err)
		return
	}
	items := make([]DiagnosticItem, len(rows))
	for i, row := range rows {
		items[i] = DiagnosticItem{Path: row.Path, Diagnostic: row.Diagnostic}
	}
	writeJSON(w, http.StatusOK, DiagnosticsResponse{Diagnostics: items})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notebooks
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, "search", q, err)
		return
	}
	out := make([]SearchResult, len(results))
	for i, res := range results {
		out[i] = SearchResult{Path: res.Path, Label: res.Label, Titles: res.Titles, Snippet: res.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: out})
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
