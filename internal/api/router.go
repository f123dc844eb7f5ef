package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/clm/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog.
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/*", h.GetDocument)
	r.Get("/diagnostics", h.Diagnostics)
	r.Get("/search", h.Search)

	// Tag engine and classifier.
	r.Get("/variants/*", h.DeriveVariant)
	r.Get("/titles/*", h.Titles)
	r.Get("/classify", h.Classify)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
