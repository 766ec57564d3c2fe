package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultlink/internal/linkservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *linkservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Text conversion.
	r.Post("/convert/internal", h.ConvertToInternal)
	r.Post("/convert/external", h.ConvertToExternal)

	// In-place note conversion.
	r.Post("/convert/notes/*", h.ConvertNote)
	r.Post("/stamp/*", h.StampNote)

	// Lookup.
	r.Get("/resolve", h.Resolve)
	r.Get("/documents", h.ListDocuments)

	// Settings.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
