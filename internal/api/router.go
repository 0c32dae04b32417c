package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultmetrics/internal/service"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *service.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Snapshots.
	r.Post("/metrics", h.ComputeMetrics)
	r.Get("/metrics", h.VaultMetrics)
	r.Get("/metrics/notes/*", h.NoteMetrics)

	// Name collisions.
	r.Get("/duplicates", h.Duplicates)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
