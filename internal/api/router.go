package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notecal/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Calendar queries.
	r.Get("/dates", h.ListDates)
	r.Get("/dates/{date}/notes", h.NotesForDate)

	// Filter and highlight state.
	r.Get("/selection", h.GetSelection)
	r.Put("/selection", h.SelectDate)
	r.Delete("/selection", h.ClearSelection)
	r.Post("/highlight", h.Highlight)

	// Notes.
	r.Post("/notes", h.CreateNote)
	r.Get("/preview", h.Preview)

	// Index maintenance.
	r.Post("/rescan", h.Rescan)
	r.Get("/status", h.Status)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
