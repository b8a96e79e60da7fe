package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pantry/internal/recipeservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *recipeservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Captured pages.
	r.Get("/pages", h.ListPages)
	r.Get("/pages/*", h.GetPage)

	// Stateless filter pass.
	r.Get("/filter", h.Filter)

	// Filter sessions.
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Get("/{id}", h.GetSession)
		r.Post("/{id}/events", h.PostEvent)
		r.Delete("/{id}", h.DeleteSession)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
