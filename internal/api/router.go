package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dailycanvas/internal/canvasservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *canvasservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/canvas/active", func(r chi.Router) {
		r.Get("/", h.ActiveCanvas)
		r.Post("/selection", h.Select)
	})

	r.Get("/commands", h.ListCommands)
	r.Post("/commands/{id}", h.ExecuteCommand)

	r.Get("/pins", h.Pins)
	r.Get("/rotation", h.Rotation)
	r.Get("/rotations", h.Rotations)
	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
