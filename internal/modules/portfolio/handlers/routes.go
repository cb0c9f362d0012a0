package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Post("/optimize", h.HandleOptimize)
		r.Get("/optimize/stream", h.HandleStream)
		r.Post("/frontier", h.HandleFrontier)
	})
}
