package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers optimizer routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/optimizer", func(r chi.Router) {
		r.Post("/run", h.HandleRun)
		r.Post("/frontier", h.HandleFrontier)
	})
}
