package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers performance routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/performance", func(r chi.Router) {
		r.Get("/{symbol}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetPerformance(w, r, chi.URLParam(r, "symbol"))
		})
	})
}
