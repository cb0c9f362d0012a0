package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers history cache routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.HandleListCoverage)
		r.Post("/refresh", h.HandleRefresh)
		r.Get("/{symbol}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetPrices(w, r, chi.URLParam(r, "symbol"))
		})
		r.Delete("/{symbol}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleDeleteSymbol(w, r, chi.URLParam(r, "symbol"))
		})
	})
}
