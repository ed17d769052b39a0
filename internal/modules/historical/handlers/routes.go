package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all historical data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/historical", func(r chi.Router) {
		// Price endpoints
		r.Route("/prices", func(r chi.Router) {
			r.Get("/latest/{symbol}", func(w http.ResponseWriter, r *http.Request) {
				symbol := chi.URLParam(r, "symbol")
				h.HandleGetLatestPrice(w, r, symbol)
			})
			r.Get("/{symbol}", func(w http.ResponseWriter, r *http.Request) {
				symbol := chi.URLParam(r, "symbol")
				h.HandleGetPrices(w, r, symbol)
			})
			r.Get("/{symbol}/on/{date}", func(w http.ResponseWriter, r *http.Request) {
				symbol := chi.URLParam(r, "symbol")
				date := chi.URLParam(r, "date")
				h.HandleGetPriceOn(w, r, symbol, date)
			})
		})

		// Returns endpoints
		r.Route("/returns", func(r chi.Router) {
			r.Get("/monthly/{symbol}", func(w http.ResponseWriter, r *http.Request) {
				symbol := chi.URLParam(r, "symbol")
				h.HandleGetMonthlyReturns(w, r, symbol)
			})
		})

		r.Get("/risk/{symbol}", func(w http.ResponseWriter, r *http.Request) {
			symbol := chi.URLParam(r, "symbol")
			h.HandleGetRisk(w, r, symbol)
		})

		// Cache management
		r.Get("/stats", h.HandleGetStats)
		r.Post("/fetch", h.HandleFetch)
		r.Post("/bulk-fetch", h.HandleBulkFetch)
	})
}
