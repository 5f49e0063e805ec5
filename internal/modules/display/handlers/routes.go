package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the request/response tracker routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.HandleGetSession)
		r.Post("/", h.HandleStartSession)
		r.Delete("/", h.HandleStopSession)
	})

	r.Put("/budget", h.HandleSetBudget)

	r.Route("/profiles", func(r chi.Router) {
		r.Get("/", h.HandleGetProfiles)
		r.Post("/link", h.HandleLinkProfile)
	})

	r.Get("/history", h.HandleGetHistory)

	r.Route("/watchlist", func(r chi.Router) {
		r.Get("/", h.HandleGetWatchlist)
		r.Post("/", h.HandleAddWatchlist)
		r.Delete("/", h.HandleRemoveWatchlist)
	})

	r.Get("/resolve", h.HandleResolve)
}

// RegisterStreamRoutes registers the long-lived WebSocket route.
// It must be mounted outside any request timeout middleware.
func (h *Handler) RegisterStreamRoutes(r chi.Router) {
	r.Get("/stream", h.HandleStream)
}
