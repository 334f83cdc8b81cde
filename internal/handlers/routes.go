package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the API. The given middleware wraps every route except the
// health check.
func (h *Handler) Routes(mw ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(mw...)

		r.Get("/giveaways", h.ListGiveaways)
		r.Get("/giveaways/{id}", h.GetGiveaway)
		r.Get("/giveaways/{id}/eligibility", h.Eligibility)
		r.Post("/giveaways/{id}/entries", h.SubmitEntry)
		r.Get("/winners", h.ListWinners)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)

			r.Group(func(r chi.Router) {
				r.Use(h.auth.RequireAdmin)

				r.Post("/giveaways", h.CreateGiveaway)
				r.Put("/giveaways/{id}", h.UpdateGiveaway)
				r.Delete("/giveaways/{id}", h.DeleteGiveaway)
				r.Get("/giveaways/{id}/entries", h.ListEntries)
				r.Delete("/giveaways/{id}/entries/{entryID}", h.DeleteEntry)
				r.Get("/entries", h.ListAllEntries)

				r.Post("/winners", h.CreateWinner)
				r.Put("/winners/{id}", h.UpdateWinner)
				r.Delete("/winners/{id}", h.DeleteWinner)

				r.Get("/restrictions", h.ListRestrictions)
				r.Post("/restrictions/block", h.BlockIP)
				r.Delete("/restrictions/{id}", h.Unblock)
			})
		})
	})
	return r
}
