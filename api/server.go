/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  unique ID per request for tracing
  2. Recoverer:  panic recovery (500 instead of crash)
  3. Logger:     request logging
  4. CORS:       cross-origin requests for the admin frontend

ROUTE GROUPS:
  /api/workers/*   worker records, check-in, habits, dashboard, rewards
  /api/rewards/*   redemption
  /api/admin/*     batch trigger and run history

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.CreateWorker)
			r.Get("/{id}", h.GetWorker)
			r.Post("/{id}/checkin", h.CheckIn)
			r.Post("/{id}/habits", h.RecordHabit)
			r.Get("/{id}/dashboard", h.GetDashboard)
			r.Get("/{id}/preferences", h.GetPreferences)
			r.Put("/{id}/preferences", h.UpdatePreferences)
			r.Get("/{id}/evaluation", h.GetEvaluation)
			r.Get("/{id}/rewards", h.ListRewards)
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Post("/{id}/redeem", h.RedeemReward)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/batch", h.RunBatch)
			r.Get("/batch/runs", h.ListBatchRuns)
		})
	})

	return r
}
