package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts every endpoint with the service middleware stack
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)
	r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())

	// websocket routes stay outside the timeout middleware
	r.Get("/ws", h.HandleWebSocket)
	r.Get("/ws/metrics", h.HubMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Post("/convert", h.Convert)
		r.Post("/complement", h.Complement)
		r.Post("/compare", h.Compare)

		r.Post("/simulations", h.CreateSimulation)
		r.Get("/simulations", h.ListSimulations)
		r.Get("/simulations/{id}", h.GetSimulation)
	})

	return r
}
