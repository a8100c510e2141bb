package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	hrest "crisis-alert-service/internal/handler/http"
	wshandler "crisis-alert-service/internal/handler/ws"
	"crisis-alert-service/internal/middleware"
)

// SetupRoutes configures the HTTP routes for the alert engine
func SetupRoutes(
	r chi.Router,
	h *hrest.AlertHandler,
	wsHandler *wshandler.WSHandler,
	jwtSecret []byte,
	rdb *redis.Client,
) chi.Router {
	// ---- Global Middleware ----
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-CSRF-Token",
		},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.RateLimiter(rdb, 100, time.Minute, 10*time.Minute, "global"))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// ============================================================
	// Alert Routes (all require auth)
	// ============================================================
	r.Route("/api/v1/alerts", func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtSecret))

		r.Post("/crisis", h.RaiseCrisis)
		r.Post("/reminders", h.RaiseReminder)
		r.Post("/checkins", h.RaiseCheckIn)

		r.Get("/active", h.ListActive)
		r.Get("/{id}/deliveries", h.ListDeliveries)
		r.Patch("/{id}/ack", h.Acknowledge)
		r.Patch("/{id}/dismiss", h.Dismiss)
		r.Patch("/{id}/snooze", h.Snooze)

		r.Get("/preferences", h.GetPreferences)
		r.Put("/preferences", h.PutPreferences)
		r.Delete("/preferences", h.DeletePreferences)

		// WebSocket endpoint for in-app delivery
		r.Get("/ws", wsHandler.HandleAlerts)
	})
	return r
}
