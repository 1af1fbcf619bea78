package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-doorbell/internal/panel"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Post("/auth/login", s.handleLogin)

		// WebSocket authenticates with the token query parameter.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/status", s.handleStatus)
			r.Get("/logs", s.handleLogs)

			r.Route("/fingerprints", func(r chi.Router) {
				r.Get("/", s.handleListFingerprints)
				r.Delete("/", s.handleDeleteAllFingerprints)
				r.Post("/enroll", s.handleEnroll)

				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", s.handleRenameFingerprint)
					r.Delete("/", s.handleDeleteFingerprint)
				})
			})

			r.Post("/pairing", s.handlePairing)

			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handleUpdateSettings)

			r.Post("/system/factory-reset", s.handleFactoryReset)
			r.Post("/system/reboot", s.handleReboot)

			r.Get("/audit", s.handleListAudit)

			if s.simulator != nil {
				r.Route("/simulator", func(r chi.Router) {
					r.Post("/finger", s.handleSimFinger)
					r.Post("/lift", s.handleSimLift)
					r.Post("/doorbell", s.handleSimDoorbell)
					r.Post("/marker", s.handleSimMarker)
				})
			}
		})
	})

	// Admin panel (embedded static UI)
	r.Handle("/*", panel.Handler(""))

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"version":          s.version,
		"sensor_connected": s.ctrl.Status().SensorConnected,
		"mqtt_connected":   s.mqttConnected(),
	})
}
