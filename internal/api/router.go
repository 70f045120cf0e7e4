package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/temptick-core/internal/panel"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/state", s.handleState)
		r.Get("/element-codes", s.handleElementCodes)

		r.Get("/events", s.handleListEvents)
		r.Post("/events", s.handlePushEvent)
		r.Get("/ws", s.handleWebSocket)

		r.Route("/sensors", func(r chi.Router) {
			r.Post("/", s.handleAddSensor)
			r.Patch("/", s.handleUpdateSensors)
			r.Get("/discover", s.handleDiscoverSensors)

			r.Route("/{index}", func(r chi.Router) {
				r.Patch("/", s.handleUpdateSensor)
				r.Delete("/", s.handleDeleteSensor)
			})
		})

		r.Patch("/relay", s.handleUpdateRelay)

		r.Route("/network", func(r chi.Router) {
			r.Patch("/", s.handleUpdateNetwork)
			r.Post("/connect", s.handleNetworkConnect)
		})

		r.Patch("/mqtt", s.handleUpdateMQTT)

		r.Route("/cloud", func(r chi.Router) {
			r.Patch("/", s.handleUpdateCloud)
			r.Post("/links", s.handleAddLink)
			r.Patch("/links/{index}", s.handleUpdateLink)
			r.Delete("/links/{index}", s.handleDeleteLink)
			r.Post("/ports/{port}", s.handleCloudPortWrite)
		})

		r.Route("/system", func(r chi.Router) {
			r.Patch("/", s.handleUpdateSystem)
			r.Post("/reset", s.handleReset)
			r.Post("/reset-all", s.handleResetAll)
		})
	})

	// Settings panel
	r.Handle("/*", panel.Handler(s.cfg.PanelDir))

	return r
}

// handleHealth returns the server health status. It does not touch the
// loop, so it answers even while the device is busy.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"device":  s.device,
		"version": s.version,
	})
}
