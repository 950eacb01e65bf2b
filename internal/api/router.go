package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
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

	// Controller protocol, as polled by the Alpha 2 integrations
	r.Route("/data", func(r chi.Router) {
		r.Get("/static.xml", s.handleStaticView)
		r.Get("/dynamic.xml", s.handleDynamicView)
		r.Get("/cyclic.xml", s.handleCyclicView)
		r.Post("/changes.xml", s.handleChanges)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleGetState)
		r.Get("/audit", s.handleListAuditLogs)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}
