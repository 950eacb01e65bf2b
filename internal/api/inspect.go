package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds each subsystem probe made by /api/v1/health.
const healthCheckTimeout = 3 * time.Second

// handleHealth reports the state store and the optional database and MQTT
// connections. Any failing required component turns the response into 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	components := map[string]string{}

	if _, err := s.store.Snapshot(ctx); err != nil {
		components["store"] = err.Error()
		status, code = "degraded", http.StatusServiceUnavailable
	} else {
		components["store"] = "ok"
	}

	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			components["database"] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		} else {
			components["database"] = "ok"
		}
	}

	// MQTT reconnects in the background, so a lost broker is reported but
	// does not fail the check.
	if s.mqtt != nil {
		if err := s.mqtt.HealthCheck(ctx); err != nil {
			components["mqtt"] = err.Error()
		} else {
			components["mqtt"] = "ok"
		}
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
		"ws_clients": s.hub.ClientCount(),
	})
}

// handleGetState returns the device tree in its persisted JSON layout.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	dev, err := s.store.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("failed to load device state", "error", err)
		writeInternalError(w, "failed to load device state")
		return
	}

	data, err := dev.MarshalIndent()
	if err != nil {
		s.logger.Error("failed to encode device state", "error", err)
		writeInternalError(w, "failed to encode device state")
		return
	}
	writeRawJSON(w, http.StatusOK, data)
}
