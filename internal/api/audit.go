package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/alpha2-bridge/internal/audit"
)

// handleListAuditLogs returns paginated command journal entries with optional filters.
//
// Query parameters:
//   - action: create_xmldevice, connect_xmldevice, delete_xmldevice, update_heatarea, update_device
//   - entity_type: iodevice, heatarea, device
//   - entity_id: filter by specific entity ID
//   - source: http or mqtt
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeUnavailable(w, "command journal not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		Source:     q.Get("source"),
	}

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit logs", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
