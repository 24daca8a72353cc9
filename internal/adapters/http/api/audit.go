package api

import (
	"net/http"
	"strings"
)

// AuditHandler serves per-event audit trails.
type AuditHandler struct {
	deps Dependencies
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(deps Dependencies) *AuditHandler {
	return &AuditHandler{deps: deps}
}

// HandleGetTrail handles GET /audit/{event_id}.
func (h *AuditHandler) HandleGetTrail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	eventID := strings.TrimPrefix(r.URL.Path, "/audit/")
	if eventID == "" || strings.Contains(eventID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_event_id", nil)
		return
	}

	trail, err := h.deps.Trail(r.Context(), eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if len(trail) == 0 {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event_id": eventID, "trail": trail})
}
