package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/domain/admission"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
)

// defaultRecordsLimit caps GET /records listings unless narrowed further.
const defaultRecordsLimit = 100

// recordView is the read shape for processing records.
type recordView struct {
	EventID   string        `json:"event_id"`
	Channel   string        `json:"channel"`
	Status    string        `json:"status"`
	Intent    string        `json:"intent,omitempty"`
	Result    *model.Result `json:"result,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Attempts  int           `json:"attempts"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func toView(rec model.Record) recordView {
	return recordView{
		EventID:   rec.EventID,
		Channel:   string(rec.Channel),
		Status:    string(rec.Status),
		Intent:    rec.Intent,
		Result:    rec.Result,
		Reason:    rec.Reason,
		Attempts:  rec.Attempts,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// RecordsHandler serves processing record reads.
type RecordsHandler struct {
	deps Dependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps Dependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// HandleListRecords handles GET /records with optional status, channel,
// intent and limit query parameters.
func (h *RecordsHandler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	filter := admission.Filter{
		Status:  model.Status(r.URL.Query().Get("status")),
		Channel: model.Channel(r.URL.Query().Get("channel")),
		Intent:  r.URL.Query().Get("intent"),
		Limit:   defaultRecordsLimit,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		if n < filter.Limit {
			filter.Limit = n
		}
	}

	records, err := h.deps.Records(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	views := make([]recordView, len(records))
	for i, rec := range records {
		views[i] = toView(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": views, "count": len(views)})
}

// HandleGetRecord handles GET /records/{event_id}.
func (h *RecordsHandler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	eventID := strings.TrimPrefix(r.URL.Path, "/records/")
	if eventID == "" || strings.Contains(eventID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_event_id", nil)
		return
	}

	rec, err := h.deps.Record(r.Context(), eventID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, toView(rec))
}
