// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/frontdesk-labs/frontdesk/internal/app"
	"github.com/frontdesk-labs/frontdesk/internal/audit"
	"github.com/frontdesk-labs/frontdesk/internal/domain/admission"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Ingest runs the synchronous half of the pipeline and returns what the
	// webhook ack needs. Backpressure surfaces as service.ErrBackpressure.
	Ingest(ctx context.Context, payload any) (service.IngestOutcome, error)

	// Read operations expose trails and records.
	Trail(ctx context.Context, eventID string) ([]audit.Entry, error)
	Record(ctx context.Context, eventID string) (model.Record, error)
	Records(ctx context.Context, filter admission.Filter) ([]model.Record, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	webhookHandler *WebhookHandler
	auditHandler   *AuditHandler
	recordsHandler *RecordsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		webhookHandler: NewWebhookHandler(deps),
		auditHandler:   NewAuditHandler(deps),
		recordsHandler: NewRecordsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/webhooks/voice", MetricsMiddleware(s.webhookHandler.HandleVoice, "webhooks_voice"))
	mux.HandleFunc("/webhooks/sms", MetricsMiddleware(s.webhookHandler.HandleSMS, "webhooks_sms"))
	mux.HandleFunc("/webhooks/chat", MetricsMiddleware(s.webhookHandler.HandleChat, "webhooks_chat"))
	mux.HandleFunc("/audit/", MetricsMiddleware(s.auditHandler.HandleGetTrail, "audit"))
	mux.HandleFunc("/records/", MetricsMiddleware(s.recordsHandler.HandleGetRecord, "record"))
	mux.HandleFunc("/records", MetricsMiddleware(s.recordsHandler.HandleListRecords, "records"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, admission.ErrNotFound)
}
