package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/frontdesk-labs/frontdesk/internal/app"
	"github.com/frontdesk-labs/frontdesk/internal/domain/admission"
	"github.com/frontdesk-labs/frontdesk/internal/domain/normalize"
)

// WebhookHandler accepts provider webhook deliveries. Handlers acknowledge
// as soon as the event is admitted and queued; classification and side
// effects run asynchronously.
type WebhookHandler struct {
	deps Dependencies
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(deps Dependencies) *WebhookHandler {
	return &WebhookHandler{deps: deps}
}

// ackResponse is the webhook acknowledgment body.
type ackResponse struct {
	Status  string `json:"status"`
	EventID string `json:"event_id"`

	// Reply carries the stored response text when a duplicate delivery of a
	// completed event is replayed.
	Reply string `json:"reply,omitempty"`
}

// chatRequest mirrors the chat provider's JSON webhook body.
type chatRequest struct {
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
}

// HandleVoice handles POST /webhooks/voice (form-encoded, telephony style).
func (h *WebhookHandler) HandleVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", err)
		return
	}
	h.ingest(w, r, normalize.VoicePayload{
		CallSID:           r.PostFormValue("CallSid"),
		From:              r.PostFormValue("From"),
		To:                r.PostFormValue("To"),
		TranscriptionText: r.PostFormValue("TranscriptionText"),
		RecordingURL:      r.PostFormValue("RecordingUrl"),
	})
}

// HandleSMS handles POST /webhooks/sms (form-encoded, telephony style).
func (h *WebhookHandler) HandleSMS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", err)
		return
	}
	h.ingest(w, r, normalize.TextPayload{
		MessageSID: r.PostFormValue("MessageSid"),
		From:       r.PostFormValue("From"),
		To:         r.PostFormValue("To"),
		Body:       r.PostFormValue("Body"),
	})
}

// HandleChat handles POST /webhooks/chat (JSON).
func (h *WebhookHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	h.ingest(w, r, normalize.ChatPayload{
		MessageID: req.MessageID,
		From:      req.From,
		To:        req.To,
		Text:      req.Text,
	})
}

func (h *WebhookHandler) ingest(w http.ResponseWriter, r *http.Request, payload any) {
	outcome, err := h.deps.Ingest(r.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBackpressure):
			writeError(w, http.StatusTooManyRequests, "backpressure", err)
		case errors.Is(err, normalize.ErrMissingProviderID),
			errors.Is(err, normalize.ErrMissingTranscript),
			errors.Is(err, normalize.ErrUnsupportedChannel):
			writeError(w, http.StatusBadRequest, "invalid_payload", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}

	ack := ackResponse{EventID: outcome.EventID}
	switch outcome.Decision {
	case admission.AlreadyCompleted:
		ack.Status = "replayed"
		if outcome.Response != nil {
			ack.Reply = outcome.Response.Text
		}
	case admission.AlreadyProcessing:
		ack.Status = "duplicate"
	default:
		ack.Status = "accepted"
	}
	writeJSON(w, http.StatusAccepted, ack)
}
