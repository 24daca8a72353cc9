// Package normalize converts provider-specific webhook payloads into the
// canonical inbound event. It is a pure transform with no side effects.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
)

// VoicePayload mirrors a telephony provider's voice webhook form fields.
type VoicePayload struct {
	CallSID           string
	From              string
	To                string
	TranscriptionText string
	RecordingURL      string
}

// TextPayload mirrors a messaging provider's SMS webhook form fields.
type TextPayload struct {
	MessageSID string
	From       string
	To         string
	Body       string
}

// ChatPayload mirrors a chat provider's message webhook body.
type ChatPayload struct {
	MessageID string
	From      string
	To        string
	Text      string
}

// Normalize derives the canonical event from a provider payload. The event id
// comes deterministically from the provider identifier so that retried
// deliveries of the same call or message normalize to the same id; a
// synthetic id is never generated.
func Normalize(payload any) (model.InboundEvent, error) {
	switch p := payload.(type) {
	case VoicePayload:
		return normalizeVoice(p)
	case TextPayload:
		return normalizeText(p)
	case ChatPayload:
		return normalizeChat(p)
	}
	return model.InboundEvent{}, fmt.Errorf("%w: %T", ErrUnsupportedChannel, payload)
}

func normalizeVoice(p VoicePayload) (model.InboundEvent, error) {
	if p.CallSID == "" {
		return model.InboundEvent{}, fmt.Errorf("%w: CallSid", ErrMissingProviderID)
	}
	text := strings.TrimSpace(p.TranscriptionText)
	if text == "" {
		// A call with no transcription is terminal; still audited by the caller.
		return model.InboundEvent{}, fmt.Errorf("%w: call %s", ErrMissingTranscript, p.CallSID)
	}
	return event(p.CallSID, model.ChannelVoice, p.From, p.To, text), nil
}

func normalizeText(p TextPayload) (model.InboundEvent, error) {
	if p.MessageSID == "" {
		return model.InboundEvent{}, fmt.Errorf("%w: MessageSid", ErrMissingProviderID)
	}
	text := strings.TrimSpace(p.Body)
	if text == "" {
		return model.InboundEvent{}, fmt.Errorf("%w: message %s", ErrMissingTranscript, p.MessageSID)
	}
	return event("sms_"+p.MessageSID, model.ChannelText, p.From, p.To, text), nil
}

func normalizeChat(p ChatPayload) (model.InboundEvent, error) {
	if p.MessageID == "" {
		return model.InboundEvent{}, fmt.Errorf("%w: message_id", ErrMissingProviderID)
	}
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return model.InboundEvent{}, fmt.Errorf("%w: message %s", ErrMissingTranscript, p.MessageID)
	}
	return event("chat_"+p.MessageID, model.ChannelChat, p.From, p.To, text), nil
}

func event(id string, ch model.Channel, from, to, text string) model.InboundEvent {
	return model.InboundEvent{
		EventID:     id,
		Channel:     ch,
		FromAddress: from,
		ToAddress:   to,
		RawText:     text,
		ReceivedAt:  time.Now().UTC(),
	}
}
