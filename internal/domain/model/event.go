// Package model contains domain models passed between layers.
package model

import "time"

// Channel identifies the external medium an event arrived on.
type Channel string

// Supported channels.
const (
	ChannelVoice Channel = "voice"
	ChannelChat  Channel = "chat"
	ChannelText  Channel = "text"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelVoice, ChannelChat, ChannelText:
		return true
	}
	return false
}

// InboundEvent is the canonical representation of one externally delivered
// notification, regardless of the channel it arrived on.
//
// EventID is provider-derived and stable across retried deliveries of the
// same underlying call or message; it is the primary deduplication key.
type InboundEvent struct {
	EventID     string
	Channel     Channel
	FromAddress string
	ToAddress   string
	RawText     string
	ReceivedAt  time.Time // assigned at normalization time, not provider time
}

// Response is the reply produced for an event, to be delivered back over
// the originating channel.
type Response struct {
	Text      string  `json:"text"`
	Channel   Channel `json:"channel"`
	ToAddress string  `json:"to_address"`
}

// Result captures the outcome of a completed dispatch: the action that ran,
// the exact response text, and any external resource it created. A stored
// Result is replayed verbatim for duplicate deliveries.
type Result struct {
	Action      string   `json:"action"`
	Response    Response `json:"response"`
	ResourceRef string   `json:"resource_ref,omitempty"`
}

// Booking is a calendar reservation held by the calendar collaborator.
// SlotEnd is exclusive: a booking occupies [SlotStart, SlotEnd).
type Booking struct {
	ExternalRef string
	Attendee    string
	SlotStart   time.Time
	SlotEnd     time.Time
}

// Overlaps reports whether the half-open interval [start, end) intersects
// this booking. Back-to-back bookings do not overlap.
func (b Booking) Overlaps(start, end time.Time) bool {
	return start.Before(b.SlotEnd) && b.SlotStart.Before(end)
}

// Status is the processing state of a logical event.
type Status string

// Record lifecycle states. Transitions are monotonic: Accepted ->
// InProgress -> {Completed, Failed}. Completed records are immutable.
const (
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record is the idempotency and audit unit kept per event id. It is owned
// exclusively by the admission store; one writer at a time is enforced by
// the store's per-key serialization.
type Record struct {
	EventID   string
	Channel   Channel
	Status    Status
	Intent    string
	Result    *Result // present only when Status == StatusCompleted
	Reason    string  // failure reason when Status == StatusFailed
	Attempts  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
