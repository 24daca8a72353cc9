// Package audit provides the append-only per-event processing trail. The
// recorder sits on the response path but must never block it: sink failures
// degrade to a warning log and a metric.
package audit

import (
	"context"
	"time"

	"github.com/frontdesk-labs/frontdesk/pkg/logger"
	"github.com/frontdesk-labs/frontdesk/pkg/metrics"
)

// Stage names one step of processing worth auditing.
type Stage string

// Audit stages, in rough lifecycle order.
const (
	StageReceived            Stage = "received"
	StageNormalizationFailed Stage = "normalization_failed"
	StageAdmitted            Stage = "admitted"
	StageDuplicate           Stage = "duplicate"
	StageReplayed            Stage = "replayed"
	StageClassified          Stage = "classified"
	StageRouted              Stage = "routed"
	StageBookingCreated      Stage = "booking_created"
	StageBookingCancelled    Stage = "booking_cancelled"
	StageResponseSent        Stage = "response_sent"
	StageCompleted           Stage = "completed"
	StageFailed              Stage = "failed"
)

// Entry is one immutable audit record, keyed by (EventID, Seq).
type Entry struct {
	EventID string    `json:"event_id"`
	Seq     int64     `json:"seq"`
	Stage   Stage     `json:"stage"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// Sink persists audit entries. Append assigns the per-event sequence.
type Sink interface {
	Append(ctx context.Context, eventID string, stage Stage, detail string) error
	Trail(ctx context.Context, eventID string) ([]Entry, error)
}

// Recorder wraps a sink with the never-blocks contract.
type Recorder struct {
	sink Sink
	log  logger.Logger
}

// RecorderOption applies a configuration option to the Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets a custom logger for the recorder.
func WithLogger(log logger.Logger) RecorderOption {
	return func(r *Recorder) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRecorder creates a recorder over sink.
func NewRecorder(sink Sink, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		sink: sink,
		log:  logger.Get().Named("audit"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one entry. Failures are logged and counted, never returned:
// an audit problem must not roll back the record transition that caused it.
func (r *Recorder) Record(ctx context.Context, eventID string, stage Stage, detail string) {
	if err := r.sink.Append(ctx, eventID, stage, detail); err != nil {
		metrics.RecordAuditAppendFailure()
		r.log.Warn(ctx, "audit append failed",
			logger.String("eventID", eventID),
			logger.String("stage", string(stage)),
			logger.Error(err),
		)
	}
}

// Trail returns the ordered trail for eventID.
func (r *Recorder) Trail(ctx context.Context, eventID string) ([]Entry, error) {
	return r.sink.Trail(ctx, eventID)
}
