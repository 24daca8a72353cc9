// Package admission defines the idempotency gate that grants exclusive
// processing rights for one event id. Admission is the sole synchronization
// point between concurrent deliveries of the same logical event.
package admission

import (
	"context"

	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
)

// Decision is the outcome of an admission attempt.
type Decision string

const (
	// Admitted means no live record existed; one was created atomically and
	// the caller now owns downstream processing for this event id.
	Admitted Decision = "admitted"

	// AlreadyProcessing means another execution holds the event. The caller
	// must acknowledge without re-running side effects.
	AlreadyProcessing Decision = "already_processing"

	// AlreadyCompleted means a terminal completed record exists. The caller
	// replays the stored result verbatim.
	AlreadyCompleted Decision = "already_completed"
)

// Outcome carries the decision and, for AlreadyCompleted, the stored result.
type Outcome struct {
	Decision Decision
	Result   *model.Result
	Attempts int
}

// Filter narrows record listings.
type Filter struct {
	Status  model.Status
	Channel model.Channel
	Intent  string
	Limit   int
}

// Store persists processing records and serializes writers per event id.
//
// Admit is atomic check-and-create: a race between concurrent deliveries of
// the same event id yields exactly one Admitted; the rest observe
// AlreadyProcessing or AlreadyCompleted. Failed records are re-admitted on
// resubmission, as are non-terminal records older than the store's staleness
// threshold (an abandoned execution must not poison its event id forever).
type Store interface {
	Admit(ctx context.Context, event model.InboundEvent) (Outcome, error)

	// Release undoes a fresh admission when the event could not be queued
	// (backpressure), so the provider's retry is admitted cleanly.
	Release(ctx context.Context, eventID string) error

	// Begin transitions an admitted record from accepted to in_progress.
	Begin(ctx context.Context, eventID string) error

	// Complete finalizes the record with the result to replay for future
	// deliveries. Completed records are immutable.
	Complete(ctx context.Context, eventID string, result model.Result) error

	// Fail finalizes the record with a failure reason. Failed records may be
	// re-admitted by a later delivery.
	Fail(ctx context.Context, eventID string, reason string) error

	Get(ctx context.Context, eventID string) (model.Record, error)
	List(ctx context.Context, filter Filter) ([]model.Record, error)
	Count(ctx context.Context) int
}
