// Package repository provides admission store implementations: an in-memory
// store for single-process deployments and tests, and a Postgres store for
// durable deployments.
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/domain/admission"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	"github.com/frontdesk-labs/frontdesk/pkg/metrics"
)

// defaultStaleAfter is how long a non-terminal record may sit untouched
// before a new delivery of the same event id is re-admitted. Conservative
// relative to provider retry windows, which are seconds.
const defaultStaleAfter = 5 * time.Minute

// MemStore implements admission.Store with a mutex-serialized map. The lock
// makes check-and-create atomic; records are never removed except by Release
// on a first-attempt admission.
type MemStore struct {
	mu         sync.Mutex
	records    map[string]*model.Record
	staleAfter time.Duration
	now        func() time.Time
}

// NewMemStore creates an in-memory admission store.
func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{
		records:    make(map[string]*model.Record),
		staleAfter: defaultStaleAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Admit implements the atomic check-and-create admission gate.
func (s *MemStore) Admit(_ context.Context, event model.InboundEvent) (admission.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	rec, ok := s.records[event.EventID]
	if !ok {
		s.records[event.EventID] = &model.Record{
			EventID:   event.EventID,
			Channel:   event.Channel,
			Status:    model.StatusAccepted,
			Attempts:  1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		metrics.UpdateRecordsTotal(len(s.records))
		return admission.Outcome{Decision: admission.Admitted, Attempts: 1}, nil
	}

	switch rec.Status {
	case model.StatusCompleted:
		result := *rec.Result
		return admission.Outcome{
			Decision: admission.AlreadyCompleted,
			Result:   &result,
			Attempts: rec.Attempts,
		}, nil
	case model.StatusFailed:
		// Failed records are retryable on resubmission.
		rec.Status = model.StatusAccepted
		rec.Reason = ""
		rec.Attempts++
		rec.UpdatedAt = now
		return admission.Outcome{Decision: admission.Admitted, Attempts: rec.Attempts}, nil
	default:
		if now.Sub(rec.UpdatedAt) > s.staleAfter {
			// Abandoned execution; take the event over.
			rec.Status = model.StatusAccepted
			rec.Attempts++
			rec.UpdatedAt = now
			metrics.RecordStaleReadmission()
			return admission.Outcome{Decision: admission.Admitted, Attempts: rec.Attempts}, nil
		}
		return admission.Outcome{Decision: admission.AlreadyProcessing, Attempts: rec.Attempts}, nil
	}
}

// Release undoes a fresh admission after an enqueue failure. A first-attempt
// record is dropped entirely; a re-admitted record reverts to failed so the
// earlier history is not lost.
func (s *MemStore) Release(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[eventID]
	if !ok {
		return fmt.Errorf("release %q: %w", eventID, admission.ErrNotFound)
	}
	if rec.Status != model.StatusAccepted {
		return fmt.Errorf("release %q in status %s: %w", eventID, rec.Status, admission.ErrInvalidTransition)
	}
	if rec.Attempts <= 1 {
		delete(s.records, eventID)
		metrics.UpdateRecordsTotal(len(s.records))
		return nil
	}
	rec.Status = model.StatusFailed
	rec.Reason = "enqueue backpressure"
	rec.UpdatedAt = s.now().UTC()
	return nil
}

// Begin transitions accepted -> in_progress.
func (s *MemStore) Begin(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[eventID]
	if !ok {
		return fmt.Errorf("begin %q: %w", eventID, admission.ErrNotFound)
	}
	if rec.Status != model.StatusAccepted {
		return fmt.Errorf("begin %q in status %s: %w", eventID, rec.Status, admission.ErrInvalidTransition)
	}
	rec.Status = model.StatusInProgress
	rec.UpdatedAt = s.now().UTC()
	return nil
}

// Complete finalizes the record. Terminal records never regress.
func (s *MemStore) Complete(_ context.Context, eventID string, result model.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[eventID]
	if !ok {
		return fmt.Errorf("complete %q: %w", eventID, admission.ErrNotFound)
	}
	if rec.Status.Terminal() {
		return fmt.Errorf("complete %q in status %s: %w", eventID, rec.Status, admission.ErrInvalidTransition)
	}
	stored := result
	rec.Status = model.StatusCompleted
	rec.Intent = result.Action
	rec.Result = &stored
	rec.Reason = ""
	rec.UpdatedAt = s.now().UTC()
	return nil
}

// Fail finalizes the record with a reason.
func (s *MemStore) Fail(_ context.Context, eventID string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[eventID]
	if !ok {
		return fmt.Errorf("fail %q: %w", eventID, admission.ErrNotFound)
	}
	if rec.Status.Terminal() {
		return fmt.Errorf("fail %q in status %s: %w", eventID, rec.Status, admission.ErrInvalidTransition)
	}
	rec.Status = model.StatusFailed
	rec.Reason = reason
	rec.UpdatedAt = s.now().UTC()
	return nil
}

// Get returns a copy of the record for eventID.
func (s *MemStore) Get(_ context.Context, eventID string) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[eventID]
	if !ok {
		return model.Record{}, fmt.Errorf("get %q: %w", eventID, admission.ErrNotFound)
	}
	return copyRecord(rec), nil
}

// List returns matching records, newest first.
func (s *MemStore) List(_ context.Context, filter admission.Filter) ([]model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Record, 0, len(s.records))
	for _, rec := range s.records {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Channel != "" && rec.Channel != filter.Channel {
			continue
		}
		if filter.Intent != "" && rec.Intent != filter.Intent {
			continue
		}
		out = append(out, copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Count returns the number of records held.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func copyRecord(rec *model.Record) model.Record {
	out := *rec
	if rec.Result != nil {
		result := *rec.Result
		out.Result = &result
	}
	return out
}
