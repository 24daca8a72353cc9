package audit

import (
	"context"
	"sync"
	"time"
)

// MemSink keeps audit trails in memory. Entries are never removed.
type MemSink struct {
	mu     sync.Mutex
	trails map[string][]Entry
}

// NewMemSink creates an in-memory audit sink.
func NewMemSink() *MemSink {
	return &MemSink{trails: make(map[string][]Entry)}
}

// Append adds one entry with the next per-event sequence number.
func (s *MemSink) Append(_ context.Context, eventID string, stage Stage, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trail := s.trails[eventID]
	s.trails[eventID] = append(trail, Entry{
		EventID: eventID,
		Seq:     int64(len(trail)) + 1,
		Stage:   stage,
		Detail:  detail,
		At:      time.Now().UTC(),
	})
	return nil
}

// Trail returns a copy of the ordered trail for eventID.
func (s *MemSink) Trail(_ context.Context, eventID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trail := s.trails[eventID]
	out := make([]Entry, len(trail))
	copy(out, trail)
	return out, nil
}
