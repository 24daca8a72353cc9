package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink appends audit entries to the audit_entries table. It shares
// the pool of the Postgres admission store; the table is created by that
// store's schema bootstrap.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a Postgres-backed audit sink.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Append inserts one entry with the next per-event sequence number. The
// aggregate subselect always yields one row, so the first entry gets seq 1.
func (s *PostgresSink) Append(ctx context.Context, eventID string, stage Stage, detail string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_entries (event_id, seq, stage, detail)
		SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3
		FROM audit_entries
		WHERE event_id = $1
	`, eventID, string(stage), detail)
	if err != nil {
		return fmt.Errorf("audit append %q: %w", eventID, err)
	}
	return nil
}

// Trail returns the ordered trail for eventID.
func (s *PostgresSink) Trail(ctx context.Context, eventID string) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, seq, stage, detail, created_at
		FROM audit_entries
		WHERE event_id = $1
		ORDER BY seq ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("audit trail %q: %w", eventID, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var stage string
		if err := rows.Scan(&e.EventID, &e.Seq, &stage, &e.Detail, &e.At); err != nil {
			return nil, fmt.Errorf("audit trail %q: %w", eventID, err)
		}
		e.Stage = Stage(stage)
		out = append(out, e)
	}
	return out, rows.Err()
}
