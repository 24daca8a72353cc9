package repository

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/frontdesk-labs/frontdesk/internal/domain/admission"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	"github.com/frontdesk-labs/frontdesk/pkg/metrics"
)

// schemaSQL is embedded so the service can bootstrap its own schema.
//
//go:embed schema.sql
var schemaSQL string

const connectTimeout = 10 * time.Second

// PostgresStore implements admission.Store against Postgres. Atomicity of
// the admission check-and-create rides on the primary key: the INSERT with
// ON CONFLICT DO NOTHING is the compare-and-set, and takeover of failed or
// stale records is a single conditional UPDATE.
type PostgresStore struct {
	pool       *pgxpool.Pool
	staleAfter time.Duration
}

// NewPostgresStore creates a connection pool and fails fast when the
// database is unreachable.
func NewPostgresStore(ctx context.Context, dbURL string, staleAfter time.Duration) (*PostgresStore, error) {
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	return &PostgresStore{pool: pool, staleAfter: staleAfter}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	return nil
}

// Ping reports database connectivity, for readiness checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Pool exposes the underlying pool so the audit sink can share it.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Close shuts down the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Admit implements the atomic check-and-create admission gate.
func (s *PostgresStore) Admit(ctx context.Context, event model.InboundEvent) (admission.Outcome, error) {
	var one int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO processing_records (event_id, channel, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING 1
	`, event.EventID, string(event.Channel), string(model.StatusAccepted)).Scan(&one)
	if err == nil {
		return admission.Outcome{Decision: admission.Admitted, Attempts: 1}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return admission.Outcome{}, fmt.Errorf("admit %q: %w", event.EventID, err)
	}

	// A record exists. Completed records replay their result; failed or
	// stale records are taken over by a conditional update so racing
	// deliveries still see exactly one winner.
	rec, err := s.Get(ctx, event.EventID)
	if err != nil {
		return admission.Outcome{}, err
	}
	if rec.Status == model.StatusCompleted {
		return admission.Outcome{
			Decision: admission.AlreadyCompleted,
			Result:   rec.Result,
			Attempts: rec.Attempts,
		}, nil
	}

	var attempts int
	err = s.pool.QueryRow(ctx, `
		UPDATE processing_records
		SET status = $2, reason = '', attempts = attempts + 1, updated_at = now()
		WHERE event_id = $1
		  AND (status = $3 OR (status IN ($4, $5) AND updated_at < now() - make_interval(secs => $6)))
		RETURNING attempts
	`, event.EventID,
		string(model.StatusAccepted),
		string(model.StatusFailed),
		string(model.StatusAccepted), string(model.StatusInProgress),
		s.staleAfter.Seconds(),
	).Scan(&attempts)
	if err == nil {
		if rec.Status == model.StatusInProgress || rec.Status == model.StatusAccepted {
			metrics.RecordStaleReadmission()
		}
		return admission.Outcome{Decision: admission.Admitted, Attempts: attempts}, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return admission.Outcome{Decision: admission.AlreadyProcessing, Attempts: rec.Attempts}, nil
	}
	return admission.Outcome{}, fmt.Errorf("admit %q: %w", event.EventID, err)
}

// Release undoes a fresh admission after an enqueue failure.
func (s *PostgresStore) Release(ctx context.Context, eventID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM processing_records
		WHERE event_id = $1 AND status = $2 AND attempts <= 1
	`, eventID, string(model.StatusAccepted))
	if err != nil {
		return fmt.Errorf("release %q: %w", eventID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	tag, err = s.pool.Exec(ctx, `
		UPDATE processing_records
		SET status = $2, reason = 'enqueue backpressure', updated_at = now()
		WHERE event_id = $1 AND status = $3
	`, eventID, string(model.StatusFailed), string(model.StatusAccepted))
	if err != nil {
		return fmt.Errorf("release %q: %w", eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("release %q: %w", eventID, admission.ErrInvalidTransition)
	}
	return nil
}

// Begin transitions accepted -> in_progress.
func (s *PostgresStore) Begin(ctx context.Context, eventID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE processing_records
		SET status = $2, updated_at = now()
		WHERE event_id = $1 AND status = $3
	`, eventID, string(model.StatusInProgress), string(model.StatusAccepted))
	if err != nil {
		return fmt.Errorf("begin %q: %w", eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("begin %q: %w", eventID, admission.ErrInvalidTransition)
	}
	return nil
}

// Complete finalizes the record with the replayable result.
func (s *PostgresStore) Complete(ctx context.Context, eventID string, result model.Result) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("complete %q: %w", eventID, err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE processing_records
		SET status = $2, intent = $3, result = $4, reason = '', updated_at = now()
		WHERE event_id = $1 AND status NOT IN ($5, $6)
	`, eventID, string(model.StatusCompleted), result.Action, resultJSON,
		string(model.StatusCompleted), string(model.StatusFailed))
	if err != nil {
		return fmt.Errorf("complete %q: %w", eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("complete %q: %w", eventID, admission.ErrInvalidTransition)
	}
	return nil
}

// Fail finalizes the record with a reason.
func (s *PostgresStore) Fail(ctx context.Context, eventID string, reason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE processing_records
		SET status = $2, reason = $3, updated_at = now()
		WHERE event_id = $1 AND status NOT IN ($4, $5)
	`, eventID, string(model.StatusFailed), reason,
		string(model.StatusCompleted), string(model.StatusFailed))
	if err != nil {
		return fmt.Errorf("fail %q: %w", eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fail %q: %w", eventID, admission.ErrInvalidTransition)
	}
	return nil
}

// Get returns the record for eventID.
func (s *PostgresStore) Get(ctx context.Context, eventID string) (model.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT event_id, channel, status, intent, result, reason, attempts, created_at, updated_at
		FROM processing_records
		WHERE event_id = $1
	`, eventID)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Record{}, fmt.Errorf("get %q: %w", eventID, admission.ErrNotFound)
		}
		return model.Record{}, fmt.Errorf("get %q: %w", eventID, err)
	}
	return rec, nil
}

// List returns matching records, newest first.
func (s *PostgresStore) List(ctx context.Context, filter admission.Filter) ([]model.Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, channel, status, intent, result, reason, attempts, created_at, updated_at
		FROM processing_records
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR channel = $2)
		  AND ($3 = '' OR intent = $3)
		ORDER BY created_at DESC
		LIMIT $4
	`, string(filter.Status), string(filter.Channel), filter.Intent, limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of records held.
func (s *PostgresStore) Count(ctx context.Context) int {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM processing_records`).Scan(&n); err != nil {
		return 0
	}
	return n
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.Record, error) {
	var (
		rec        model.Record
		channel    string
		status     string
		resultJSON []byte
	)
	if err := row.Scan(&rec.EventID, &channel, &status, &rec.Intent, &resultJSON,
		&rec.Reason, &rec.Attempts, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return model.Record{}, err
	}
	rec.Channel = model.Channel(channel)
	rec.Status = model.Status(status)
	if len(resultJSON) > 0 {
		var result model.Result
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return model.Record{}, err
		}
		rec.Result = &result
	}
	return rec, nil
}
