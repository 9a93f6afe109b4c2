package postgres

import (
	"context"
	"fmt"
	"time"

	"trading-core/internal/domain"
	"trading-core/internal/storage"
)

// RunEventStore implements storage.RunEventStore using Postgres.
type RunEventStore struct {
	pool *Pool
}

// NewRunEventStore creates a new Postgres-backed run event store.
func NewRunEventStore(pool *Pool) *RunEventStore {
	return &RunEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunEventStore = (*RunEventStore)(nil)

// Append adds one event.
func (s *RunEventStore) Append(ctx context.Context, e *domain.RunEvent) error {
	if e == nil || e.RunID == "" {
		return storage.ErrInvalidInput
	}

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO run_events (
			run_id, step, ts, event_type,
			orders_submitted, orders_filled, orders_rejected,
			risk_severity, risk_reasons,
			price, signal, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		e.RunID, e.Step, ts.UTC(), e.Type,
		e.OrdersSubmitted, e.OrdersFilled, e.OrdersRejected,
		e.RiskSeverity, e.RiskReasons,
		e.Price, e.Signal, e.Position,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run event: %w", err)
	}
	return nil
}

// TailByRun retrieves the most recent limit events for a run, oldest-first.
func (s *RunEventStore) TailByRun(ctx context.Context, runID string, limit int) ([]*domain.RunEvent, error) {
	query := `
		SELECT run_id, step, ts, event_type,
		       orders_submitted, orders_filled, orders_rejected,
		       risk_severity, risk_reasons,
		       price, signal, position
		FROM (
			SELECT * FROM run_events
			WHERE run_id = $1
			ORDER BY ts DESC, step DESC
			LIMIT $2
		) tail
		ORDER BY ts ASC, step ASC
	`

	// Postgres LIMIT NULL means no limit.
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := s.pool.Query(ctx, query, runID, lim)
	if err != nil {
		return nil, fmt.Errorf("query run events: %w", err)
	}
	defer rows.Close()

	var out []*domain.RunEvent
	for rows.Next() {
		e := &domain.RunEvent{}
		if err := rows.Scan(
			&e.RunID, &e.Step, &e.Timestamp, &e.Type,
			&e.OrdersSubmitted, &e.OrdersFilled, &e.OrdersRejected,
			&e.RiskSeverity, &e.RiskReasons,
			&e.Price, &e.Signal, &e.Position,
		); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run events: %w", err)
	}
	return out, nil
}

// CountByRun returns the number of events recorded for a run.
func (s *RunEventStore) CountByRun(ctx context.Context, runID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM run_events WHERE run_id = $1`, runID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count run events: %w", err)
	}
	return count, nil
}
