package clickhouse

import (
	"context"
	"fmt"
	"time"

	"trading-core/internal/domain"
	"trading-core/internal/storage"
)

// RunEventStore implements storage.RunEventStore using ClickHouse.
// Events are a high-volume append-only stream, which is exactly the shape
// MergeTree is built for.
type RunEventStore struct {
	conn *Conn
}

// NewRunEventStore creates a new ClickHouse-backed run event store.
func NewRunEventStore(conn *Conn) *RunEventStore {
	return &RunEventStore{conn: conn}
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

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO run_events (
			run_id, step, ts, event_type,
			orders_submitted, orders_filled, orders_rejected,
			risk_severity, risk_reasons,
			price, signal, position
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	reasons := e.RiskReasons
	if reasons == nil {
		reasons = []string{}
	}

	if err := batch.Append(
		e.RunID, e.Step, ts.UTC(), e.Type,
		int32(e.OrdersSubmitted), int32(e.OrdersFilled), int32(e.OrdersRejected),
		e.RiskSeverity, reasons,
		e.Price, int32(e.Signal), e.Position,
	); err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
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
		FROM run_events
		WHERE run_id = ?
		ORDER BY ts DESC, step DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query run events: %w", err)
	}
	defer rows.Close()

	var newestFirst []*domain.RunEvent
	for rows.Next() {
		e := &domain.RunEvent{}
		var submitted, filled, rejected, signal int32
		if err := rows.Scan(
			&e.RunID, &e.Step, &e.Timestamp, &e.Type,
			&submitted, &filled, &rejected,
			&e.RiskSeverity, &e.RiskReasons,
			&e.Price, &signal, &e.Position,
		); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		e.OrdersSubmitted = int(submitted)
		e.OrdersFilled = int(filled)
		e.OrdersRejected = int(rejected)
		e.Signal = int(signal)
		newestFirst = append(newestFirst, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run events: %w", err)
	}

	// Reverse to oldest-first for the caller.
	out := make([]*domain.RunEvent, len(newestFirst))
	for i, e := range newestFirst {
		out[len(newestFirst)-1-i] = e
	}
	return out, nil
}

// CountByRun returns the number of events recorded for a run.
func (s *RunEventStore) CountByRun(ctx context.Context, runID string) (int, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM run_events WHERE run_id = ?`, runID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count run events: %w", err)
	}
	return int(count), nil
}
