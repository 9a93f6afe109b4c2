package storage

import (
	"context"
	"time"

	"trading-core/internal/domain"
)

// RunEventStore provides append-only access to structured run events.
// The core never reads events back except to serve tail queries.
type RunEventStore interface {
	// Append adds one event. Events are never updated or deleted.
	Append(ctx context.Context, e *domain.RunEvent) error

	// TailByRun retrieves the most recent limit events for a run,
	// ordered oldest-first. limit <= 0 means all events.
	TailByRun(ctx context.Context, runID string, limit int) ([]*domain.RunEvent, error)

	// CountByRun returns the number of events recorded for a run.
	CountByRun(ctx context.Context, runID string) (int, error)
}

// PnLLedger provides read access to realized-PnL history plus an append
// operation for session loops. The ledger is append-only; the risk limiter
// only ever reads today's aggregate.
type PnLLedger interface {
	// Append records one realized-PnL entry.
	Append(ctx context.Context, e *domain.PnLEntry) error

	// DailyRealizedPnL sums realized PnL recorded on the UTC day of `day`,
	// restricted to the given run categories. Empty categories means all.
	DailyRealizedPnL(ctx context.Context, day time.Time, categories []string) (float64, error)
}
