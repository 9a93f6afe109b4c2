package postgres

import (
	"context"
	"fmt"
	"time"

	"trading-core/internal/domain"
	"trading-core/internal/storage"
)

// PnLLedger implements storage.PnLLedger using Postgres.
type PnLLedger struct {
	pool *Pool
}

// NewPnLLedger creates a new Postgres-backed PnL ledger.
func NewPnLLedger(pool *Pool) *PnLLedger {
	return &PnLLedger{pool: pool}
}

// Compile-time interface check.
var _ storage.PnLLedger = (*PnLLedger)(nil)

// Append records one realized-PnL entry.
func (l *PnLLedger) Append(ctx context.Context, e *domain.PnLEntry) error {
	if e == nil || e.RunCategory == "" {
		return storage.ErrInvalidInput
	}

	recordedAt := e.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	_, err := l.pool.Exec(ctx, `
		INSERT INTO pnl_ledger (run_id, run_category, symbol, realized_pnl, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.RunID, e.RunCategory, e.Symbol, e.RealizedPnL, recordedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert pnl entry: %w", err)
	}
	return nil
}

// DailyRealizedPnL sums realized PnL recorded on the UTC day of `day`,
// restricted to the given run categories. Empty categories means all.
func (l *PnLLedger) DailyRealizedPnL(ctx context.Context, day time.Time, categories []string) (float64, error) {
	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	query := `
		SELECT COALESCE(SUM(realized_pnl), 0)
		FROM pnl_ledger
		WHERE recorded_at >= $1 AND recorded_at < $2
	`
	args := []any{dayStart, dayEnd}
	if len(categories) > 0 {
		query += ` AND run_category = ANY($3)`
		args = append(args, categories)
	}

	var total float64
	if err := l.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum daily realized pnl: %w", err)
	}
	return total, nil
}
