package memory

import (
	"context"
	"sync"
	"time"

	"trading-core/internal/domain"
	"trading-core/internal/storage"
)

// PnLLedger is an in-memory implementation of storage.PnLLedger.
type PnLLedger struct {
	mu      sync.RWMutex
	entries []*domain.PnLEntry
}

// NewPnLLedger creates a new in-memory PnL ledger.
func NewPnLLedger() *PnLLedger {
	return &PnLLedger{}
}

// Compile-time interface check.
var _ storage.PnLLedger = (*PnLLedger)(nil)

// Append records one realized-PnL entry.
func (l *PnLLedger) Append(_ context.Context, e *domain.PnLEntry) error {
	if e == nil || e.RunCategory == "" {
		return storage.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cp := *e
	if cp.RecordedAt.IsZero() {
		cp.RecordedAt = time.Now().UTC()
	}
	l.entries = append(l.entries, &cp)
	return nil
}

// DailyRealizedPnL sums realized PnL recorded on the UTC day of `day`,
// restricted to the given run categories.
func (l *PnLLedger) DailyRealizedPnL(_ context.Context, day time.Time, categories []string) (float64, error) {
	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	wanted := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var total float64
	for _, e := range l.entries {
		at := e.RecordedAt.UTC()
		if at.Before(dayStart) || !at.Before(dayEnd) {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[e.RunCategory]; !ok {
				continue
			}
		}
		total += e.RealizedPnL
	}
	return total, nil
}
