package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-core/internal/domain"
	"trading-core/internal/storage"
)

func TestPnLLedger_AppendAndDailySum(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	ledger := NewPnLLedger(pool)

	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	entries := []*domain.PnLEntry{
		{RunID: "r1", RunCategory: domain.RunCategoryShadow, Symbol: "BTCUSDT", RealizedPnL: -40, RecordedAt: day},
		{RunID: "r2", RunCategory: domain.RunCategoryTestnet, Symbol: "ETHUSDT", RealizedPnL: 15, RecordedAt: day.Add(2 * time.Hour)},
		{RunID: "r3", RunCategory: domain.RunCategoryShadow, Symbol: "BTCUSDT", RealizedPnL: -100, RecordedAt: day.Add(-24 * time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, ledger.Append(ctx, e))
	}

	total, err := ledger.DailyRealizedPnL(ctx, day, []string{domain.RunCategoryShadow, domain.RunCategoryTestnet})
	require.NoError(t, err)
	assert.InDelta(t, -25.0, total, 1e-9)

	// Category restriction excludes the testnet entry.
	total, err = ledger.DailyRealizedPnL(ctx, day, []string{domain.RunCategoryShadow})
	require.NoError(t, err)
	assert.InDelta(t, -40.0, total, 1e-9)

	// A day with no entries sums to zero.
	total, err = ledger.DailyRealizedPnL(ctx, day.Add(48*time.Hour), nil)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestPnLLedger_RejectsInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ledger := NewPnLLedger(pool)

	err := ledger.Append(context.Background(), &domain.PnLEntry{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
