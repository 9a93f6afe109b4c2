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

func TestRunEventStore_AppendAndTail(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunEventStore(pool)

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		e := &domain.RunEvent{
			RunID:           "run-abc",
			Step:            int64(i),
			Timestamp:       base.Add(time.Duration(i) * time.Second),
			Type:            domain.EventStep,
			OrdersSubmitted: 1,
			OrdersFilled:    1,
			RiskSeverity:    "ok",
			RiskReasons:     []string{},
			Price:           100 + float64(i),
			Signal:          1,
			Position:        0.5,
		}
		require.NoError(t, store.Append(ctx, e))
	}

	events, err := store.TailByRun(ctx, "run-abc", 4)
	require.NoError(t, err)
	require.Len(t, events, 4)

	// Oldest-first within the tail window: steps 2..5.
	assert.Equal(t, int64(2), events[0].Step)
	assert.Equal(t, int64(5), events[3].Step)
	assert.Equal(t, domain.EventStep, events[0].Type)
	assert.InDelta(t, 102.0, events[0].Price, 1e-9)

	count, err := store.CountByRun(ctx, "run-abc")
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	// No limit returns everything.
	events, err = store.TailByRun(ctx, "run-abc", 0)
	require.NoError(t, err)
	assert.Len(t, events, 6)
}

func TestRunEventStore_DuplicateAppendReturnsTypedError(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunEventStore(pool)

	e := &domain.RunEvent{
		RunID:     "run-dup",
		Step:      7,
		Timestamp: time.Now().UTC(),
		Type:      domain.EventStep,
	}
	require.NoError(t, store.Append(ctx, e))

	// Same (run_id, step, event_type) is a replayed append, not new history.
	err := store.Append(ctx, e)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	// A different event type at the same step is fine.
	other := &domain.RunEvent{
		RunID:     "run-dup",
		Step:      7,
		Timestamp: time.Now().UTC(),
		Type:      domain.EventOrdersExecuted,
	}
	require.NoError(t, store.Append(ctx, other))

	count, err := store.CountByRun(ctx, "run-dup")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunEventStore_ReasonsRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunEventStore(pool)

	e := &domain.RunEvent{
		RunID:        "run-risk",
		Step:         1,
		Timestamp:    time.Now().UTC(),
		Type:         domain.EventRiskBlocked,
		RiskSeverity: "block",
		RiskReasons:  []string{"max order notional exceeded", "total exposure exceeded"},
	}
	require.NoError(t, store.Append(ctx, e))

	events, err := store.TailByRun(ctx, "run-risk", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, []string{"max order notional exceeded", "total exposure exceeded"}, events[0].RiskReasons)
}
