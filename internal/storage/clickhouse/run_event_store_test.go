package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-core/internal/domain"
)

func TestRunEventStore_AppendAndTail(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunEventStore(conn)

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := &domain.RunEvent{
			RunID:           "run-ch",
			Step:            int64(i),
			Timestamp:       base.Add(time.Duration(i) * time.Second),
			Type:            domain.EventStep,
			OrdersSubmitted: 2,
			OrdersFilled:    1,
			OrdersRejected:  1,
			RiskSeverity:    "warn",
			RiskReasons:     []string{"symbol exposure near limit"},
			Price:           50 + float64(i),
			Signal:          -1,
			Position:        -1.5,
		}
		require.NoError(t, store.Append(ctx, e))
	}

	events, err := store.TailByRun(ctx, "run-ch", 3)
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Oldest-first within the tail window: steps 2..4.
	assert.Equal(t, int64(2), events[0].Step)
	assert.Equal(t, int64(4), events[2].Step)
	assert.Equal(t, "warn", events[0].RiskSeverity)
	assert.Equal(t, []string{"symbol exposure near limit"}, events[0].RiskReasons)
	assert.Equal(t, -1, events[0].Signal)

	count, err := store.CountByRun(ctx, "run-ch")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestRunEventStore_UnknownRunEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunEventStore(conn)

	events, err := store.TailByRun(context.Background(), "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	count, err := store.CountByRun(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, count)
}
