package memory

import (
	"context"
	"testing"
	"time"

	"trading-core/internal/domain"
	"trading-core/internal/storage"
)

func TestRunEventStore_AppendAndTail(t *testing.T) {
	store := NewRunEventStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := &domain.RunEvent{
			RunID:     "run-1",
			Step:      int64(i),
			Timestamp: time.Now(),
			Type:      domain.EventStep,
		}
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	events, err := store.TailByRun(ctx, "run-1", 3)
	if err != nil {
		t.Fatalf("TailByRun failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	// Oldest-first within the tail window.
	if events[0].Step != 2 || events[2].Step != 4 {
		t.Errorf("Tail returned wrong window: steps %d..%d", events[0].Step, events[2].Step)
	}

	count, err := store.CountByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("CountByRun failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected count 5, got %d", count)
	}
}

func TestRunEventStore_TailUnknownRunEmpty(t *testing.T) {
	store := NewRunEventStore()

	events, err := store.TailByRun(context.Background(), "missing", 10)
	if err != nil {
		t.Fatalf("TailByRun failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected no events, got %d", len(events))
	}
}

func TestRunEventStore_RejectsInvalid(t *testing.T) {
	store := NewRunEventStore()

	if err := store.Append(context.Background(), nil); err != storage.ErrInvalidInput {
		t.Errorf("nil event: got %v, want ErrInvalidInput", err)
	}
	if err := store.Append(context.Background(), &domain.RunEvent{}); err != storage.ErrInvalidInput {
		t.Errorf("missing run id: got %v, want ErrInvalidInput", err)
	}
}

func TestRunEventStore_CopiesOnWrite(t *testing.T) {
	store := NewRunEventStore()
	ctx := context.Background()

	e := &domain.RunEvent{RunID: "run-1", Step: 1}
	if err := store.Append(ctx, e); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	e.Step = 99

	events, _ := store.TailByRun(ctx, "run-1", 0)
	if events[0].Step != 1 {
		t.Error("store must not alias caller memory")
	}
}
