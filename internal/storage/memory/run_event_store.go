package memory

import (
	"context"
	"sync"

	"trading-core/internal/domain"
	"trading-core/internal/storage"
)

// RunEventStore is an in-memory implementation of storage.RunEventStore.
type RunEventStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.RunEvent // keyed by run_id, append order
}

// NewRunEventStore creates a new in-memory run event store.
func NewRunEventStore() *RunEventStore {
	return &RunEventStore{
		data: make(map[string][]*domain.RunEvent),
	}
}

// Compile-time interface check.
var _ storage.RunEventStore = (*RunEventStore)(nil)

// Append adds one event.
func (s *RunEventStore) Append(_ context.Context, e *domain.RunEvent) error {
	if e == nil || e.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.data[e.RunID] = append(s.data[e.RunID], &cp)
	return nil
}

// TailByRun retrieves the most recent limit events for a run, oldest-first.
func (s *RunEventStore) TailByRun(_ context.Context, runID string, limit int) ([]*domain.RunEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.data[runID]
	start := 0
	if limit > 0 && len(events) > limit {
		start = len(events) - limit
	}

	out := make([]*domain.RunEvent, 0, len(events)-start)
	for _, e := range events[start:] {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// CountByRun returns the number of events recorded for a run.
func (s *RunEventStore) CountByRun(_ context.Context, runID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[runID]), nil
}
