// Package runlog records structured run events. Writes are best-effort:
// an observability failure is surfaced as a warning at most and never
// blocks the business outcome it was trying to record.
package runlog

import (
	"context"
	"log"
	"time"

	"trading-core/internal/domain"
	"trading-core/internal/observability"
	"trading-core/internal/storage"
)

// Logger appends run events to a backing store.
type Logger struct {
	runID   string
	store   storage.RunEventStore
	metrics *observability.Metrics
	logger  *log.Logger
}

// NewLogger creates a run logger for one run id. A nil store makes every
// write a no-op; a nil text logger falls back to log.Default().
func NewLogger(runID string, store storage.RunEventStore, logger *log.Logger) *Logger {
	if logger == nil {
		logger = log.Default()
	}
	return &Logger{runID: runID, store: store, logger: logger}
}

// WithMetrics makes the logger count successful appends. Nil metrics are
// fine and leave counting off.
func (l *Logger) WithMetrics(m *observability.Metrics) *Logger {
	if l != nil {
		l.metrics = m
	}
	return l
}

// RunID returns the run this logger writes for.
func (l *Logger) RunID() string { return l.runID }

// Log appends one event, filling in run id and timestamp when unset.
// Failures are logged and swallowed.
func (l *Logger) Log(ctx context.Context, e *domain.RunEvent) {
	if l == nil || l.store == nil || e == nil {
		return
	}
	if e.RunID == "" {
		e.RunID = l.runID
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := l.store.Append(ctx, e); err != nil {
		l.logger.Printf("runlog: dropping event %s for %s: %v", e.Type, e.RunID, err)
		return
	}
	l.metrics.ObserveRunEventAppended()
}

// Tail returns the most recent limit events for a run, oldest-first.
// Unlike Log, read failures are returned: the caller asked a question.
func Tail(ctx context.Context, store storage.RunEventStore, runID string, limit int) ([]*domain.RunEvent, error) {
	if store == nil {
		return nil, nil
	}
	return store.TailByRun(ctx, runID, limit)
}
