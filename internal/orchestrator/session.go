package orchestrator

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"trading-core/internal/domain"
	"trading-core/internal/execution"
	"trading-core/internal/feed"
	"trading-core/internal/observability"
	"trading-core/internal/runlog"
	"trading-core/internal/strategy"
)

// session is one running trading loop. Its lifecycle state is owned here;
// the orchestrator only reads snapshots and cancels the context.
type session struct {
	mu     sync.Mutex
	status domain.SessionStatus

	cancel context.CancelFunc
	done   chan struct{}

	feed     feed.Feed
	strat    strategy.Strategy
	pipe     *execution.Pipeline
	marker   execution.PriceMarker
	events   *runlog.Logger
	metrics  *observability.Metrics
	logger   *log.Logger
	baseSize float64
}

// Status returns a consistent snapshot of the session.
func (s *session) Status() *domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.status
	return &snapshot
}

// setState transitions the lifecycle state. Terminal states are final: a
// transition out of one is silently dropped.
func (s *session) setState(state domain.RunState, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.State.Terminal() {
		return
	}
	s.status.State = state
	if lastErr != nil {
		s.status.LastError = lastErr.Error()
	}
	if state.Terminal() {
		s.status.EndedAt = time.Now().UTC()
	}
}

func (s *session) bumpStep() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Steps++
	return s.status.Steps
}

// run is the session loop. The feed paces it; context cancellation is the
// stop flag. Loop exit decides the terminal state: a cancelled context or a
// closed feed means Stopped, anything else means Failed.
func (s *session) run(ctx context.Context) {
	defer close(s.done)

	runID := s.status.RunID
	s.events.Log(ctx, &domain.RunEvent{
		Type: domain.EventSessionStarted,
		Detail: map[string]string{
			"mode":     string(s.status.Mode),
			"strategy": s.status.Strategy,
			"symbol":   s.status.Symbol,
		},
	})

	window := make([]domain.Candle, 0, s.windowCap())
	var (
		position   float64
		lastSignal int
		loopErr    error
	)

loop:
	for {
		candle, err := s.feed.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			case errors.Is(err, feed.ErrFeedClosed):
			default:
				loopErr = err
			}
			break loop
		}

		step := s.bumpStep()
		if s.marker != nil {
			s.marker.MarkPrice(candle.Symbol, candle.Close)
		}

		window = append(window, *candle)
		if len(window) > s.windowCap() {
			window = window[1:]
		}

		signal := s.strat.Signal(window)
		if signal == lastSignal {
			continue
		}

		orders, err := s.pipe.SignalToOrders(execution.SignalChange{
			Symbol: candle.Symbol,
			From:   lastSignal,
			To:     signal,
		}, s.baseSize, position)
		if err != nil {
			loopErr = err
			break loop
		}
		lastSignal = signal
		if len(orders) == 0 {
			continue
		}

		start := time.Now()
		res := s.pipe.ExecuteWithSafety(ctx, orders, execution.SafetyContext{
			CurrentPrices: map[string]float64{candle.Symbol: candle.Close},
		})
		if s.metrics != nil {
			s.metrics.ExecutionLatency.Observe(time.Since(start).Seconds())
		}
		if res.RiskCheck != nil {
			s.metrics.ObserveRiskCheck(res.RiskCheck.Severity.String())
		}

		filled, rejected := 0, 0
		for _, r := range res.Results {
			if r.Filled() {
				filled++
			} else {
				rejected++
			}
			position += r.SignedFillQuantity()
		}
		if res.Rejected {
			rejected = len(orders)
		}
		s.metrics.ObserveBatch(filled, rejected)

		s.events.Log(ctx, &domain.RunEvent{
			Type:            domain.EventStep,
			Step:            step,
			OrdersSubmitted: len(orders),
			OrdersFilled:    filled,
			OrdersRejected:  rejected,
			Price:           candle.Close,
			Signal:          signal,
			Position:        position,
		})

		if res.Rejected {
			s.logger.Printf("session %s: batch rejected: %s", runID, res.Reason)
		}
	}

	if loopErr != nil {
		s.setState(domain.RunStateFailed, loopErr)
		s.events.Log(context.Background(), &domain.RunEvent{
			Type:   domain.EventSessionFailed,
			Detail: map[string]string{"error": loopErr.Error()},
		})
		if s.metrics != nil {
			s.metrics.SessionsFailed.Inc()
		}
	} else {
		s.setState(domain.RunStateStopped, nil)
		s.events.Log(context.Background(), &domain.RunEvent{
			Type: domain.EventSessionStopped,
		})
		if s.metrics != nil {
			s.metrics.SessionsStopped.Inc()
		}
	}
	if s.metrics != nil {
		s.metrics.SessionsRunning.Dec()
	}
	if err := s.feed.Close(); err != nil {
		s.logger.Printf("session %s: feed close: %v", runID, err)
	}
}

// windowCap bounds the rolling candle window. Three times the strategy's
// minimum keeps enough history without unbounded growth.
func (s *session) windowCap() int {
	n := s.strat.MinCandles() * 3
	if n < 64 {
		n = 64
	}
	return n
}
