// Package orchestrator manages the lifecycle of trading sessions: a
// registry of runs, each driven by its own goroutine, stopped through
// context cancellation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"trading-core/internal/domain"
	"trading-core/internal/environment"
	"trading-core/internal/execution"
	"trading-core/internal/feed"
	"trading-core/internal/idgen"
	"trading-core/internal/observability"
	"trading-core/internal/risk"
	"trading-core/internal/runlog"
	"trading-core/internal/storage"
	"trading-core/internal/strategy"
)

// ErrRunNotFound is returned for run ids the registry has never seen.
var ErrRunNotFound = errors.New("run not found")

// FeedFactory builds the candle source for a new session.
type FeedFactory func(ctx context.Context, opts StartOptions) (feed.Feed, error)

// Options wires an Orchestrator. Only Env is required to start testnet
// runs; everything else degrades gracefully when absent.
type Options struct {
	Env        environment.Config
	EventStore storage.RunEventStore
	Limiter    *risk.Limiter
	Readiness  ReadinessChecker
	Metrics    *observability.Metrics
	Logger     *log.Logger

	// ShadowFeed and TestnetFeed build candle sources per mode. Nil
	// defaults to a simulated feed.
	ShadowFeed  FeedFactory
	TestnetFeed FeedFactory
}

// Orchestrator owns the session registry.
type Orchestrator struct {
	env        environment.Config
	eventStore storage.RunEventStore
	limiter    *risk.Limiter
	readiness  ReadinessChecker
	metrics    *observability.Metrics
	logger     *log.Logger

	shadowFeed  FeedFactory
	testnetFeed FeedFactory

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	shadowFeed := opts.ShadowFeed
	if shadowFeed == nil {
		shadowFeed = defaultSimFeed
	}
	testnetFeed := opts.TestnetFeed
	if testnetFeed == nil {
		testnetFeed = defaultSimFeed
	}
	return &Orchestrator{
		env:         opts.Env,
		eventStore:  opts.EventStore,
		limiter:     opts.Limiter,
		readiness:   opts.Readiness,
		metrics:     opts.Metrics,
		logger:      logger,
		shadowFeed:  shadowFeed,
		testnetFeed: testnetFeed,
		sessions:    make(map[string]*session),
	}
}

func defaultSimFeed(_ context.Context, opts StartOptions) (feed.Feed, error) {
	return feed.NewSimFeed(feed.SimConfig{
		Symbol:   opts.Symbol,
		Interval: 100 * time.Millisecond,
	}), nil
}

// StartOptions describes a session to start.
type StartOptions struct {
	Strategy  string
	Symbol    string
	Timeframe string
	Notes     string

	// BaseSize is the position size one full signal targets. Zero defaults
	// to 1.
	BaseSize float64
}

func (o StartOptions) validate() error {
	if strings.TrimSpace(o.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if _, err := strategy.FromKey(o.Strategy); err != nil {
		return err
	}
	return nil
}

// StartShadowRun registers and starts a shadow session. Orders fill
// nominally at observed prices; nothing leaves the process.
func (o *Orchestrator) StartShadowRun(ctx context.Context, opts StartOptions) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	executor := execution.NewShadowExecutor()
	return o.start(ctx, domain.RunModeShadow, opts, executor, executor, o.shadowFeed)
}

// StartTestnetRun registers and starts a testnet session. The readiness
// pre-flight must pass before the session exists at all: a failure returns
// a ReadinessError and leaves no registry entry behind.
func (o *Orchestrator) StartTestnetRun(ctx context.Context, opts StartOptions) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	if o.readiness != nil {
		if err := o.readiness.CheckReadiness(ctx); err != nil {
			return "", &ReadinessError{Cause: err}
		}
	}

	guard := environment.NewGuard(o.env)
	executor := execution.NewTestnetExecutor(guard)
	return o.start(ctx, domain.RunModeTestnet, opts, executor, executor, o.testnetFeed)
}

func (o *Orchestrator) start(ctx context.Context, mode domain.RunMode, opts StartOptions, executor execution.OrderExecutor, marker execution.PriceMarker, feedFactory FeedFactory) (string, error) {
	strat, err := strategy.FromKey(opts.Strategy)
	if err != nil {
		return "", err
	}

	baseSize := opts.BaseSize
	if baseSize <= 0 {
		baseSize = 1
	}

	f, err := feedFactory(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("open feed: %w", err)
	}

	runID := idgen.NewRunID()

	var guard *environment.Guard
	if mode == domain.RunModeTestnet {
		guard = environment.NewGuard(o.env)
	}
	pipe, err := execution.NewPipeline(execution.Options{
		Config:   execution.Config{GenerateClientIDs: true},
		Executor: executor,
		Env:      &o.env,
		Guard:    guard,
		Limiter:  o.limiter,
		RunLog:   runlog.NewLogger(runID, o.eventStore, o.logger).WithMetrics(o.metrics),
		Metrics:  o.metrics,
		Logger:   o.logger,
	})
	if err != nil {
		f.Close()
		return "", err
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	s := &session{
		status: domain.SessionStatus{
			RunID:     runID,
			Mode:      mode,
			Strategy:  opts.Strategy,
			Symbol:    opts.Symbol,
			Timeframe: opts.Timeframe,
			Notes:     opts.Notes,
			State:     domain.RunStatePending,
			StartedAt: time.Now().UTC(),
		},
		cancel:   cancel,
		done:     make(chan struct{}),
		feed:     f,
		strat:    strat,
		pipe:     pipe,
		marker:   marker,
		events:   runlog.NewLogger(runID, o.eventStore, o.logger).WithMetrics(o.metrics),
		metrics:  o.metrics,
		logger:   o.logger,
		baseSize: baseSize,
	}

	o.mu.Lock()
	o.sessions[runID] = s
	o.mu.Unlock()

	s.setState(domain.RunStateRunning, nil)
	if o.metrics != nil {
		o.metrics.SessionsStarted.WithLabelValues(string(mode)).Inc()
		o.metrics.SessionsRunning.Inc()
	}
	go s.run(sessionCtx)

	o.logger.Printf("orchestrator: started %s run %s (%s %s)", mode, runID, opts.Strategy, opts.Symbol)
	return runID, nil
}

// GetStatus returns a snapshot of one session.
func (o *Orchestrator) GetStatus(runID string) (*domain.SessionStatus, error) {
	o.mu.Lock()
	s, ok := o.sessions[runID]
	o.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return s.Status(), nil
}

// AllStatuses returns snapshots of every known session, including
// terminated ones.
func (o *Orchestrator) AllStatuses() []*domain.SessionStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*domain.SessionStatus, 0, len(o.sessions))
	for _, s := range o.sessions {
		out = append(out, s.Status())
	}
	return out
}

// StopRun requests a cooperative stop. Stopping an already-terminated
// session is a no-op; an unknown run id is an error.
func (o *Orchestrator) StopRun(runID string) error {
	o.mu.Lock()
	s, ok := o.sessions[runID]
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if s.Status().State.Terminal() {
		return nil
	}
	s.cancel()
	return nil
}

// StopAll cancels every live session and waits for their loops to exit.
func (o *Orchestrator) StopAll() {
	o.mu.Lock()
	sessions := make([]*session, 0, len(o.sessions))
	for _, s := range o.sessions {
		sessions = append(sessions, s)
	}
	o.mu.Unlock()

	for _, s := range sessions {
		s.cancel()
	}
	for _, s := range sessions {
		<-s.done
	}
}

// TailEvents returns the most recent limit events for a run, oldest-first.
func (o *Orchestrator) TailEvents(ctx context.Context, runID string, limit int) ([]*domain.RunEvent, error) {
	o.mu.Lock()
	_, ok := o.sessions[runID]
	o.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return runlog.Tail(ctx, o.eventStore, runID, limit)
}
