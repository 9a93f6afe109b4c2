package execution

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"trading-core/internal/domain"
	"trading-core/internal/environment"
	"trading-core/internal/idgen"
	"trading-core/internal/observability"
	"trading-core/internal/risk"
	"trading-core/internal/runlog"
)

// liveBlockReason is the pipeline's own rail against live dispatch. It is
// deliberately independent of the safety guard: even a fully armed live
// config stops here.
const liveBlockReason = "live execution unsupported by this generation of the pipeline"

// gateLiveRail labels the pipeline's own live rail in the gating-rejection
// metric, next to the guard's GateKind values.
const gateLiveRail = "live_pipeline_rail"

// epsilonQty is the smallest position delta worth an order.
const epsilonQty = 1e-9

// Config tunes signal translation and dispatch.
type Config struct {
	// DefaultOrderType is used for orders generated from signals.
	// Empty defaults to market.
	DefaultOrderType domain.OrderType

	// SizingFraction scales the base size when converting a signal into a
	// target position. Zero or negative defaults to 1.
	SizingFraction float64

	// GenerateClientIDs assigns a client order id to every dispatched order
	// that does not already carry one.
	GenerateClientIDs bool
}

// Options wires a pipeline. Executor is required; everything else is
// optional, and an unwired pipeline degrades to pure simulation with no
// gating. That degraded mode is supported, not an error.
type Options struct {
	Config   Config
	Executor OrderExecutor

	Env     *environment.Config
	Guard   *environment.Guard
	Limiter *risk.Limiter
	RunLog  *runlog.Logger
	Metrics *observability.Metrics
	Logger  *log.Logger
}

// Pipeline converts signals into orders and dispatches them, keeping an
// append-only history of every result it produced.
type Pipeline struct {
	cfg      Config
	executor OrderExecutor
	env      *environment.Config
	guard    *environment.Guard
	limiter  *risk.Limiter
	runLog   *runlog.Logger
	metrics  *observability.Metrics
	logger   *log.Logger

	mu      sync.Mutex
	history []*domain.ExecutionResult
	step    int64
}

// NewPipeline creates a pipeline.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Executor == nil {
		return nil, fmt.Errorf("execution: pipeline requires an order executor")
	}
	cfg := opts.Config
	if cfg.DefaultOrderType == "" {
		cfg.DefaultOrderType = domain.OrderTypeMarket
	}
	if cfg.SizingFraction <= 0 {
		cfg.SizingFraction = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		cfg:      cfg,
		executor: opts.Executor,
		env:      opts.Env,
		guard:    opts.Guard,
		limiter:  opts.Limiter,
		runLog:   opts.RunLog,
		metrics:  opts.Metrics,
		logger:   logger,
	}, nil
}

// ExecuteOrders dispatches a batch straight to the executor with no gating.
// Used for historical replay, where the safety chain has nothing to protect.
// One result per input order, always.
func (p *Pipeline) ExecuteOrders(ctx context.Context, orders []*domain.OrderRequest) []*domain.ExecutionResult {
	p.assignClientIDs(orders)

	results := make([]*domain.ExecutionResult, 0, len(orders))
	for _, o := range orders {
		res, err := p.executor.ExecuteOrder(ctx, o)
		if err != nil || res == nil {
			reason := "executor returned no result"
			if err != nil {
				reason = err.Error()
			}
			res = &domain.ExecutionResult{
				Symbol:   o.Symbol,
				Side:     o.Side,
				ClientID: o.ClientID,
				Status:   domain.ExecutionRejected,
				Reason:   reason,
			}
		}
		results = append(results, res)
	}

	p.record(results)
	return results
}

// SignalChange is one discrete signal transition for a symbol. From and To
// are clipped into {-1, 0, +1} before translation.
type SignalChange struct {
	Symbol string
	From   int
	To     int
}

// SignalToOrders converts a signal transition into zero, one, or two
// orders. A flip (long to short or the reverse) with an existing position
// yields exactly two: close the full position, then open desiredSize. A
// plain entry or exit yields one. No change yields none.
func (p *Pipeline) SignalToOrders(change SignalChange, desiredSize, currentPosition float64) ([]*domain.OrderRequest, error) {
	from := clipSignal(change.From)
	to := clipSignal(change.To)
	if from == to {
		return nil, nil
	}

	var orders []*domain.OrderRequest

	// Close whatever is open against the new direction.
	if currentPosition > epsilonQty && to <= 0 {
		o, err := p.newOrder(change.Symbol, domain.SideSell, currentPosition)
		if err != nil {
			return nil, err
		}
		o.SetTag(domain.TagCloseLong)
		orders = append(orders, o)
	}
	if currentPosition < -epsilonQty && to >= 0 {
		o, err := p.newOrder(change.Symbol, domain.SideBuy, -currentPosition)
		if err != nil {
			return nil, err
		}
		o.SetTag(domain.TagCloseShort)
		orders = append(orders, o)
	}

	// Open in the new direction.
	if to != 0 && desiredSize > epsilonQty {
		side, tag := domain.SideBuy, domain.TagEntryLong
		if to < 0 {
			side, tag = domain.SideSell, domain.TagEntryShort
		}
		o, err := p.newOrder(change.Symbol, side, desiredSize)
		if err != nil {
			return nil, err
		}
		o.SetTag(tag)
		orders = append(orders, o)
	}

	return orders, nil
}

// ExecuteFromSignals replays a signal series against a price series. Signals
// are forward-filled onto the price timeline and clipped; on each signal
// change one delta order is emitted toward targetPosition = signal × base
// size. The running position advances strictly from realized fills, never
// from order intent.
func (p *Pipeline) ExecuteFromSignals(ctx context.Context, signals []domain.SignalPoint, prices []domain.PricePoint, symbol string, baseSize float64) ([]*domain.ExecutionResult, error) {
	if baseSize <= 0 {
		return nil, fmt.Errorf("execution: base size must be positive, got %v", baseSize)
	}

	aligned := alignSignals(signals, prices)
	marker, canMark := p.executor.(PriceMarker)

	var (
		results  []*domain.ExecutionResult
		position float64
		prev     = 0
	)
	for i, bar := range prices {
		if canMark {
			marker.MarkPrice(symbol, bar.Price)
		}

		sig := aligned[i]
		if sig == prev {
			continue
		}
		prev = sig

		target := float64(sig) * baseSize * p.cfg.SizingFraction
		delta := target - position
		if math.Abs(delta) < epsilonQty {
			continue
		}

		side := domain.SideBuy
		if delta < 0 {
			side = domain.SideSell
		}
		order, err := p.newOrder(symbol, side, math.Abs(delta))
		if err != nil {
			return results, err
		}
		order.Notional = math.Abs(delta) * bar.Price

		batch := p.ExecuteOrders(ctx, []*domain.OrderRequest{order})
		results = append(results, batch...)
		for _, res := range batch {
			position += res.SignedFillQuantity()
		}
	}
	return results, nil
}

// SafetyContext carries the per-call inputs to ExecuteWithSafety.
type SafetyContext struct {
	// CurrentPrices feeds the risk limiter's notional resolution.
	CurrentPrices map[string]float64

	// PnLEstimate, when set, joins the ledger figure conservatively in the
	// daily-loss check.
	PnLEstimate *float64
}

// SafetyResult is the outcome of a gated dispatch attempt.
type SafetyResult struct {
	// Rejected means no order reached the executor.
	Rejected bool
	// Reason identifies the rail or gate that rejected the batch.
	Reason string
	// RiskCheck is the limiter's verdict, nil when no limiter is wired or an
	// earlier gate rejected first.
	RiskCheck *risk.CheckResult
	// Results holds per-order outcomes, empty on rejection.
	Results []*domain.ExecutionResult
}

// ExecuteWithSafety runs the full admission chain before dispatch, in fixed
// order: the pipeline's own live rail, then the safety guard, then the risk
// limiter, then the executor. Any rejection short-circuits before the
// executor is touched. Event emission on both paths is best-effort.
func (p *Pipeline) ExecuteWithSafety(ctx context.Context, orders []*domain.OrderRequest, sc SafetyContext) *SafetyResult {
	// Rail 1: Live never dispatches here, wired guard or not.
	if p.env != nil && p.env.Environment == environment.Live {
		return p.reject(ctx, orders, liveBlockReason, gateLiveRail, nil, domain.EventGatingBlocked)
	}

	// Rail 2: the safety guard's gating chain.
	if p.guard != nil {
		isTestnet := p.guard.Config().Environment == environment.Testnet
		if err := p.guard.EnsureMayPlaceOrder(isTestnet); err != nil {
			// Testnet dry-run is handled downstream by the executor as a
			// validate-only fill, not a batch rejection.
			if !environment.IsGatingError(err, environment.GateTestnetDryRun) {
				return p.reject(ctx, orders, err.Error(), gateLabel(err), nil, domain.EventGatingBlocked)
			}
		}
	}

	// Rail 3: risk admission.
	var check *risk.CheckResult
	if p.limiter != nil {
		check = p.limiter.CheckOrders(ctx, orders, risk.CheckOptions{
			CurrentPrices: sc.CurrentPrices,
			PnLEstimate:   sc.PnLEstimate,
		})
		if !check.Allowed {
			if p.limiter.Enforcing() {
				reason := "risk check blocked batch"
				if len(check.Reasons) > 0 {
					reason = check.Reasons[0]
				}
				return p.reject(ctx, orders, reason, "", check, domain.EventRiskBlocked)
			}
			p.logger.Printf("execution: risk violations observed but not enforced: %v", check.Reasons)
		}
	}

	results := p.ExecuteOrders(ctx, orders)

	filled, rejected := 0, 0
	for _, r := range results {
		if r.Filled() {
			filled++
		} else {
			rejected++
		}
	}
	p.logEvent(ctx, &domain.RunEvent{
		Type:            domain.EventOrdersExecuted,
		OrdersSubmitted: len(orders),
		OrdersFilled:    filled,
		OrdersRejected:  rejected,
		RiskSeverity:    severityLabel(check),
		RiskReasons:     reasonsOf(check),
	})

	return &SafetyResult{RiskCheck: check, Results: results}
}

// Summary returns aggregate statistics derived purely from the execution
// history.
func (p *Pipeline) Summary() domain.ExecutionSummary {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := domain.ExecutionSummary{TotalOrders: len(p.history)}
	for _, r := range p.history {
		if r.Filled() {
			s.FilledOrders++
			s.TotalNotional += r.Notional
			s.TotalFees += r.Fee
		} else {
			s.RejectedOrders++
		}
	}
	if s.TotalOrders > 0 {
		s.FillRate = float64(s.FilledOrders) / float64(s.TotalOrders)
	}
	return s
}

// History returns a copy of the execution history in dispatch order.
func (p *Pipeline) History() []*domain.ExecutionResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.ExecutionResult, len(p.history))
	copy(out, p.history)
	return out
}

func (p *Pipeline) newOrder(symbol string, side domain.Side, qty float64) (*domain.OrderRequest, error) {
	return domain.NewOrderRequest(symbol, side, qty, p.cfg.DefaultOrderType, 0)
}

func (p *Pipeline) assignClientIDs(orders []*domain.OrderRequest) {
	if !p.cfg.GenerateClientIDs {
		return
	}
	for _, o := range orders {
		if o.ClientID == "" {
			o.ClientID = idgen.NewClientOrderID()
		}
	}
}

func (p *Pipeline) record(results []*domain.ExecutionResult) {
	p.mu.Lock()
	p.history = append(p.history, results...)
	p.mu.Unlock()
}

// reject short-circuits a batch. A non-empty gate names the safety gate in
// the gating-rejection metric; risk blocks pass "" and are counted through
// the risk-check metric instead.
func (p *Pipeline) reject(ctx context.Context, orders []*domain.OrderRequest, reason, gate string, check *risk.CheckResult, eventType string) *SafetyResult {
	if gate != "" {
		p.metrics.ObserveGatingRejection(gate)
	}
	p.logEvent(ctx, &domain.RunEvent{
		Type:            eventType,
		OrdersSubmitted: len(orders),
		OrdersRejected:  len(orders),
		RiskSeverity:    severityLabel(check),
		RiskReasons:     reasonsOf(check),
		Detail:          map[string]string{"reason": reason},
	})
	return &SafetyResult{Rejected: true, Reason: reason, RiskCheck: check}
}

func (p *Pipeline) logEvent(ctx context.Context, e *domain.RunEvent) {
	p.mu.Lock()
	p.step++
	e.Step = p.step
	p.mu.Unlock()
	p.runLog.Log(ctx, e)
}

// gateLabel maps a guard rejection onto its GateKind for metric labelling.
func gateLabel(err error) string {
	var ge *environment.GatingError
	if errors.As(err, &ge) {
		return string(ge.Kind)
	}
	return "unknown"
}

func severityLabel(check *risk.CheckResult) string {
	if check == nil {
		return ""
	}
	return check.Severity.String()
}

func reasonsOf(check *risk.CheckResult) []string {
	if check == nil {
		return nil
	}
	return check.Reasons
}
