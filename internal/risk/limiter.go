package risk

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"trading-core/internal/alert"
	"trading-core/internal/domain"
	"trading-core/internal/storage"
)

// PriceResolver supplies a last-known price for a symbol. Used as the
// final step of the notional fallback chain.
type PriceResolver interface {
	LastPrice(symbol string) (float64, bool)
}

// Limiter is the admission-control engine. It is safe for concurrent use:
// every check reads immutable config and per-call inputs only.
type Limiter struct {
	cfg      Config
	ledger   storage.PnLLedger
	notifier alert.Notifier
	prices   PriceResolver
	logger   *log.Logger
	now      func() time.Time
}

// Options contains configuration for creating a Limiter. Ledger, Notifier,
// and Prices are optional; their absence disables the respective behavior.
type Options struct {
	Config   Config
	Ledger   storage.PnLLedger
	Notifier alert.Notifier
	Prices   PriceResolver
	Logger   *log.Logger

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// New creates a limiter after validating the config.
func New(opts Options) (*Limiter, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		cfg:      opts.Config,
		ledger:   opts.Ledger,
		notifier: opts.Notifier,
		prices:   opts.Prices,
		logger:   logger,
		now:      now,
	}, nil
}

// Enforcing reports the call-site enforcement policy: whether a violation
// should be escalated into a hard stop.
func (l *Limiter) Enforcing() bool { return l.cfg.BlockOnViolation }

// CheckOptions carries per-call inputs to CheckOrders.
type CheckOptions struct {
	// CurrentPrices supplies known prices per symbol, consulted before the
	// limiter's own price resolver.
	CurrentPrices map[string]float64

	// PnLEstimate, when set, is an additional realized-PnL figure (for
	// example from a live snapshot). The limiter takes the more
	// conservative (lower) of this and the ledger figure.
	PnLEstimate *float64
}

// CheckOrders evaluates a proposed order batch against the configured
// thresholds. Metrics are always fully populated, including when the
// batch is allowed or the limiter is disabled.
func (l *Limiter) CheckOrders(ctx context.Context, orders []*domain.OrderRequest, opts CheckOptions) *CheckResult {
	res := newCheckResult()

	var (
		maxOrderNotional float64
		totalNotional    float64
		bySymbol         = make(map[string]float64, len(orders))
	)
	for _, o := range orders {
		n := l.resolveNotional(o, opts.CurrentPrices)
		maxOrderNotional = math.Max(maxOrderNotional, n)
		totalNotional += n
		bySymbol[o.Symbol] += n
	}

	var maxSymbolExposure float64
	for _, n := range bySymbol {
		maxSymbolExposure = math.Max(maxSymbolExposure, n)
	}

	res.Metrics[MetricNOrders] = float64(len(orders))
	res.Metrics[MetricNSymbols] = float64(len(bySymbol))
	res.Metrics[MetricMaxOrderNotional] = maxOrderNotional
	res.Metrics[MetricMaxSymbolExposure] = maxSymbolExposure
	res.Metrics[MetricTotalNotional] = totalNotional

	dailyPnL, haveDaily := l.dailyPnL(ctx, opts.PnLEstimate)
	if haveDaily {
		res.Metrics[MetricDailyRealizedPnL] = dailyPnL
		res.Metrics[MetricDailyLoss] = math.Max(0, -dailyPnL)
		if l.cfg.StartingCapital > 0 {
			res.Metrics[MetricDailyLossPct] = math.Max(0, -dailyPnL) / l.cfg.StartingCapital * 100
		}
	}

	if !l.cfg.Enabled {
		return res
	}

	l.checkDim(res, maxOrderNotional, l.cfg.WarnOrderNotional, l.cfg.MaxOrderNotional,
		"max order notional %.2f exceeds limit %.2f")
	l.checkDim(res, maxSymbolExposure, l.cfg.WarnSymbolExposure, l.cfg.MaxSymbolExposure,
		"symbol exposure %.2f exceeds limit %.2f")
	l.checkDim(res, totalNotional, l.cfg.WarnTotalExposure, l.cfg.MaxTotalExposure,
		"total notional %.2f exceeds limit %.2f")
	l.checkDim(res, float64(len(bySymbol)), float64(l.cfg.WarnOpenPositions), float64(l.cfg.MaxOpenPositions),
		"distinct symbols %.0f exceeds limit %.0f")
	if haveDaily {
		l.checkDailyLoss(res, dailyPnL)
	}

	l.notifyIfBlocked(ctx, res, "order batch")
	return res
}

// EvaluatePortfolio applies the same threshold set to a live portfolio
// snapshot instead of a proposed batch.
func (l *Limiter) EvaluatePortfolio(ctx context.Context, snapshot *domain.PortfolioSnapshot) *CheckResult {
	res := newCheckResult()

	exposure := snapshot.ExposureBySymbol()
	var maxSymbolExposure float64
	for _, n := range exposure {
		maxSymbolExposure = math.Max(maxSymbolExposure, n)
	}
	openPositions := snapshot.OpenPositionCount()

	res.Metrics[MetricNSymbols] = float64(len(exposure))
	res.Metrics[MetricMaxSymbolExposure] = maxSymbolExposure
	res.Metrics[MetricTotalNotional] = snapshot.TotalNotional
	res.Metrics[MetricOpenPositions] = float64(openPositions)

	realized := snapshot.TotalRealizedPnL
	dailyPnL, haveDaily := l.dailyPnL(ctx, &realized)
	if haveDaily {
		res.Metrics[MetricDailyRealizedPnL] = dailyPnL
		res.Metrics[MetricDailyLoss] = math.Max(0, -dailyPnL)
		if l.cfg.StartingCapital > 0 {
			res.Metrics[MetricDailyLossPct] = math.Max(0, -dailyPnL) / l.cfg.StartingCapital * 100
		}
	}

	if !l.cfg.Enabled {
		return res
	}

	l.checkDim(res, maxSymbolExposure, l.cfg.WarnSymbolExposure, l.cfg.MaxSymbolExposure,
		"symbol exposure %.2f exceeds limit %.2f")
	l.checkDim(res, snapshot.TotalNotional, l.cfg.WarnTotalExposure, l.cfg.MaxTotalExposure,
		"total exposure %.2f exceeds limit %.2f")
	l.checkDim(res, float64(openPositions), float64(l.cfg.WarnOpenPositions), float64(l.cfg.MaxOpenPositions),
		"open positions %.0f exceeds limit %.0f")
	if haveDaily {
		l.checkDailyLoss(res, dailyPnL)
	}

	l.notifyIfBlocked(ctx, res, "portfolio")
	return res
}

// resolveNotional resolves an order's notional through the fallback chain:
// explicit notional → quantity × current known price → quantity × last
// known price → 0.
func (l *Limiter) resolveNotional(o *domain.OrderRequest, current map[string]float64) float64 {
	if o.Notional > 0 {
		return o.Notional
	}
	if px, ok := current[o.Symbol]; ok && px > 0 {
		return o.Quantity * px
	}
	if l.prices != nil {
		if px, ok := l.prices.LastPrice(o.Symbol); ok && px > 0 {
			return o.Quantity * px
		}
	}
	return 0
}

// dailyPnL combines the ledger figure for the current UTC day with an
// optional caller-supplied estimate, taking the lower of the two. A ledger
// read failure does not fail the check; the estimate alone is used.
func (l *Limiter) dailyPnL(ctx context.Context, estimate *float64) (float64, bool) {
	var (
		value float64
		have  bool
	)
	if l.ledger != nil {
		pnl, err := l.ledger.DailyRealizedPnL(ctx, l.now().UTC(), l.cfg.RunCategories)
		if err != nil {
			l.logger.Printf("risk: ledger read failed, continuing without ledger figure: %v", err)
		} else {
			value, have = pnl, true
		}
	}
	if estimate != nil {
		if !have || *estimate < value {
			value = *estimate
		}
		have = true
	}
	return value, have
}

// checkDim applies one warn/hard threshold pair to a computed value.
// A zero threshold disables that tier.
func (l *Limiter) checkDim(res *CheckResult, value, warn, hard float64, format string) {
	if hard > 0 && value > hard {
		res.raise(SeverityBlock, fmt.Sprintf(format, value, hard))
		return
	}
	if warn > 0 && value > warn {
		res.raise(SeverityWarn, fmt.Sprintf(strings.Replace(format, "exceeds limit", "exceeds soft limit", 1), value, warn))
	}
}

// checkDailyLoss applies the absolute and percentage loss limits.
func (l *Limiter) checkDailyLoss(res *CheckResult, pnl float64) {
	loss := math.Max(0, -pnl)
	l.checkDim(res, loss, l.cfg.WarnDailyLoss, l.cfg.MaxDailyLoss,
		"daily loss %.2f exceeds limit %.2f")
	if l.cfg.StartingCapital > 0 {
		lossPct := loss / l.cfg.StartingCapital * 100
		l.checkDim(res, lossPct, l.cfg.WarnDailyLossPct, l.cfg.MaxDailyLossPct,
			"daily loss %.2f%% exceeds limit %.2f%%")
	}
}

// notifyIfBlocked emits an alert for a disallowed result. Emission is
// best-effort: any failure, including a panicking notifier, is contained.
func (l *Limiter) notifyIfBlocked(ctx context.Context, res *CheckResult, subject string) {
	if res.Allowed || l.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.logger.Printf("risk: notifier panicked: %v", r)
		}
	}()

	severity := alert.SeverityWarning
	if l.cfg.BlockOnViolation {
		severity = alert.SeverityCritical
	}
	err := l.notifier.Notify(ctx, alert.Alert{
		Severity: severity,
		Title:    fmt.Sprintf("risk check blocked %s", subject),
		Message:  strings.Join(res.Reasons, "; "),
	})
	if err != nil {
		l.logger.Printf("risk: alert emission failed: %v", err)
	}
}
