package risk

// Severity classifies how serious a check outcome is. Ordered:
// OK < WARN < BLOCK.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarn
	SeverityBlock
)

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityBlock:
		return "block"
	case SeverityWarn:
		return "warn"
	default:
		return "ok"
	}
}

// Metric keys populated by every check.
const (
	MetricNOrders           = "nOrders"
	MetricNSymbols          = "nSymbols"
	MetricMaxOrderNotional  = "maxOrderNotional"
	MetricMaxSymbolExposure = "maxSymbolExposure"
	MetricTotalNotional     = "totalNotional"
	MetricOpenPositions     = "openPositions"
	MetricDailyRealizedPnL  = "dailyRealizedPnL"
	MetricDailyLoss         = "dailyLoss"
	MetricDailyLossPct      = "dailyLossPct"
)

// CheckResult is the severity-classified decision of one risk evaluation.
// It is produced per call and never persisted by the core.
type CheckResult struct {
	Allowed  bool
	Severity Severity
	Reasons  []string
	Metrics  map[string]float64
}

func newCheckResult() *CheckResult {
	return &CheckResult{
		Allowed: true,
		Metrics: make(map[string]float64),
	}
}

// raise escalates the overall severity and, for a block, flips Allowed
// and records the reason. Warn reasons are recorded without blocking.
func (r *CheckResult) raise(sev Severity, reason string) {
	if sev > r.Severity {
		r.Severity = sev
	}
	if reason != "" {
		r.Reasons = append(r.Reasons, reason)
	}
	if sev == SeverityBlock {
		r.Allowed = false
	}
}
