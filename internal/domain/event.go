package domain

import "time"

// Run event types written by the execution pipeline and session loops.
const (
	EventSessionStarted = "session_started"
	EventSessionStopped = "session_stopped"
	EventSessionFailed  = "session_failed"
	EventOrdersExecuted = "orders_executed"
	EventOrdersRejected = "orders_rejected"
	EventRiskBlocked    = "risk_blocked"
	EventGatingBlocked  = "gating_blocked"
	EventStep           = "step"
)

// Run categories recorded against ledger entries and queried by the risk
// limiter when aggregating today's realized PnL.
const (
	RunCategoryShadow  = "shadow"
	RunCategoryTestnet = "testnet"
	RunCategoryReplay  = "replay"
)

// RunEvent is one structured, append-only observability record for a run.
type RunEvent struct {
	RunID     string
	Step      int64
	Timestamp time.Time
	Type      string

	OrdersSubmitted int
	OrdersFilled    int
	OrdersRejected  int

	// Risk outcome of the step, empty when no risk check ran.
	RiskSeverity string
	RiskReasons  []string

	Price    float64
	Signal   int
	Position float64

	Detail map[string]string
}

// PnLEntry is one realized-PnL ledger record.
type PnLEntry struct {
	RunID       string
	RunCategory string
	Symbol      string
	RealizedPnL float64
	RecordedAt  time.Time
}
