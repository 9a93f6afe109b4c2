package domain

import "time"

// ExecutionStatus is the per-order outcome of a dispatch attempt.
type ExecutionStatus string

const (
	ExecutionFilled   ExecutionStatus = "filled"
	ExecutionRejected ExecutionStatus = "rejected"
)

// ExecutionResult is the outcome of executing a single order request.
// A rejection is data, not an error: batch processing produces exactly one
// result per input order.
type ExecutionResult struct {
	Symbol   string
	Side     Side
	Status   ExecutionStatus
	OrderID  string
	ClientID string

	// Fill details, zero-valued when Status != ExecutionFilled.
	FilledQuantity float64
	FillPrice      float64
	Notional       float64
	Fee            float64
	FilledAt       time.Time

	// Reason explains a rejection.
	Reason string

	Metadata map[string]string
}

// ExecutionSummary aggregates an execution history.
type ExecutionSummary struct {
	TotalOrders    int
	FilledOrders   int
	RejectedOrders int
	FillRate       float64
	TotalNotional  float64
	TotalFees      float64
}

// Filled reports whether the order resulted in a fill.
func (r *ExecutionResult) Filled() bool {
	return r.Status == ExecutionFilled
}

// SignedFillQuantity returns the realized position delta of the fill:
// positive for buys, negative for sells, zero when rejected.
func (r *ExecutionResult) SignedFillQuantity() float64 {
	if !r.Filled() {
		return 0
	}
	if r.Side == SideSell {
		return -r.FilledQuantity
	}
	return r.FilledQuantity
}
