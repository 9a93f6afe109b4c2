// Package execution converts trading signals into orders and dispatches
// them through an order executor, wrapped with safety gating and risk
// admission control.
package execution

import (
	"context"

	"trading-core/internal/domain"
)

// OrderExecutor dispatches order requests and reports per-order outcomes.
// Implementations range from fully simulated to validate-only; the
// pipeline is agnostic to which one is wired.
type OrderExecutor interface {
	ExecuteOrder(ctx context.Context, order *domain.OrderRequest) (*domain.ExecutionResult, error)
	ExecuteOrders(ctx context.Context, orders []*domain.OrderRequest) ([]*domain.ExecutionResult, error)
}

// PositionReporter is the explicit capability interface for executors that
// can report open positions. Executors either implement it or they don't;
// there is no runtime probing of untyped fields.
type PositionReporter interface {
	Positions() []domain.Position
}

// PriceMarker is the capability interface for executors that simulate
// fills against a reference mark fed from the outside.
type PriceMarker interface {
	MarkPrice(symbol string, price float64)
}
