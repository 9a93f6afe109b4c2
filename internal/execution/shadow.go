package execution

import (
	"context"
	"time"

	"trading-core/internal/domain"
	"trading-core/internal/idgen"
)

// ShadowExecutor records what would have been executed without simulating
// balances or positions. Every valid order "fills" nominally at the
// observed price and is flagged as shadow in metadata.
type ShadowExecutor struct {
	prices *priceBook
}

// NewShadowExecutor creates a shadow executor.
func NewShadowExecutor() *ShadowExecutor {
	return &ShadowExecutor{prices: newPriceBook()}
}

// Compile-time interface check.
var (
	_ OrderExecutor = (*ShadowExecutor)(nil)
	_ PriceMarker   = (*ShadowExecutor)(nil)
)

// MarkPrice records the latest observed price for a symbol.
func (e *ShadowExecutor) MarkPrice(symbol string, price float64) {
	e.prices.set(symbol, price)
}

// ExecuteOrder records a nominal fill at the observed price.
func (e *ShadowExecutor) ExecuteOrder(_ context.Context, order *domain.OrderRequest) (*domain.ExecutionResult, error) {
	res := &domain.ExecutionResult{
		Symbol:   order.Symbol,
		Side:     order.Side,
		ClientID: order.ClientID,
		Metadata: map[string]string{"executor": "shadow", "shadow": "true"},
	}

	price, ok := e.prices.get(order.Symbol)
	if order.Type == domain.OrderTypeLimit {
		price, ok = order.LimitPrice, true
	}
	if !ok || price <= 0 {
		res.Status = domain.ExecutionRejected
		res.Reason = "no observed price to shadow-fill against"
		return res, nil
	}

	res.Status = domain.ExecutionFilled
	res.OrderID = idgen.NewClientOrderID()
	res.FilledQuantity = order.Quantity
	res.FillPrice = price
	res.Notional = order.Quantity * price
	res.FilledAt = time.Now().UTC()
	return res, nil
}

// ExecuteOrders records nominal fills for a batch.
func (e *ShadowExecutor) ExecuteOrders(ctx context.Context, orders []*domain.OrderRequest) ([]*domain.ExecutionResult, error) {
	results := make([]*domain.ExecutionResult, 0, len(orders))
	for _, o := range orders {
		res, _ := e.ExecuteOrder(ctx, o)
		results = append(results, res)
	}
	return results, nil
}
