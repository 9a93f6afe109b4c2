package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trading-core/internal/domain"
	"trading-core/internal/environment"
	"trading-core/internal/idgen"
)

// TestnetExecutor performs validate-only execution against testnet
// semantics: orders pass the same local validation a real submission
// would, but no network side effect ever happens. When the guard's
// testnet path allows proceeding, the order is acknowledged as a
// validate-only fill; when the dry-run flag holds it fully local, the
// outcome is identical but flagged dry_run.
type TestnetExecutor struct {
	guard  *environment.Guard
	prices *priceBook
}

// NewTestnetExecutor creates a testnet executor bound to a safety guard.
func NewTestnetExecutor(guard *environment.Guard) *TestnetExecutor {
	return &TestnetExecutor{guard: guard, prices: newPriceBook()}
}

// Compile-time interface check.
var (
	_ OrderExecutor = (*TestnetExecutor)(nil)
	_ PriceMarker   = (*TestnetExecutor)(nil)
)

// MarkPrice records the latest observed price for a symbol.
func (e *TestnetExecutor) MarkPrice(symbol string, price float64) {
	e.prices.set(symbol, price)
}

// ExecuteOrder validates the order locally and acknowledges it without a
// network side effect.
func (e *TestnetExecutor) ExecuteOrder(_ context.Context, order *domain.OrderRequest) (*domain.ExecutionResult, error) {
	res := &domain.ExecutionResult{
		Symbol:   order.Symbol,
		Side:     order.Side,
		ClientID: order.ClientID,
		Metadata: map[string]string{"executor": "testnet", "validate_only": "true"},
	}

	if order.Quantity <= 0 {
		res.Status = domain.ExecutionRejected
		res.Reason = "quantity must be positive"
		return res, nil
	}
	if order.Type == domain.OrderTypeLimit && order.LimitPrice <= 0 {
		res.Status = domain.ExecutionRejected
		res.Reason = "limit order requires a positive limit price"
		return res, nil
	}

	price := order.LimitPrice
	if order.Type == domain.OrderTypeMarket {
		mark, ok := e.prices.get(order.Symbol)
		if !ok || mark <= 0 {
			res.Status = domain.ExecutionRejected
			res.Reason = fmt.Sprintf("no reference price for %s", order.Symbol)
			return res, nil
		}
		price = mark
	}

	if e.guard != nil {
		if err := e.guard.EnsureMayPlaceOrder(true); err != nil {
			// Dry-run is the expected testnet posture, not a rejection:
			// the order validated; it just never leaves the process.
			if environment.IsGatingError(err, environment.GateTestnetDryRun) {
				res.Metadata["dry_run"] = "true"
			} else {
				res.Status = domain.ExecutionRejected
				res.Reason = err.Error()
				return res, nil
			}
		}
	}

	res.Status = domain.ExecutionFilled
	res.OrderID = idgen.NewClientOrderID()
	res.FilledQuantity = order.Quantity
	res.FillPrice = price
	res.Notional = order.Quantity * price
	res.FilledAt = time.Now().UTC()
	return res, nil
}

// ExecuteOrders validates a batch, one result per input order.
func (e *TestnetExecutor) ExecuteOrders(ctx context.Context, orders []*domain.OrderRequest) ([]*domain.ExecutionResult, error) {
	results := make([]*domain.ExecutionResult, 0, len(orders))
	for _, o := range orders {
		res, _ := e.ExecuteOrder(ctx, o)
		results = append(results, res)
	}
	return results, nil
}

// priceBook is a small concurrent symbol → last price map shared by the
// executors that need a reference mark.
type priceBook struct {
	mu     sync.RWMutex
	prices map[string]float64
}

func newPriceBook() *priceBook {
	return &priceBook{prices: make(map[string]float64)}
}

func (b *priceBook) set(symbol string, price float64) {
	b.mu.Lock()
	b.prices[symbol] = price
	b.mu.Unlock()
}

func (b *priceBook) get(symbol string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	px, ok := b.prices[symbol]
	return px, ok
}
