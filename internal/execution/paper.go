package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trading-core/internal/domain"
	"trading-core/internal/idgen"
)

// PaperConfig tunes the simulated fill model.
type PaperConfig struct {
	// SlippageBps shifts the fill price against the order direction.
	SlippageBps float64
	// FeeBps is charged on the filled notional.
	FeeBps float64
}

// PaperExecutor simulates execution in memory against the latest marked
// price per symbol. It tracks resulting positions and therefore implements
// PositionReporter.
type PaperExecutor struct {
	cfg PaperConfig

	mu        sync.Mutex
	prices    map[string]float64
	positions map[string]*domain.Position
}

// NewPaperExecutor creates a paper executor.
func NewPaperExecutor(cfg PaperConfig) *PaperExecutor {
	return &PaperExecutor{
		cfg:       cfg,
		prices:    make(map[string]float64),
		positions: make(map[string]*domain.Position),
	}
}

// Compile-time interface checks.
var (
	_ OrderExecutor    = (*PaperExecutor)(nil)
	_ PositionReporter = (*PaperExecutor)(nil)
	_ PriceMarker      = (*PaperExecutor)(nil)
)

// MarkPrice records the latest observed price for a symbol. Fills are
// simulated against this mark.
func (e *PaperExecutor) MarkPrice(symbol string, price float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prices[symbol] = price
	if p, ok := e.positions[symbol]; ok {
		p.MarkPrice = price
		p.Notional = p.Size * price
		if p.Side == domain.SideSell {
			p.UnrealizedPnL = (p.EntryPrice - price) * p.Size
		} else {
			p.UnrealizedPnL = (price - p.EntryPrice) * p.Size
		}
	}
}

// ExecuteOrder fills the order at the current mark, adjusted for slippage,
// or rejects it when no mark is known.
func (e *PaperExecutor) ExecuteOrder(_ context.Context, order *domain.OrderRequest) (*domain.ExecutionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := &domain.ExecutionResult{
		Symbol:   order.Symbol,
		Side:     order.Side,
		ClientID: order.ClientID,
		Metadata: map[string]string{"executor": "paper"},
	}

	mark, ok := e.prices[order.Symbol]
	if !ok || mark <= 0 {
		res.Status = domain.ExecutionRejected
		res.Reason = fmt.Sprintf("no known price for %s", order.Symbol)
		return res, nil
	}

	price := mark
	if order.Type == domain.OrderTypeLimit {
		price = order.LimitPrice
		// A limit order that is not marketable rests forever in this
		// simulation; reject it so callers see a definite outcome.
		if (order.Side == domain.SideBuy && price < mark) ||
			(order.Side == domain.SideSell && price > mark) {
			res.Status = domain.ExecutionRejected
			res.Reason = fmt.Sprintf("limit price %.2f not marketable against %.2f", price, mark)
			return res, nil
		}
	} else {
		slip := mark * e.cfg.SlippageBps / 10000
		if order.Side == domain.SideBuy {
			price = mark + slip
		} else {
			price = mark - slip
		}
	}

	notional := order.Quantity * price
	res.Status = domain.ExecutionFilled
	res.OrderID = idgen.NewClientOrderID()
	res.FilledQuantity = order.Quantity
	res.FillPrice = price
	res.Notional = notional
	res.Fee = notional * e.cfg.FeeBps / 10000
	res.FilledAt = time.Now().UTC()

	e.applyFill(order.Symbol, order.Side, order.Quantity, price)
	return res, nil
}

// ExecuteOrders fills a batch, one result per input order.
func (e *PaperExecutor) ExecuteOrders(ctx context.Context, orders []*domain.OrderRequest) ([]*domain.ExecutionResult, error) {
	results := make([]*domain.ExecutionResult, 0, len(orders))
	for _, o := range orders {
		res, err := e.ExecuteOrder(ctx, o)
		if err != nil {
			// Keep the batch shape: one entry per order.
			res = &domain.ExecutionResult{
				Symbol: o.Symbol,
				Side:   o.Side,
				Status: domain.ExecutionRejected,
				Reason: err.Error(),
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// Positions returns the current simulated positions.
func (e *PaperExecutor) Positions() []domain.Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Position, 0, len(e.positions))
	for _, p := range e.positions {
		if p.Size != 0 {
			out = append(out, *p)
		}
	}
	return out
}

// applyFill nets the fill into the symbol's position. Crossing through
// zero flips the side and realizes PnL on the closed portion.
func (e *PaperExecutor) applyFill(symbol string, side domain.Side, qty, price float64) {
	p, ok := e.positions[symbol]
	if !ok {
		e.positions[symbol] = &domain.Position{
			Symbol:     symbol,
			Side:       side,
			Size:       qty,
			EntryPrice: price,
			MarkPrice:  price,
			Notional:   qty * price,
		}
		return
	}

	if p.Side == side {
		// Same direction: grow the position, average the entry.
		total := p.Size + qty
		p.EntryPrice = (p.EntryPrice*p.Size + price*qty) / total
		p.Size = total
	} else {
		closed := qty
		if closed > p.Size {
			closed = p.Size
		}
		pnl := (price - p.EntryPrice) * closed
		if p.Side == domain.SideSell {
			pnl = -pnl
		}
		p.RealizedPnL += pnl
		p.Size -= qty
		if p.Size < 0 {
			// Flipped through zero: remainder opens on the other side.
			p.Size = -p.Size
			p.Side = side
			p.EntryPrice = price
		}
	}
	p.MarkPrice = price
	p.Notional = p.Size * price
}
