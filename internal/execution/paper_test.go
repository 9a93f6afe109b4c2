package execution

import (
	"context"
	"math"
	"testing"

	"trading-core/internal/domain"
)

func TestPaperExecutorFillsAtMarkWithSlippageAndFee(t *testing.T) {
	e := NewPaperExecutor(PaperConfig{SlippageBps: 10, FeeBps: 5})
	e.MarkPrice("BTCUSDT", 100)

	res, err := e.ExecuteOrder(context.Background(), mustOrder(t, "BTCUSDT", domain.SideBuy, 2))
	if err != nil {
		t.Fatalf("ExecuteOrder: %v", err)
	}
	if !res.Filled() {
		t.Fatalf("expected fill, got %s (%s)", res.Status, res.Reason)
	}
	// Buy slips against the taker: 100 + 100*10/10000 = 100.1.
	if math.Abs(res.FillPrice-100.1) > 1e-9 {
		t.Errorf("fill price %v, want 100.1", res.FillPrice)
	}
	wantFee := res.Notional * 5 / 10000
	if math.Abs(res.Fee-wantFee) > 1e-12 {
		t.Errorf("fee %v, want %v", res.Fee, wantFee)
	}
}

func TestPaperExecutorRejectsUnknownSymbol(t *testing.T) {
	e := NewPaperExecutor(PaperConfig{})
	res, err := e.ExecuteOrder(context.Background(), mustOrder(t, "NOPE", domain.SideBuy, 1))
	if err != nil {
		t.Fatalf("ExecuteOrder: %v", err)
	}
	if res.Status != domain.ExecutionRejected {
		t.Fatalf("expected rejection, got %s", res.Status)
	}
}

func TestPaperExecutorRejectsUnmarketableLimit(t *testing.T) {
	e := NewPaperExecutor(PaperConfig{})
	e.MarkPrice("BTCUSDT", 100)

	buyBelow, err := domain.NewOrderRequest("BTCUSDT", domain.SideBuy, 1, domain.OrderTypeLimit, 90)
	if err != nil {
		t.Fatalf("NewOrderRequest: %v", err)
	}
	res, err := e.ExecuteOrder(context.Background(), buyBelow)
	if err != nil {
		t.Fatalf("ExecuteOrder: %v", err)
	}
	if res.Status != domain.ExecutionRejected {
		t.Fatal("buy limit below the mark must rest, so the simulation rejects it")
	}

	buyAbove, err := domain.NewOrderRequest("BTCUSDT", domain.SideBuy, 1, domain.OrderTypeLimit, 110)
	if err != nil {
		t.Fatalf("NewOrderRequest: %v", err)
	}
	res, err = e.ExecuteOrder(context.Background(), buyAbove)
	if err != nil {
		t.Fatalf("ExecuteOrder: %v", err)
	}
	if !res.Filled() || res.FillPrice != 110 {
		t.Fatalf("marketable limit should fill at its price, got %+v", res)
	}
}

func TestPaperExecutorNetsAndFlipsPositions(t *testing.T) {
	e := NewPaperExecutor(PaperConfig{})
	ctx := context.Background()

	e.MarkPrice("BTCUSDT", 100)
	if _, err := e.ExecuteOrder(ctx, mustOrder(t, "BTCUSDT", domain.SideBuy, 2)); err != nil {
		t.Fatalf("open: %v", err)
	}

	e.MarkPrice("BTCUSDT", 110)
	if _, err := e.ExecuteOrder(ctx, mustOrder(t, "BTCUSDT", domain.SideSell, 5)); err != nil {
		t.Fatalf("flip: %v", err)
	}

	positions := e.Positions()
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	p := positions[0]
	if p.Side != domain.SideSell || p.Size != 3 {
		t.Fatalf("expected short 3, got %+v", p)
	}
	// Closed 2 long from 100 to 110.
	if math.Abs(p.RealizedPnL-20) > 1e-9 {
		t.Errorf("realized pnl %v, want 20", p.RealizedPnL)
	}
	if p.EntryPrice != 110 {
		t.Errorf("flipped entry price %v, want 110", p.EntryPrice)
	}
}

func TestPaperExecutorAveragesSameSideAdds(t *testing.T) {
	e := NewPaperExecutor(PaperConfig{})
	ctx := context.Background()

	e.MarkPrice("BTCUSDT", 100)
	if _, err := e.ExecuteOrder(ctx, mustOrder(t, "BTCUSDT", domain.SideBuy, 1)); err != nil {
		t.Fatal(err)
	}
	e.MarkPrice("BTCUSDT", 200)
	if _, err := e.ExecuteOrder(ctx, mustOrder(t, "BTCUSDT", domain.SideBuy, 1)); err != nil {
		t.Fatal(err)
	}

	p := e.Positions()[0]
	if p.Size != 2 || math.Abs(p.EntryPrice-150) > 1e-9 {
		t.Fatalf("expected size 2 @ 150, got %+v", p)
	}
}

func TestPaperExecutorMarkPriceUpdatesUnrealized(t *testing.T) {
	e := NewPaperExecutor(PaperConfig{})
	e.MarkPrice("BTCUSDT", 100)
	if _, err := e.ExecuteOrder(context.Background(), mustOrder(t, "BTCUSDT", domain.SideBuy, 2)); err != nil {
		t.Fatal(err)
	}

	e.MarkPrice("BTCUSDT", 130)
	p := e.Positions()[0]
	if math.Abs(p.UnrealizedPnL-60) > 1e-9 {
		t.Errorf("unrealized %v, want 60", p.UnrealizedPnL)
	}
	if p.Notional != 260 {
		t.Errorf("notional %v, want 260", p.Notional)
	}
}
