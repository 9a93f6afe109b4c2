package execution

import (
	"context"
	"testing"

	"trading-core/internal/domain"
	"trading-core/internal/environment"
)

func TestShadowExecutorFillsNominally(t *testing.T) {
	e := NewShadowExecutor()
	e.MarkPrice("BTCUSDT", 250)

	res, err := e.ExecuteOrder(context.Background(), mustOrder(t, "BTCUSDT", domain.SideBuy, 2))
	if err != nil {
		t.Fatalf("ExecuteOrder: %v", err)
	}
	if !res.Filled() || res.FillPrice != 250 || res.Notional != 500 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Metadata["shadow"] != "true" {
		t.Error("shadow fills must be flagged in metadata")
	}
}

func TestShadowExecutorRejectsWithoutPrice(t *testing.T) {
	e := NewShadowExecutor()
	res, err := e.ExecuteOrder(context.Background(), mustOrder(t, "BTCUSDT", domain.SideBuy, 1))
	if err != nil {
		t.Fatalf("ExecuteOrder: %v", err)
	}
	if res.Status != domain.ExecutionRejected {
		t.Fatalf("expected rejection, got %s", res.Status)
	}
}

func TestTestnetExecutorDryRunFlagsFill(t *testing.T) {
	guard := environment.NewGuard(environment.Config{Environment: environment.Testnet, TestnetDryRun: true})
	e := NewTestnetExecutor(guard)
	e.MarkPrice("BTCUSDT", 100)

	res, err := e.ExecuteOrder(context.Background(), mustOrder(t, "BTCUSDT", domain.SideBuy, 1))
	if err != nil {
		t.Fatalf("ExecuteOrder: %v", err)
	}
	if !res.Filled() {
		t.Fatalf("dry-run validation should acknowledge, got %s (%s)", res.Status, res.Reason)
	}
	if res.Metadata["dry_run"] != "true" {
		t.Error("dry-run fills must be flagged in metadata")
	}
	if res.Metadata["validate_only"] != "true" {
		t.Error("testnet fills are always validate-only")
	}
}

func TestTestnetExecutorRejectsOnNonTestnetGate(t *testing.T) {
	guard := environment.NewGuard(environment.Config{Environment: environment.Paper})
	e := NewTestnetExecutor(guard)
	e.MarkPrice("BTCUSDT", 100)

	res, err := e.ExecuteOrder(context.Background(), mustOrder(t, "BTCUSDT", domain.SideBuy, 1))
	if err != nil {
		t.Fatalf("ExecuteOrder: %v", err)
	}
	if res.Status != domain.ExecutionRejected {
		t.Fatalf("paper-gated order must be rejected, got %s", res.Status)
	}
}

func TestTestnetExecutorValidatesLocally(t *testing.T) {
	guard := environment.NewGuard(environment.Config{Environment: environment.Testnet, TestnetDryRun: true})
	e := NewTestnetExecutor(guard)

	bad := &domain.OrderRequest{Symbol: "BTCUSDT", Side: domain.SideBuy, Quantity: -1, Type: domain.OrderTypeMarket}
	res, err := e.ExecuteOrder(context.Background(), bad)
	if err != nil {
		t.Fatalf("ExecuteOrder: %v", err)
	}
	if res.Status != domain.ExecutionRejected {
		t.Fatal("negative quantity must fail local validation")
	}

	res, err = e.ExecuteOrder(context.Background(), mustOrder(t, "UNPRICED", domain.SideBuy, 1))
	if err != nil {
		t.Fatalf("ExecuteOrder: %v", err)
	}
	if res.Status != domain.ExecutionRejected {
		t.Fatal("market order without a reference price must be rejected")
	}
}
