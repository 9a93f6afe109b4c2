package domain

import (
	"errors"
	"testing"
)

func TestNewOrderRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		side    Side
		qty     float64
		typ     OrderType
		limit   float64
		wantErr error
	}{
		{"valid market", SideBuy, 1, OrderTypeMarket, 0, nil},
		{"valid limit", SideSell, 2, OrderTypeLimit, 99.5, nil},
		{"zero quantity", SideBuy, 0, OrderTypeMarket, 0, ErrInvalidQuantity},
		{"negative quantity", SideSell, -1, OrderTypeMarket, 0, ErrInvalidQuantity},
		{"limit without price", SideBuy, 1, OrderTypeLimit, 0, ErrMissingLimitPrice},
		{"bad side", Side("long"), 1, OrderTypeMarket, 0, ErrInvalidSide},
		{"bad type", SideBuy, 1, OrderType("stop"), 0, ErrInvalidOrderType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewOrderRequest("BTCUSDT", tt.side, tt.qty, tt.typ, tt.limit)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if o.Symbol != "BTCUSDT" || o.Side != tt.side || o.Quantity != tt.qty {
				t.Fatalf("fields not carried: %+v", o)
			}
		})
	}
}

func TestOrderRequestTags(t *testing.T) {
	o, err := NewOrderRequest("BTCUSDT", SideBuy, 1, OrderTypeMarket, 0)
	if err != nil {
		t.Fatal(err)
	}
	if o.Tag() != "" {
		t.Fatalf("fresh order has tag %q", o.Tag())
	}
	o.SetTag(TagEntryLong)
	if o.Tag() != TagEntryLong {
		t.Fatalf("tag %q", o.Tag())
	}
}

func TestSignedFillQuantity(t *testing.T) {
	buy := &ExecutionResult{Side: SideBuy, Status: ExecutionFilled, FilledQuantity: 2}
	if got := buy.SignedFillQuantity(); got != 2 {
		t.Errorf("buy fill: %v", got)
	}
	sell := &ExecutionResult{Side: SideSell, Status: ExecutionFilled, FilledQuantity: 3}
	if got := sell.SignedFillQuantity(); got != -3 {
		t.Errorf("sell fill: %v", got)
	}
	rej := &ExecutionResult{Side: SideBuy, Status: ExecutionRejected, FilledQuantity: 2}
	if got := rej.SignedFillQuantity(); got != 0 {
		t.Errorf("rejected fill: %v", got)
	}
}
