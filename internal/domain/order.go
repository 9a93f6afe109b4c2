package domain

import (
	"errors"
	"fmt"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType distinguishes market and limit orders.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// Order intent tags set by the execution pipeline when translating signals.
const (
	TagEntryLong  = "entry_long"
	TagEntryShort = "entry_short"
	TagCloseLong  = "close_long"
	TagCloseShort = "close_short"
)

// Order construction errors.
var (
	ErrInvalidQuantity   = errors.New("order quantity must be positive")
	ErrMissingLimitPrice = errors.New("limit order requires a positive limit price")
	ErrInvalidSide       = errors.New("invalid order side")
	ErrInvalidOrderType  = errors.New("invalid order type")
)

// OrderRequest is a proposed order. Validity of quantity and limit price
// is established at construction and holds for the lifetime of the value.
type OrderRequest struct {
	Symbol     string
	Side       Side
	Quantity   float64
	Type       OrderType
	LimitPrice float64 // only meaningful for limit orders

	// Notional, when positive, overrides price-based notional resolution
	// in risk checks.
	Notional float64

	// ClientID is an optional idempotency key assigned by the pipeline.
	ClientID string

	// Metadata carries free-form annotations such as intent tags.
	Metadata map[string]string
}

// NewOrderRequest builds a validated order request.
func NewOrderRequest(symbol string, side Side, qty float64, typ OrderType, limitPrice float64) (*OrderRequest, error) {
	switch side {
	case SideBuy, SideSell:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}

	switch typ {
	case OrderTypeMarket, OrderTypeLimit:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrderType, typ)
	}

	if qty <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidQuantity, qty)
	}

	if typ == OrderTypeLimit && limitPrice <= 0 {
		return nil, ErrMissingLimitPrice
	}

	return &OrderRequest{
		Symbol:     symbol,
		Side:       side,
		Quantity:   qty,
		Type:       typ,
		LimitPrice: limitPrice,
	}, nil
}

// Tag returns the intent tag from metadata, or "" if unset.
func (o *OrderRequest) Tag() string {
	if o.Metadata == nil {
		return ""
	}
	return o.Metadata["tag"]
}

// SetTag records the intent tag in metadata.
func (o *OrderRequest) SetTag(tag string) {
	if o.Metadata == nil {
		o.Metadata = make(map[string]string, 1)
	}
	o.Metadata["tag"] = tag
}
