package domain

import "time"

// Candle is one OHLCV bar from a data feed.
type Candle struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// PricePoint is one bar of a chronological price series used for replay.
type PricePoint struct {
	Timestamp time.Time
	Price     float64
}

// SignalPoint is one point of a discrete signal series. Value is expected
// in {-1, 0, +1}; out-of-range values are clipped during alignment.
type SignalPoint struct {
	Timestamp time.Time
	Value     int
}
