// Package strategy turns candle windows into discrete trading signals.
package strategy

import (
	"trading-core/internal/domain"
)

// Strategy produces a signal in {-1, 0, +1} from a chronological candle
// window. Implementations are stateless across calls; all memory lives in
// the window the caller maintains.
type Strategy interface {
	// Signal evaluates the window. Too few candles means no opinion (0).
	Signal(candles []domain.Candle) int

	// Key returns the identifier the strategy was registered under.
	Key() string

	// MinCandles is the smallest window Signal can form an opinion on.
	MinCandles() int
}

// SMACross goes long when the fast simple moving average is above the slow
// one and short when below.
type SMACross struct {
	fast, slow int
}

// NewSMACross creates an SMA crossover strategy. Periods are swapped if
// given in the wrong order.
func NewSMACross(fast, slow int) *SMACross {
	if fast > slow {
		fast, slow = slow, fast
	}
	return &SMACross{fast: fast, slow: slow}
}

func (s *SMACross) Key() string     { return KeySMACross }
func (s *SMACross) MinCandles() int { return s.slow }

func (s *SMACross) Signal(candles []domain.Candle) int {
	if len(candles) < s.slow {
		return 0
	}
	fast := smaClose(candles, s.fast)
	slow := smaClose(candles, s.slow)
	switch {
	case fast > slow:
		return 1
	case fast < slow:
		return -1
	default:
		return 0
	}
}

// Momentum signals in the direction of the close-to-close change over a
// lookback window, ignoring moves inside a dead band.
type Momentum struct {
	lookback int
	deadBand float64 // fractional, e.g. 0.001 = 10 bps
}

// NewMomentum creates a momentum strategy.
func NewMomentum(lookback int, deadBand float64) *Momentum {
	if lookback < 1 {
		lookback = 1
	}
	return &Momentum{lookback: lookback, deadBand: deadBand}
}

func (m *Momentum) Key() string     { return KeyMomentum }
func (m *Momentum) MinCandles() int { return m.lookback + 1 }

func (m *Momentum) Signal(candles []domain.Candle) int {
	if len(candles) < m.lookback+1 {
		return 0
	}
	last := candles[len(candles)-1].Close
	ref := candles[len(candles)-1-m.lookback].Close
	if ref == 0 {
		return 0
	}
	change := (last - ref) / ref
	switch {
	case change > m.deadBand:
		return 1
	case change < -m.deadBand:
		return -1
	default:
		return 0
	}
}

// smaClose averages the closes of the trailing n candles.
func smaClose(candles []domain.Candle, n int) float64 {
	var sum float64
	for _, c := range candles[len(candles)-n:] {
		sum += c.Close
	}
	return sum / float64(n)
}
