package domain

import "math"

// Position is one open position inside a portfolio snapshot.
type Position struct {
	Symbol        string
	Side          Side
	Size          float64
	EntryPrice    float64
	MarkPrice     float64
	Notional      float64
	RealizedPnL   float64
	UnrealizedPnL float64
}

// PortfolioSnapshot is a read-only view of the portfolio at one instant.
// It is rebuilt for every evaluation and never mutated afterwards.
type PortfolioSnapshot struct {
	Positions []Position

	TotalNotional      float64
	TotalRealizedPnL   float64
	TotalUnrealizedPnL float64
}

// NewPortfolioSnapshot computes aggregate totals over the given positions.
func NewPortfolioSnapshot(positions []Position) *PortfolioSnapshot {
	s := &PortfolioSnapshot{Positions: positions}
	for _, p := range positions {
		s.TotalNotional += math.Abs(p.Notional)
		s.TotalRealizedPnL += p.RealizedPnL
		s.TotalUnrealizedPnL += p.UnrealizedPnL
	}
	return s
}

// ExposureBySymbol aggregates absolute notional per symbol.
func (s *PortfolioSnapshot) ExposureBySymbol() map[string]float64 {
	out := make(map[string]float64, len(s.Positions))
	for _, p := range s.Positions {
		out[p.Symbol] += math.Abs(p.Notional)
	}
	return out
}

// OpenPositionCount returns the number of positions with non-zero size.
func (s *PortfolioSnapshot) OpenPositionCount() int {
	n := 0
	for _, p := range s.Positions {
		if p.Size != 0 {
			n++
		}
	}
	return n
}
