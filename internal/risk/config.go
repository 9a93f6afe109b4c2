// Package risk implements admission control for order batches and
// portfolio snapshots against configurable exposure and loss thresholds.
package risk

import (
	"errors"
	"fmt"
)

// Config defines the risk thresholds. A zero value for any threshold
// disables that dimension. Warn thresholds are optional soft limits and
// must not exceed their hard counterpart.
type Config struct {
	// Enabled turns enforcement on. A disabled limiter still computes
	// metrics so callers keep visibility without enforcement.
	Enabled bool

	// BlockOnViolation is the enforcement policy consulted by callers:
	// when true a violation becomes a hard stop, otherwise it is
	// advisory. It does not change the check result itself.
	BlockOnViolation bool

	MaxOrderNotional  float64
	WarnOrderNotional float64

	MaxSymbolExposure  float64
	WarnSymbolExposure float64

	MaxTotalExposure  float64
	WarnTotalExposure float64

	MaxOpenPositions  int
	WarnOpenPositions int

	// Daily loss limits. MaxDailyLoss is an absolute currency amount;
	// MaxDailyLossPct is a percentage of StartingCapital. Either or both
	// may be set.
	MaxDailyLoss     float64
	WarnDailyLoss    float64
	MaxDailyLossPct  float64
	WarnDailyLossPct float64
	StartingCapital  float64

	// RunCategories restricts the ledger query for daily realized PnL.
	// Empty means all categories.
	RunCategories []string
}

// ErrInvalidConfig is returned by Validate for inconsistent thresholds.
var ErrInvalidConfig = errors.New("invalid risk config")

// Validate checks internal consistency of the thresholds.
func (c Config) Validate() error {
	type pair struct {
		name       string
		warn, hard float64
	}
	pairs := []pair{
		{"order notional", c.WarnOrderNotional, c.MaxOrderNotional},
		{"symbol exposure", c.WarnSymbolExposure, c.MaxSymbolExposure},
		{"total exposure", c.WarnTotalExposure, c.MaxTotalExposure},
		{"open positions", float64(c.WarnOpenPositions), float64(c.MaxOpenPositions)},
		{"daily loss", c.WarnDailyLoss, c.MaxDailyLoss},
		{"daily loss pct", c.WarnDailyLossPct, c.MaxDailyLossPct},
	}
	for _, p := range pairs {
		if p.warn < 0 || p.hard < 0 {
			return fmt.Errorf("%w: %s threshold is negative", ErrInvalidConfig, p.name)
		}
		if p.warn > 0 && p.hard > 0 && p.warn > p.hard {
			return fmt.Errorf("%w: %s warn threshold %v exceeds hard threshold %v",
				ErrInvalidConfig, p.name, p.warn, p.hard)
		}
	}
	if c.MaxDailyLossPct > 0 && c.StartingCapital <= 0 {
		return fmt.Errorf("%w: daily loss pct requires positive starting capital", ErrInvalidConfig)
	}
	return nil
}
