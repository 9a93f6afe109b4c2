package execution

import "trading-core/internal/domain"

// clipSignal clamps a signal value into {-1, 0, +1}.
func clipSignal(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

// alignSignals projects a discrete signal series onto a price timeline.
// Each bar takes the latest signal at or before its timestamp
// (forward fill); bars before the first signal read 0. Values are
// clipped into {-1, 0, +1}.
func alignSignals(signals []domain.SignalPoint, prices []domain.PricePoint) []int {
	out := make([]int, len(prices))
	si := 0
	current := 0
	for i, bar := range prices {
		for si < len(signals) && !signals[si].Timestamp.After(bar.Timestamp) {
			current = clipSignal(signals[si].Value)
			si++
		}
		out[i] = current
	}
	return out
}
