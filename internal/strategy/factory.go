package strategy

import (
	"errors"
	"fmt"
)

// Registered strategy keys.
const (
	KeySMACross = "sma_cross"
	KeyMomentum = "momentum"
)

// ErrUnknownStrategy is returned for a key no strategy is registered under.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Defaults chosen to behave sensibly on one-minute candles.
const (
	defaultFastPeriod = 5
	defaultSlowPeriod = 20

	defaultMomentumLookback = 10
	defaultMomentumDeadBand = 0.001
)

// FromKey resolves a strategy key into a ready-to-use strategy with its
// default parameters. Sessions resolve their configured key through here.
func FromKey(key string) (Strategy, error) {
	switch key {
	case KeySMACross:
		return NewSMACross(defaultFastPeriod, defaultSlowPeriod), nil
	case KeyMomentum:
		return NewMomentum(defaultMomentumLookback, defaultMomentumDeadBand), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, key)
	}
}

// Keys lists the registered strategy keys.
func Keys() []string {
	return []string{KeySMACross, KeyMomentum}
}
