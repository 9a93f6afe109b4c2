// Package feed supplies candle streams to trading sessions.
package feed

import (
	"context"
	"errors"

	"trading-core/internal/domain"
)

// ErrFeedClosed is returned by Next after the feed has been closed.
var ErrFeedClosed = errors.New("feed closed")

// Feed is a blocking candle source. Next returns the next candle, the
// context error if the caller gave up first, or ErrFeedClosed once the
// stream is finished.
type Feed interface {
	Next(ctx context.Context) (*domain.Candle, error)
	Close() error
}
