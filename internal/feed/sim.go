package feed

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"trading-core/internal/domain"
)

// SimConfig tunes the simulated candle stream.
type SimConfig struct {
	Symbol string
	// StartPrice is the first candle's open. Zero defaults to 100.
	StartPrice float64
	// VolatilityBps is the per-candle random walk step. Zero defaults to 20.
	VolatilityBps float64
	// Interval is the wall-clock delay between candles. Zero means no
	// delay, which replay-style consumers want.
	Interval time.Duration
	// Seed makes the walk deterministic. Zero seeds from the clock.
	Seed int64
}

// SimFeed generates a seeded random-walk candle stream. Shadow sessions run
// against it when no market endpoint is configured.
type SimFeed struct {
	cfg SimConfig
	rng *rand.Rand

	mu     sync.Mutex
	last   float64
	ts     time.Time
	closed bool
	done   chan struct{}
}

// NewSimFeed creates a simulated feed.
func NewSimFeed(cfg SimConfig) *SimFeed {
	if cfg.StartPrice <= 0 {
		cfg.StartPrice = 100
	}
	if cfg.VolatilityBps <= 0 {
		cfg.VolatilityBps = 20
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimFeed{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(seed)),
		last: cfg.StartPrice,
		ts:   time.Now().UTC().Truncate(time.Minute),
		done: make(chan struct{}),
	}
}

var _ Feed = (*SimFeed)(nil)

// Next produces the next candle of the walk.
func (f *SimFeed) Next(ctx context.Context) (*domain.Candle, error) {
	if f.cfg.Interval > 0 {
		timer := time.NewTimer(f.cfg.Interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.done:
			return nil, ErrFeedClosed
		case <-timer.C:
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrFeedClosed
	}

	open := f.last
	step := f.cfg.VolatilityBps / 10000
	closePx := open * (1 + (f.rng.Float64()*2-1)*step)
	high := math.Max(open, closePx) * (1 + f.rng.Float64()*step/2)
	low := math.Min(open, closePx) * (1 - f.rng.Float64()*step/2)

	f.last = closePx
	f.ts = f.ts.Add(time.Minute)

	return &domain.Candle{
		Symbol:    f.cfg.Symbol,
		Timestamp: f.ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePx,
		Volume:    1 + f.rng.Float64()*10,
	}, nil
}

// Close stops the feed. Subsequent Next calls return ErrFeedClosed.
func (f *SimFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.done)
	}
	return nil
}
