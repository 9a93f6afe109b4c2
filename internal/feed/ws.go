package feed

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"trading-core/internal/domain"
)

// WSConfig configures the websocket candle feed.
type WSConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the exponential backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for keepalive ping frames.
	PingInterval time.Duration
	// ReadTimeout bounds a single read.
	ReadTimeout time.Duration
	// WriteTimeout bounds a single write.
	WriteTimeout time.Duration
	// Buffer is the candle channel capacity.
	Buffer int

	Logger *log.Logger
}

// DefaultWSConfig returns the default websocket feed configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Buffer:            1024,
	}
}

// wsCandle is the wire shape of one candle message.
type wsCandle struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"ts"` // unix milliseconds
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// WSFeed reads JSON candles from a websocket endpoint with automatic
// reconnect and exponential backoff.
type WSFeed struct {
	endpoint string
	cfg      WSConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex

	candles chan *domain.Candle
	done    chan struct{}
	closed  atomic.Bool
	wg      sync.WaitGroup
}

// NewWSFeed dials the endpoint and starts the read and ping loops.
func NewWSFeed(ctx context.Context, endpoint string, config *WSConfig) (*WSFeed, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1024
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	f := &WSFeed{
		endpoint: endpoint,
		cfg:      cfg,
		logger:   logger,
		candles:  make(chan *domain.Candle, cfg.Buffer),
		done:     make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(2)
	go f.readLoop()
	go f.pingLoop()

	return f, nil
}

var _ Feed = (*WSFeed)(nil)

// Next returns the next candle from the stream.
func (f *WSFeed) Next(ctx context.Context) (*domain.Candle, error) {
	select {
	case c, ok := <-f.candles:
		if !ok {
			return nil, ErrFeedClosed
		}
		return c, nil
	case <-f.done:
		return nil, ErrFeedClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts the feed down and waits for its loops to exit.
func (f *WSFeed) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
	return nil
}

func (f *WSFeed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	f.conn = conn
	return nil
}

func (f *WSFeed) readLoop() {
	defer f.wg.Done()

	delay := f.cfg.ReconnectDelay
	for !f.closed.Load() {
		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		if conn == nil {
			if !f.redial(delay) {
				return
			}
			delay = delay * 2
			if delay > f.cfg.MaxReconnectDelay {
				delay = f.cfg.MaxReconnectDelay
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))

		var msg wsCandle
		if err := conn.ReadJSON(&msg); err != nil {
			if f.closed.Load() {
				return
			}
			f.logger.Printf("feed: read failed, reconnecting: %v", err)
			f.connMu.Lock()
			conn.Close()
			f.conn = nil
			f.connMu.Unlock()
			continue
		}

		// Reset backoff after a successful read.
		delay = f.cfg.ReconnectDelay

		candle := &domain.Candle{
			Symbol:    msg.Symbol,
			Timestamp: time.UnixMilli(msg.Timestamp).UTC(),
			Open:      msg.Open,
			High:      msg.High,
			Low:       msg.Low,
			Close:     msg.Close,
			Volume:    msg.Volume,
		}
		select {
		case f.candles <- candle:
		case <-f.done:
			return
		}
	}
}

// redial waits out the backoff delay and attempts one reconnect. It returns
// false when the feed was closed while waiting.
func (f *WSFeed) redial(delay time.Duration) bool {
	select {
	case <-f.done:
		return false
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := f.connect(ctx); err != nil {
		f.logger.Printf("feed: reconnect failed: %v", err)
	}
	return true
}

func (f *WSFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			if f.conn != nil {
				f.conn.SetWriteDeadline(time.Now().Add(f.cfg.WriteTimeout))
				f.conn.WriteMessage(websocket.PingMessage, nil)
			}
			f.connMu.Unlock()
		}
	}
}
