package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arbhub/arbhub/internal/domain"
)

// State is a connection's position in its lifecycle. Any transport error
// sends the connection back to StateConnecting after a backoff.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateStreaming:
		return "streaming"
	default:
		return "disconnected"
	}
}

const (
	backoffSeed      = 1 * time.Second
	backoffCap       = 30 * time.Second
	handshakeTimeout = 15 * time.Second
	// readWait bounds a single blocking read so a silent peer is detected
	// and a cooperative stop is observed within one deadline.
	readWait  = 60 * time.Second
	writeWait = 10 * time.Second
)

// Provider supplies the venue-specific pieces of a streaming connection:
// endpoint, subscribe frames, keep-alive, and frame parsing. A Provider
// instance belongs to exactly one Conn; Parse may keep per-connection
// state (e.g. to fill fields a venue omits from delta frames).
type Provider interface {
	Exchange() string
	URL(symbol string, market domain.MarketKind) string
	SubscribeFrames(symbol string, market domain.MarketKind) [][]byte
	// Parse decodes one frame into a ticker. A nil ticker with nil error
	// means the frame was valid but not a book update (acks, pongs).
	Parse(frame []byte, symbol string, market domain.MarketKind) (*domain.BookTicker, error)
	// Ping returns the application-level keep-alive frame for the market's
	// endpoint and its cadence. A nil frame disables application pings.
	Ping(market domain.MarketKind) ([]byte, time.Duration)
}

// TickHandler receives every parsed book ticker from a connection.
type TickHandler func(domain.BookTicker)

// Conn is one long-lived streaming connection with its own reconnect loop.
// It owns its transport exclusively; shutdown is cooperative via the
// running flag, checked before each reconnect attempt and each receive.
type Conn struct {
	provider Provider
	symbol   string
	market   domain.MarketKind
	onTick   TickHandler
	logger   *slog.Logger

	running atomic.Bool
	state   atomic.Int32

	mu sync.Mutex // guards ws writes (subscribe frames vs. pings)
	ws *websocket.Conn
}

// NewConn creates a connection for one (provider, symbol, market) triple.
func NewConn(p Provider, symbol string, market domain.MarketKind, onTick TickHandler, logger *slog.Logger) *Conn {
	return &Conn{
		provider: p,
		symbol:   symbol,
		market:   market,
		onTick:   onTick,
		logger: logger.With(
			slog.String("component", "feed_conn"),
			slog.String("exchange", p.Exchange()),
			slog.String("symbol", symbol),
			slog.String("market", string(market)),
		),
	}
}

// State returns the connection's current lifecycle state.
func (c *Conn) State() State { return State(c.state.Load()) }

func (c *Conn) setState(s State) { c.state.Store(int32(s)) }

// Run drives the reconnect loop until Stop is called or ctx is cancelled.
// The backoff doubles from 1s to a 30s cap and resets to the seed on every
// successful subscription.
func (c *Conn) Run(ctx context.Context) error {
	c.running.Store(true)
	defer c.setState(StateDisconnected)

	backoff := backoffSeed
	for c.running.Load() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.setState(StateConnecting)
		err := c.runOnce(ctx, &backoff)
		if !c.running.Load() || ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.logger.Warn("stream disconnected, reconnecting",
				slog.String("error", err.Error()),
				slog.Duration("backoff", backoff),
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, backoffCap)
	}
	return nil
}

// runOnce dials, subscribes, and pumps frames until the transport fails or
// the running flag is cleared.
func (c *Conn) runOnce(ctx context.Context, backoff *time.Duration) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, c.provider.URL(c.symbol, c.market), nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()
	defer ws.Close()

	for _, frame := range c.provider.SubscribeFrames(c.symbol, c.market) {
		if err := c.write(frame); err != nil {
			return err
		}
	}
	c.setState(StateSubscribed)
	*backoff = backoffSeed
	c.logger.Info("stream subscribed")

	// Application-level keep-alive, where the venue requires one.
	pingDone := make(chan struct{})
	defer close(pingDone)
	if frame, interval := c.provider.Ping(c.market); frame != nil {
		go c.pingLoop(frame, interval, pingDone)
	}

	for c.running.Load() {
		ws.SetReadDeadline(time.Now().Add(readWait))
		_, frame, err := ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrWSDisconnect, err)
		}

		tick, err := c.provider.Parse(frame, c.symbol, c.market)
		if err != nil {
			c.logger.Debug("unparseable frame", slog.String("error", err.Error()))
			continue
		}
		if tick == nil {
			continue
		}
		c.setState(StateStreaming)
		if c.onTick != nil {
			c.onTick(*tick)
		}
	}
	return nil
}

func (c *Conn) pingLoop(frame []byte, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.write(frame); err != nil {
				return
			}
		}
	}
}

func (c *Conn) write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

// Stop requests a cooperative shutdown: the loop observes the cleared flag
// at its next iteration boundary and closes its transport. No read is
// cancelled mid-flight.
func (c *Conn) Stop() {
	c.running.Store(false)
}
