package feed

import (
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/arbhub/arbhub/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NewProvider returns a fresh provider instance for the named exchange.
// Each connection needs its own instance; some providers keep per-stream
// parse state.
func NewProvider(exchange string) (Provider, error) {
	switch strings.ToLower(exchange) {
	case "binance":
		return &binanceProvider{}, nil
	case "bybit":
		return &bybitProvider{}, nil
	case "gateio", "gate.io":
		return &gateioProvider{}, nil
	default:
		return nil, fmt.Errorf("feed: unsupported exchange %q: %w", exchange, domain.ErrNotFound)
	}
}

// parseNum accepts the string-encoded numbers most venues emit.
func parseNum(s string) float64 {
	var f float64
	if s == "" {
		return 0
	}
	fmt.Sscanf(s, "%g", &f)
	return f
}

// ── Binance ──────────────────────────────────────────────────────────

// binanceProvider streams the combined bookTicker channel. Binance sends
// transport-level pings which gorilla answers automatically, so no
// application keep-alive is needed.
type binanceProvider struct{}

func (p *binanceProvider) Exchange() string { return "Binance" }

func (p *binanceProvider) URL(symbol string, market domain.MarketKind) string {
	stream := strings.ToLower(symbol) + "@bookTicker"
	if market == domain.MarketFutures {
		return "wss://fstream.binance.com/ws/" + stream
	}
	return "wss://stream.binance.com:9443/ws/" + stream
}

func (p *binanceProvider) SubscribeFrames(string, domain.MarketKind) [][]byte { return nil }

func (p *binanceProvider) Ping(domain.MarketKind) ([]byte, time.Duration) { return nil, 0 }

func (p *binanceProvider) Parse(frame []byte, symbol string, market domain.MarketKind) (*domain.BookTicker, error) {
	var msg struct {
		// Event must map "e" exactly: without it jsoniter's case-insensitive
		// fallback would feed the string "bookTicker" into EventTime.
		Event     string `json:"e"` // absent on spot bookTicker
		Symbol    string `json:"s"`
		Bid       string `json:"b"`
		BidQty    string `json:"B"`
		Ask       string `json:"a"`
		AskQty    string `json:"A"`
		EventTime int64  `json:"E"` // ms; absent on spot bookTicker
	}
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, err
	}
	if msg.Event != "" && msg.Event != "bookTicker" {
		return nil, nil
	}
	if msg.Symbol == "" || msg.Bid == "" || msg.Ask == "" {
		return nil, nil
	}

	now := time.Now().UTC()
	exchangeTime := now
	if msg.EventTime > 0 {
		exchangeTime = time.UnixMilli(msg.EventTime).UTC()
	}
	return &domain.BookTicker{
		Exchange:     p.Exchange(),
		Symbol:       symbol,
		Market:       market,
		Bid:          parseNum(msg.Bid),
		BidQty:       parseNum(msg.BidQty),
		Ask:          parseNum(msg.Ask),
		AskQty:       parseNum(msg.AskQty),
		ExchangeTime: exchangeTime,
		LocalTime:    now,
	}, nil
}

// ── Bybit ────────────────────────────────────────────────────────────

// bybitProvider streams the level-1 orderbook channel. Delta frames may
// carry only one side, so the provider retains the other side's last
// values between frames. Bybit drops idle connections without an
// application-level ping every 20 seconds.
type bybitProvider struct {
	lastBid, lastBidQty float64
	lastAsk, lastAskQty float64
}

func (p *bybitProvider) Exchange() string { return "Bybit" }

func (p *bybitProvider) URL(_ string, market domain.MarketKind) string {
	if market == domain.MarketFutures {
		return "wss://stream.bybit.com/v5/public/linear"
	}
	return "wss://stream.bybit.com/v5/public/spot"
}

func (p *bybitProvider) SubscribeFrames(symbol string, _ domain.MarketKind) [][]byte {
	frame, _ := json.Marshal(map[string]any{
		"op":   "subscribe",
		"args": []string{"orderbook.1." + symbol},
	})
	return [][]byte{frame}
}

func (p *bybitProvider) Ping(domain.MarketKind) ([]byte, time.Duration) {
	return []byte(`{"op":"ping"}`), 20 * time.Second
}

func (p *bybitProvider) Parse(frame []byte, symbol string, market domain.MarketKind) (*domain.BookTicker, error) {
	var msg struct {
		Topic string `json:"topic"`
		TS    int64  `json:"ts"`
		Data  struct {
			Bids [][2]string `json:"b"`
			Asks [][2]string `json:"a"`
		} `json:"data"`
	}
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(msg.Topic, "orderbook.1.") {
		return nil, nil
	}

	if len(msg.Data.Bids) > 0 {
		p.lastBid = parseNum(msg.Data.Bids[0][0])
		p.lastBidQty = parseNum(msg.Data.Bids[0][1])
	}
	if len(msg.Data.Asks) > 0 {
		p.lastAsk = parseNum(msg.Data.Asks[0][0])
		p.lastAskQty = parseNum(msg.Data.Asks[0][1])
	}
	if p.lastBid <= 0 || p.lastAsk <= 0 {
		return nil, nil
	}

	return &domain.BookTicker{
		Exchange:     p.Exchange(),
		Symbol:       symbol,
		Market:       market,
		Bid:          p.lastBid,
		BidQty:       p.lastBidQty,
		Ask:          p.lastAsk,
		AskQty:       p.lastAskQty,
		ExchangeTime: time.UnixMilli(msg.TS).UTC(),
		LocalTime:    time.Now().UTC(),
	}, nil
}

// ── Gate.io ──────────────────────────────────────────────────────────

// gateioProvider streams the book_ticker channel on the futures or spot
// endpoint. Gate.io symbols carry an underscore on the wire.
type gateioProvider struct{}

func (p *gateioProvider) Exchange() string { return "Gate.io" }

func gateWireSymbol(symbol string) string {
	if strings.Contains(symbol, "_") {
		return symbol
	}
	if strings.HasSuffix(symbol, "USDT") {
		return strings.TrimSuffix(symbol, "USDT") + "_USDT"
	}
	return symbol
}

func (p *gateioProvider) URL(_ string, market domain.MarketKind) string {
	if market == domain.MarketFutures {
		return "wss://fx-ws.gateio.ws/v4/ws/usdt"
	}
	return "wss://api.gateio.ws/ws/v4/"
}

func (p *gateioProvider) channel(market domain.MarketKind) string {
	if market == domain.MarketFutures {
		return "futures.book_ticker"
	}
	return "spot.book_ticker"
}

func (p *gateioProvider) SubscribeFrames(symbol string, market domain.MarketKind) [][]byte {
	frame, _ := json.Marshal(map[string]any{
		"time":    time.Now().Unix(),
		"channel": p.channel(market),
		"event":   "subscribe",
		"payload": []string{gateWireSymbol(symbol)},
	})
	return [][]byte{frame}
}

func (p *gateioProvider) Ping(market domain.MarketKind) ([]byte, time.Duration) {
	if market == domain.MarketFutures {
		return []byte(`{"channel":"futures.ping"}`), 15 * time.Second
	}
	return []byte(`{"channel":"spot.ping"}`), 15 * time.Second
}

func (p *gateioProvider) Parse(frame []byte, symbol string, market domain.MarketKind) (*domain.BookTicker, error) {
	var msg struct {
		Channel string `json:"channel"`
		Event   string `json:"event"`
		Result  struct {
			TimeMs int64  `json:"t"`
			Symbol string `json:"s"`
			Bid    string `json:"b"`
			BidQty any    `json:"B"` // futures sends numbers, spot sends strings
			Ask    string `json:"a"`
			AskQty any    `json:"A"`
		} `json:"result"`
	}
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, err
	}
	if msg.Channel != p.channel(market) || msg.Event != "update" {
		return nil, nil
	}
	if msg.Result.Bid == "" || msg.Result.Ask == "" {
		return nil, nil
	}

	return &domain.BookTicker{
		Exchange:     p.Exchange(),
		Symbol:       symbol,
		Market:       market,
		Bid:          parseNum(msg.Result.Bid),
		BidQty:       anyToFloat(msg.Result.BidQty),
		Ask:          parseNum(msg.Result.Ask),
		AskQty:       anyToFloat(msg.Result.AskQty),
		ExchangeTime: time.UnixMilli(msg.Result.TimeMs).UTC(),
		LocalTime:    time.Now().UTC(),
	}, nil
}

func anyToFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		return parseNum(x)
	default:
		return 0
	}
}
