package feed

import (
	"errors"
	"strings"
	"testing"

	"github.com/arbhub/arbhub/internal/domain"
)

func TestNewProvider(t *testing.T) {
	for _, name := range []string{"binance", "Bybit", "gateio", "gate.io"} {
		if _, err := NewProvider(name); err != nil {
			t.Fatalf("NewProvider(%s): %v", name, err)
		}
	}
	if _, err := NewProvider("kraken"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unsupported exchange: err=%v want ErrNotFound", err)
	}
}

func TestBinanceParse(t *testing.T) {
	p := &binanceProvider{}
	frame := []byte(`{"e":"bookTicker","E":1724800000000,"s":"BTCUSDT","b":"65000.10","B":"2.5","a":"65000.20","A":"1.1"}`)

	tick, err := p.Parse(frame, "BTCUSDT", domain.MarketFutures)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tick == nil {
		t.Fatal("expected a ticker")
	}
	if tick.Bid != 65000.10 || tick.Ask != 65000.20 {
		t.Fatalf("bid/ask=%f/%f", tick.Bid, tick.Ask)
	}
	if tick.ExchangeTime.UnixMilli() != 1724800000000 {
		t.Fatalf("exchange_time=%v", tick.ExchangeTime)
	}

	// Non-ticker frames are skipped, not errors.
	tick, err = p.Parse([]byte(`{"result":null,"id":1}`), "BTCUSDT", domain.MarketFutures)
	if err != nil || tick != nil {
		t.Fatalf("control frame: tick=%v err=%v want nil/nil", tick, err)
	}

	// Other event types on the same stream are skipped too.
	other := []byte(`{"e":"markPriceUpdate","E":1724800000000,"s":"BTCUSDT"}`)
	tick, err = p.Parse(other, "BTCUSDT", domain.MarketFutures)
	if err != nil || tick != nil {
		t.Fatalf("foreign event: tick=%v err=%v want nil/nil", tick, err)
	}
}

func TestBinanceParse_SpotFrameWithoutEventType(t *testing.T) {
	p := &binanceProvider{}
	// Spot bookTicker frames carry no "e" or "E" keys.
	frame := []byte(`{"u":400900217,"s":"BTCUSDT","b":"25.35190000","B":"31.21000000","a":"25.36520000","A":"40.66000000"}`)

	tick, err := p.Parse(frame, "BTCUSDT", domain.MarketMargin)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tick == nil {
		t.Fatal("expected a ticker")
	}
	if tick.Bid != 25.3519 || tick.Ask != 25.3652 {
		t.Fatalf("bid/ask=%f/%f", tick.Bid, tick.Ask)
	}
}

func TestBybitParse_DeltaRetainsOtherSide(t *testing.T) {
	p := &bybitProvider{}

	full := []byte(`{"topic":"orderbook.1.BTCUSDT","type":"snapshot","ts":1724800000000,"data":{"b":[["65000.1","2.5"]],"a":[["65000.2","1.1"]]}}`)
	tick, err := p.Parse(full, "BTCUSDT", domain.MarketFutures)
	if err != nil || tick == nil {
		t.Fatalf("snapshot: tick=%v err=%v", tick, err)
	}

	// Delta carrying only a new bid keeps the previous ask.
	delta := []byte(`{"topic":"orderbook.1.BTCUSDT","type":"delta","ts":1724800001000,"data":{"b":[["65001.0","3.0"]],"a":[]}}`)
	tick, err = p.Parse(delta, "BTCUSDT", domain.MarketFutures)
	if err != nil || tick == nil {
		t.Fatalf("delta: tick=%v err=%v", tick, err)
	}
	if tick.Bid != 65001.0 {
		t.Fatalf("bid=%f want=65001.0", tick.Bid)
	}
	if tick.Ask != 65000.2 {
		t.Fatalf("ask=%f want retained 65000.2", tick.Ask)
	}
}

func TestBybitParse_IncompleteBookYieldsNothing(t *testing.T) {
	p := &bybitProvider{}
	// First frame has only a bid: no usable two-sided book yet.
	frame := []byte(`{"topic":"orderbook.1.BTCUSDT","ts":1724800000000,"data":{"b":[["65000.1","2.5"]],"a":[]}}`)
	tick, err := p.Parse(frame, "BTCUSDT", domain.MarketFutures)
	if err != nil || tick != nil {
		t.Fatalf("tick=%v err=%v want nil/nil", tick, err)
	}
}

func TestGateioParse(t *testing.T) {
	p := &gateioProvider{}
	frame := []byte(`{"time":1724800000,"channel":"futures.book_ticker","event":"update","result":{"t":1724800000123,"s":"BTC_USDT","b":"65000.1","B":12,"a":"65000.2","A":7}}`)

	tick, err := p.Parse(frame, "BTCUSDT", domain.MarketFutures)
	if err != nil || tick == nil {
		t.Fatalf("tick=%v err=%v", tick, err)
	}
	if tick.Bid != 65000.1 || tick.Ask != 65000.2 {
		t.Fatalf("bid/ask=%f/%f", tick.Bid, tick.Ask)
	}
	if tick.BidQty != 12 || tick.AskQty != 7 {
		t.Fatalf("qty=%f/%f want numeric quantities accepted", tick.BidQty, tick.AskQty)
	}

	// Subscribe confirmations are skipped.
	confirm := []byte(`{"time":1724800000,"channel":"futures.book_ticker","event":"subscribe","result":{"status":"success"}}`)
	tick, err = p.Parse(confirm, "BTCUSDT", domain.MarketFutures)
	if err != nil || tick != nil {
		t.Fatalf("confirm: tick=%v err=%v want nil/nil", tick, err)
	}
}

func TestGateioPingMatchesEndpoint(t *testing.T) {
	p := &gateioProvider{}

	frame, _ := p.Ping(domain.MarketFutures)
	if !strings.Contains(string(frame), "futures.ping") {
		t.Fatalf("futures ping=%s want futures.ping", frame)
	}
	frame, _ = p.Ping(domain.MarketMargin)
	if !strings.Contains(string(frame), "spot.ping") {
		t.Fatalf("spot ping=%s want spot.ping", frame)
	}
}

func TestGateWireSymbol(t *testing.T) {
	cases := []struct{ in, want string }{
		{"BTCUSDT", "BTC_USDT"},
		{"BTC_USDT", "BTC_USDT"},
		{"ETHBTC", "ETHBTC"},
	}
	for _, c := range cases {
		if got := gateWireSymbol(c.in); got != c.want {
			t.Fatalf("gateWireSymbol(%s)=%s want=%s", c.in, got, c.want)
		}
	}
}
