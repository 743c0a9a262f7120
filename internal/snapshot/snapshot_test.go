package snapshot

import (
	"math"
	"testing"

	"github.com/arbhub/arbhub/internal/domain"
)

func TestQuote_MergesBookAndVolume(t *testing.T) {
	d := NewExchangeData()
	d.OrderBooks["BTCUSDT"] = domain.Quote{Bid: 100, Ask: 101}
	d.Volumes["BTCUSDT"] = 50000
	snap := &Snapshot{Exchanges: map[string]*ExchangeData{"binance": d}}

	q, ok := snap.Quote("binance", "BTCUSDT", domain.MarketFutures)
	if !ok {
		t.Fatal("expected a quote")
	}
	if q.Bid != 100 || q.Ask != 101 || q.Volume != 50000 {
		t.Fatalf("quote=%+v", q)
	}
	if q.Exchange != "binance" || q.Market != domain.MarketFutures {
		t.Fatalf("quote=%+v", q)
	}
}

func TestQuote_MissingVolumeIsUnknown(t *testing.T) {
	d := NewExchangeData()
	d.OrderBooks["BTCUSDT"] = domain.Quote{Bid: 100, Ask: 101}
	snap := &Snapshot{Exchanges: map[string]*ExchangeData{"binance": d}}

	q, ok := snap.Quote("binance", "BTCUSDT", domain.MarketFutures)
	if !ok {
		t.Fatal("expected a quote")
	}
	if !math.IsInf(q.Volume, 1) {
		t.Fatalf("volume=%f want unknown (+Inf)", q.Volume)
	}
}

func TestQuote_AbsentVenueOrSymbol(t *testing.T) {
	snap := &Snapshot{Exchanges: map[string]*ExchangeData{"binance": NewExchangeData()}}

	if _, ok := snap.Quote("binance", "BTCUSDT", domain.MarketFutures); ok {
		t.Fatal("unquoted symbol must return false")
	}
	if _, ok := snap.Quote("kraken", "BTCUSDT", domain.MarketFutures); ok {
		t.Fatal("absent venue must return false")
	}
}

func TestClassify(t *testing.T) {
	d := NewExchangeData()
	if got := d.Classify(true); got != StatusFailed {
		t.Fatalf("empty=%s want failed", got)
	}

	d.OrderBooks["BTCUSDT"] = domain.Quote{Bid: 1, Ask: 2}
	if got := d.Classify(true); got != StatusPartial {
		t.Fatalf("books without funding=%s want partial", got)
	}
	if got := d.Classify(false); got != StatusOK {
		t.Fatalf("books in a price-only cycle=%s want ok", got)
	}

	d.FundingRates["BTCUSDT"] = domain.FundingRecord{Symbol: "BTCUSDT"}
	if got := d.Classify(true); got != StatusOK {
		t.Fatalf("books plus funding=%s want ok", got)
	}
}

func TestStore_SwapAndLatest(t *testing.T) {
	s := NewStore()
	if s.Latest() == nil {
		t.Fatal("store must never return nil")
	}

	snap := &Snapshot{Exchanges: map[string]*ExchangeData{}}
	s.Swap(snap)
	if s.Latest() != snap {
		t.Fatal("latest must return the swapped generation")
	}
}
