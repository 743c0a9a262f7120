package arbitrage

import (
	"testing"

	"github.com/arbhub/arbhub/internal/domain"
)

func path(symbol, buy, sell string, spread float64) domain.ExchangePath {
	return domain.ExchangePath{
		Symbol:       symbol,
		BuyExchange:  buy,
		BuyMarket:    domain.MarketFutures,
		SellExchange: sell,
		SellMarket:   domain.MarketFutures,
		SpreadPct:    spread,
	}
}

func TestMonitor_FirstSightingOnly(t *testing.T) {
	m := NewMonitor()
	p := path("BTCUSDT", "binance", "gateio", 1.0)

	alerts := m.DetectNew([]domain.ExchangePath{p})
	if len(alerts) != 1 || !alerts[0].New {
		t.Fatalf("alerts=%v want one new-path alert", alerts)
	}
	if alerts[0].AlertID == "" {
		t.Fatal("alert must carry a unique id")
	}

	// Same path, same magnitude: suppressed.
	if alerts := m.DetectNew([]domain.ExchangePath{p}); len(alerts) != 0 {
		t.Fatalf("alerts=%d want=0 (unchanged path must be suppressed)", len(alerts))
	}
	if m.Size() != 1 {
		t.Fatalf("size=%d want=1", m.Size())
	}
}

func TestMonitor_Regrowth(t *testing.T) {
	m := NewMonitor()
	m.DetectNew([]domain.ExchangePath{path("BTCUSDT", "binance", "gateio", 1.0)})

	// 30% growth: below the re-announce bar.
	if alerts := m.DetectNew([]domain.ExchangePath{path("BTCUSDT", "binance", "gateio", 1.3)}); len(alerts) != 0 {
		t.Fatalf("alerts=%d want=0 (30%% growth suppressed)", len(alerts))
	}

	// Versus the updated 1.3 baseline, 2.0 is ~54% growth.
	alerts := m.DetectNew([]domain.ExchangePath{path("BTCUSDT", "binance", "gateio", 2.0)})
	if len(alerts) != 1 {
		t.Fatalf("alerts=%d want=1", len(alerts))
	}
	if alerts[0].New {
		t.Fatal("regrowth alert must not be flagged as new")
	}
	if alerts[0].SpreadIncrease < 0.5 {
		t.Fatalf("increase=%f want >= 0.5", alerts[0].SpreadIncrease)
	}
}

func TestMonitor_ShrinkRearmsLowerBaseline(t *testing.T) {
	m := NewMonitor()
	m.DetectNew([]domain.ExchangePath{path("BTCUSDT", "binance", "gateio", 2.0)})
	m.DetectNew([]domain.ExchangePath{path("BTCUSDT", "binance", "gateio", 1.0)})

	// 1.0 -> 1.6 is 60% versus the shrunken baseline.
	alerts := m.DetectNew([]domain.ExchangePath{path("BTCUSDT", "binance", "gateio", 1.6)})
	if len(alerts) != 1 {
		t.Fatalf("alerts=%d want=1 (baseline must follow the shrink)", len(alerts))
	}
}

func TestMonitor_ReappearanceNotReannounced(t *testing.T) {
	m := NewMonitor()
	p := path("BTCUSDT", "binance", "gateio", 1.0)
	m.DetectNew([]domain.ExchangePath{p})
	m.DetectNew(nil) // path gone this cycle

	if alerts := m.DetectNew([]domain.ExchangePath{p}); len(alerts) != 0 {
		t.Fatalf("alerts=%d want=0 (reappearance at same magnitude)", len(alerts))
	}
}

func TestMonitor_DirectionsAreDistinct(t *testing.T) {
	m := NewMonitor()
	a := path("BTCUSDT", "binance", "gateio", 1.0)
	b := path("BTCUSDT", "gateio", "binance", 1.0)

	alerts := m.DetectNew([]domain.ExchangePath{a, b})
	if len(alerts) != 2 {
		t.Fatalf("alerts=%d want=2 (opposite directions are distinct identities)", len(alerts))
	}
}

func TestMonitor_Reset(t *testing.T) {
	m := NewMonitor()
	p := path("BTCUSDT", "binance", "gateio", 1.0)
	m.DetectNew([]domain.ExchangePath{p})
	m.Reset()

	if m.Size() != 0 {
		t.Fatalf("size=%d want=0 after reset", m.Size())
	}
	alerts := m.DetectNew([]domain.ExchangePath{p})
	if len(alerts) != 1 || !alerts[0].New {
		t.Fatal("after reset every path is new again")
	}
}
