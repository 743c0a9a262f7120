package config

import (
	"strings"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "watch"
	cfg.Arbitrage.Mode = "spot-spot"
	cfg.Arbitrage.MinSpreadPct = 50
	cfg.Arbitrage.MaxSpreadPct = 10

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"watch", "spot-spot", "min_spread_pct"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q must mention %q", err.Error(), want)
		}
	}
}

func TestValidate_StreamOnlyCheckedInStreamModes(t *testing.T) {
	cfg := Defaults()
	cfg.Stream.Symbol = ""

	// scan mode ignores stream settings.
	if err := cfg.Validate(); err != nil {
		t.Fatalf("scan mode must not validate stream config: %v", err)
	}

	cfg.Mode = "stream"
	if err := cfg.Validate(); err == nil {
		t.Fatal("stream mode must require a symbol")
	}
}

func TestValidate_TelegramPair(t *testing.T) {
	cfg := Defaults()
	cfg.Notify.TelegramToken = "token"

	if err := cfg.Validate(); err == nil {
		t.Fatal("token without chat id must fail")
	}

	cfg.Notify.TelegramChatID = "42"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token plus chat id must pass: %v", err)
	}
}

func TestValidate_NegRateThreshold(t *testing.T) {
	cfg := Defaults()
	cfg.Arbitrage.NegRateThreshold = 0.001
	if err := cfg.Validate(); err == nil {
		t.Fatal("a positive neg_rate_threshold must fail")
	}
}

func TestArbMode(t *testing.T) {
	cfg := Defaults()
	if !cfg.ArbMode().NeedsFunding() {
		t.Fatal("default mode must require funding data")
	}
	cfg.Arbitrage.Mode = "price-only"
	if cfg.ArbMode().NeedsFunding() {
		t.Fatal("price-only must not require funding data")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARBHUB_MODE", "full")
	t.Setenv("ARBHUB_MIN_SPREAD_PCT", "0.25")
	t.Setenv("ARBHUB_REDIS_ENABLED", "true")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Mode != "full" {
		t.Fatalf("mode=%s want=full", cfg.Mode)
	}
	if cfg.Arbitrage.MinSpreadPct != 0.25 {
		t.Fatalf("min_spread=%f want=0.25", cfg.Arbitrage.MinSpreadPct)
	}
	if !cfg.Redis.Enabled {
		t.Fatal("redis must be enabled via env override")
	}
}
