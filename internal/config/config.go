// Package config defines the top-level configuration for the arbitrage
// engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/arbhub/arbhub/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBHUB_* environment
// variables.
type Config struct {
	Arbitrage ArbitrageConfig `toml:"arbitrage"`
	Stream    StreamConfig    `toml:"stream"`
	Redis     RedisConfig     `toml:"redis"`
	API       APIConfig       `toml:"api"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"` // scan | stream | full
	LogLevel  string          `toml:"log_level"`
}

// ArbitrageConfig holds the scan-loop parameters.
type ArbitrageConfig struct {
	// Mode selects the computation: futures-futures, margin-futures,
	// futures-margin, or price-only.
	Mode             string  `toml:"mode"`
	MinSpreadPct     float64 `toml:"min_spread_pct"`
	MaxSpreadPct     float64 `toml:"max_spread_pct"`
	MinVolume        float64 `toml:"min_volume"`
	NegRateThreshold float64 `toml:"neg_rate_threshold"`
	ScanIntervalSec  int     `toml:"scan_interval_sec"`
	// Exchanges restricts the adapter registry; empty enables all.
	Exchanges []string `toml:"exchanges"`
}

// ScanInterval returns the scan cadence as a duration.
func (c ArbitrageConfig) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSec) * time.Second
}

// StreamConfig names the two legs of the real-time tick pipeline.
type StreamConfig struct {
	Symbol    string `toml:"symbol"`
	ExchangeA string `toml:"exchange_a"`
	MarketA   string `toml:"market_a"`
	ExchangeB string `toml:"exchange_b"`
	MarketB   string `toml:"market_b"`
	CadenceMS int    `toml:"cadence_ms"`
}

// Cadence returns the publish cadence as a duration.
func (c StreamConfig) Cadence() time.Duration {
	return time.Duration(c.CadenceMS) * time.Millisecond
}

// RedisConfig holds event-bus connection parameters. Disabled means
// alerts go to the log and Telegram only.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// APIConfig holds the read-only HTTP API parameters.
type APIConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// NotifyConfig holds alert delivery parameters.
type NotifyConfig struct {
	TelegramToken  string   `toml:"telegram_token"`
	TelegramChatID string   `toml:"telegram_chat_id"`
	// Events limits which alert types are delivered; empty allows all.
	Events []string `toml:"events"`
}

var validModes = map[string]bool{
	"scan":   true,
	"stream": true,
	"full":   true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validArbModes = map[string]bool{
	string(domain.ModeFuturesFutures): true,
	string(domain.ModeMarginFutures):  true,
	string(domain.ModeFuturesMargin):  true,
	string(domain.ModePriceOnly):      true,
}

// Defaults returns the built-in configuration a TOML file is merged over.
func Defaults() Config {
	return Config{
		Arbitrage: ArbitrageConfig{
			Mode:             string(domain.ModeFuturesFutures),
			MinSpreadPct:     0.1,
			MaxSpreadPct:     100,
			MinVolume:        10000,
			NegRateThreshold: -0.005,
			ScanIntervalSec:  30,
		},
		Stream: StreamConfig{
			Symbol:    "BTCUSDT",
			ExchangeA: "binance",
			MarketA:   string(domain.MarketFutures),
			ExchangeB: "gateio",
			MarketB:   string(domain.MarketFutures),
			CadenceMS: 500,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 20,
		},
		API: APIConfig{
			Enabled: true,
			Port:    8080,
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// ArbMode returns the typed computation mode.
func (c *Config) ArbMode() domain.Mode { return domain.Mode(c.Arbitrage.Mode) }

// Validate checks the whole configuration and collects every problem into
// one error.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, stream, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if !validArbModes[c.Arbitrage.Mode] {
		errs = append(errs, fmt.Sprintf("arbitrage: unknown mode %q (valid: futures-futures, margin-futures, futures-margin, price-only)", c.Arbitrage.Mode))
	}
	if c.Arbitrage.MinSpreadPct >= c.Arbitrage.MaxSpreadPct {
		errs = append(errs, fmt.Sprintf("arbitrage: min_spread_pct (%g) must be below max_spread_pct (%g)", c.Arbitrage.MinSpreadPct, c.Arbitrage.MaxSpreadPct))
	}
	if c.Arbitrage.MinVolume < 0 {
		errs = append(errs, "arbitrage: min_volume must not be negative")
	}
	if c.Arbitrage.NegRateThreshold >= 0 {
		errs = append(errs, fmt.Sprintf("arbitrage: neg_rate_threshold must be negative, got %g", c.Arbitrage.NegRateThreshold))
	}
	if c.Arbitrage.ScanIntervalSec <= 0 {
		errs = append(errs, "arbitrage: scan_interval_sec must be positive")
	}

	needsStream := c.Mode == "stream" || c.Mode == "full"
	if needsStream {
		if c.Stream.Symbol == "" {
			errs = append(errs, "stream: symbol must not be empty")
		}
		if c.Stream.ExchangeA == "" || c.Stream.ExchangeB == "" {
			errs = append(errs, "stream: exchange_a and exchange_b must both be set")
		}
		for _, m := range []string{c.Stream.MarketA, c.Stream.MarketB} {
			if m != string(domain.MarketFutures) && m != string(domain.MarketMargin) {
				errs = append(errs, fmt.Sprintf("stream: market must be futures or margin, got %q", m))
			}
		}
		if c.Stream.CadenceMS <= 0 {
			errs = append(errs, "stream: cadence_ms must be positive")
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must be set when enabled")
	}
	if c.API.Enabled && (c.API.Port <= 0 || c.API.Port > 65535) {
		errs = append(errs, fmt.Sprintf("api: port must be in 1..65535, got %d", c.API.Port))
	}

	// Telegram credentials come as a pair or not at all.
	tk, tc := c.Notify.TelegramToken != "", c.Notify.TelegramChatID != ""
	if tk != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
