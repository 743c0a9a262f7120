package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBHUB_* environment overrides, and returns
// the final Config. The caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env if present; silently ignore a missing file.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides overwrites Config fields from well-known ARBHUB_*
// variables when set, so operators can inject secrets at deploy time
// without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Mode, "ARBHUB_MODE")
	setStr(&cfg.LogLevel, "ARBHUB_LOG_LEVEL")

	setStr(&cfg.Arbitrage.Mode, "ARBHUB_ARBITRAGE_MODE")
	setFloat(&cfg.Arbitrage.MinSpreadPct, "ARBHUB_MIN_SPREAD_PCT")
	setFloat(&cfg.Arbitrage.MaxSpreadPct, "ARBHUB_MAX_SPREAD_PCT")
	setFloat(&cfg.Arbitrage.MinVolume, "ARBHUB_MIN_VOLUME")
	setFloat(&cfg.Arbitrage.NegRateThreshold, "ARBHUB_NEG_RATE_THRESHOLD")
	setInt(&cfg.Arbitrage.ScanIntervalSec, "ARBHUB_SCAN_INTERVAL_SEC")

	setStr(&cfg.Stream.Symbol, "ARBHUB_STREAM_SYMBOL")
	setStr(&cfg.Stream.ExchangeA, "ARBHUB_STREAM_EXCHANGE_A")
	setStr(&cfg.Stream.MarketA, "ARBHUB_STREAM_MARKET_A")
	setStr(&cfg.Stream.ExchangeB, "ARBHUB_STREAM_EXCHANGE_B")
	setStr(&cfg.Stream.MarketB, "ARBHUB_STREAM_MARKET_B")
	setInt(&cfg.Stream.CadenceMS, "ARBHUB_STREAM_CADENCE_MS")

	setBool(&cfg.Redis.Enabled, "ARBHUB_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ARBHUB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBHUB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBHUB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBHUB_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "ARBHUB_REDIS_TLS_ENABLED")

	setBool(&cfg.API.Enabled, "ARBHUB_API_ENABLED")
	setInt(&cfg.API.Port, "ARBHUB_API_PORT")

	setStr(&cfg.Notify.TelegramToken, "ARBHUB_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBHUB_TELEGRAM_CHAT_ID")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
}
