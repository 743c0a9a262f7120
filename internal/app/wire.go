package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/arbhub/arbhub/internal/arbitrage"
	"github.com/arbhub/arbhub/internal/bus"
	"github.com/arbhub/arbhub/internal/config"
	"github.com/arbhub/arbhub/internal/domain"
	"github.com/arbhub/arbhub/internal/engine"
	"github.com/arbhub/arbhub/internal/exchange"
	"github.com/arbhub/arbhub/internal/feed"
	"github.com/arbhub/arbhub/internal/fetch"
	"github.com/arbhub/arbhub/internal/notify"
	"github.com/arbhub/arbhub/internal/snapshot"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Dependencies bundles the long-running subsystems the modes operate.
type Dependencies struct {
	Store    *snapshot.Store
	Engine   *engine.Engine
	Pipeline *feed.Pipeline
	Bus      *bus.Bus
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependencies from the configuration and
// returns them with a cleanup function for shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// Event bus (optional).
	if cfg.Redis.Enabled {
		b, err := bus.New(ctx, bus.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: event bus: %w", err)
		}
		deps.Bus = b
		closers = append(closers, func() { _ = b.Close() })
		logger.Info("event bus connected", slog.String("addr", cfg.Redis.Addr))
	}

	// Notification sinks.
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// Adapter registry, snapshot store, orchestrator, engine.
	adapters := buildAdapters(cfg.Arbitrage.Exchanges)
	logger.Info("exchange adapters initialized", slog.Int("count", len(adapters)))

	deps.Store = snapshot.NewStore()
	orch := fetch.NewOrchestrator(adapters, deps.Store, logger)

	var publisher engine.Publisher
	if deps.Bus != nil {
		publisher = deps.Bus
	}
	deps.Engine = engine.New(engine.Config{
		Mode:             domain.Mode(cfg.Arbitrage.Mode),
		MinSpreadPct:     cfg.Arbitrage.MinSpreadPct,
		MaxSpreadPct:     cfg.Arbitrage.MaxSpreadPct,
		MinVolume:        cfg.Arbitrage.MinVolume,
		NegRateThreshold: cfg.Arbitrage.NegRateThreshold,
		Interval:         cfg.Arbitrage.ScanInterval(),
	}, orch, arbitrage.NewMonitor(), deps.Notifier, publisher, logger)

	// Tick pipeline, built for stream-capable modes.
	if cfg.Mode == "stream" || cfg.Mode == "full" {
		pipeline, err := feed.NewPipeline(feed.PipelineConfig{
			Symbol:    cfg.Stream.Symbol,
			ExchangeA: cfg.Stream.ExchangeA,
			MarketA:   domain.MarketKind(cfg.Stream.MarketA),
			ExchangeB: cfg.Stream.ExchangeB,
			MarketB:   domain.MarketKind(cfg.Stream.MarketB),
			Cadence:   cfg.Stream.Cadence(),
		}, readingPublisher(ctx, deps.Bus, logger), logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: tick pipeline: %w", err)
		}
		deps.Pipeline = pipeline
	}

	return deps, cleanup, nil
}

// buildAdapters selects the adapter registry. An empty selection enables
// every shipped adapter.
func buildAdapters(names []string) []exchange.Adapter {
	all := []exchange.Adapter{
		exchange.NewBinance(),
		exchange.NewBybit(),
		exchange.NewGateio(),
	}
	if len(names) == 0 {
		return all
	}

	enabled := make(map[string]bool, len(names))
	for _, n := range names {
		enabled[strings.ToLower(n)] = true
	}
	var out []exchange.Adapter
	for _, a := range all {
		if enabled[strings.ToLower(a.Name())] {
			out = append(out, a)
		}
	}
	return out
}

// readingPublisher forwards live spread readings to the event bus. With no
// bus configured, readings stay visible through the API only.
func readingPublisher(ctx context.Context, b *bus.Bus, logger *slog.Logger) feed.ReadingHandler {
	if b == nil {
		return nil
	}
	return func(r domain.SpreadReading) {
		payload, err := json.Marshal(r)
		if err != nil {
			return
		}
		if err := b.Publish(ctx, engine.ChannelLive, payload); err != nil {
			logger.Debug("live publish failed", slog.String("error", err.Error()))
		}
	}
}
