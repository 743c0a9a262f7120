// Package engine runs the polling-side scan loop: refresh the snapshot,
// run the mode-appropriate selectors, feed the spread monitor, and fan
// alerts out to the configured sinks. The latest results are cached under
// a read lock for the HTTP API.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/arbhub/arbhub/internal/arbitrage"
	"github.com/arbhub/arbhub/internal/domain"
	"github.com/arbhub/arbhub/internal/fetch"
	"github.com/arbhub/arbhub/internal/notify"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Publisher pushes outbound events to presentation layers. Implemented by
// the Redis bus; nil publishers are skipped.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Channel names for outbound bus events.
const (
	ChannelAlerts = "arbhub:alerts"
	ChannelLive   = "arbhub:live_spreads"
)

// Config holds the scan parameters.
type Config struct {
	Mode             domain.Mode
	MinSpreadPct     float64
	MaxSpreadPct     float64
	MinVolume        float64
	NegRateThreshold float64
	Interval         time.Duration
}

// Results is one cycle's output, cached for API consumers.
type Results struct {
	Mode      domain.Mode                 `json:"mode"`
	Paths     []domain.ExchangePath       `json:"paths"`
	Funding   []domain.FundingOpportunity `json:"funding"`
	Margin    []domain.MarginOpportunity  `json:"margin"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// Engine owns one scan loop.
type Engine struct {
	cfg      Config
	orch     *fetch.Orchestrator
	monitor  *arbitrage.Monitor
	notifier *notify.Notifier
	bus      Publisher
	logger   *slog.Logger

	mu      sync.RWMutex
	results Results
}

// New creates an Engine. notifier and bus may be nil; alerts then go to
// the log only.
func New(cfg Config, orch *fetch.Orchestrator, monitor *arbitrage.Monitor, notifier *notify.Notifier, bus Publisher, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		orch:     orch,
		monitor:  monitor,
		notifier: notifier,
		bus:      bus,
		logger:   logger.With(slog.String("component", "engine")),
	}
}

// Results returns the latest cached cycle output.
func (e *Engine) Results() Results {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.results
}

// Run scans once immediately so the cache is never empty, then on every
// interval tick until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting",
		slog.String("mode", string(e.cfg.Mode)),
		slog.Duration("interval", e.cfg.Interval),
	)
	defer e.logger.Info("engine stopped")

	e.scan(ctx)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.scan(ctx)
		}
	}
}

// scan runs one full cycle. It never fails: empty snapshots simply yield
// empty result lists.
func (e *Engine) scan(ctx context.Context) {
	snap := e.orch.Refresh(ctx, e.cfg.Mode)

	next := Results{Mode: e.cfg.Mode, UpdatedAt: snap.TakenAt}

	graphs := arbitrage.BuildGraphs(snap, arbitrage.GraphConfig{
		MinSpreadPct: e.cfg.MinSpreadPct,
		MaxSpreadPct: e.cfg.MaxSpreadPct,
		MinVolume:    e.cfg.MinVolume,
	})
	next.Paths = arbitrage.AllPaths(graphs)

	if e.cfg.Mode.NeedsFunding() {
		next.Funding = arbitrage.SelectFundingOpportunities(snap, e.cfg.MinVolume)
	}
	if e.cfg.Mode.NeedsMargin() {
		next.Margin = arbitrage.SelectMarginOpportunities(snap, e.cfg.MinVolume, e.cfg.NegRateThreshold)
	}

	e.mu.Lock()
	e.results = next
	e.mu.Unlock()

	alerts := e.monitor.DetectNew(next.Paths)
	e.logger.Info("scan complete",
		slog.Int("paths", len(next.Paths)),
		slog.Int("funding", len(next.Funding)),
		slog.Int("margin", len(next.Margin)),
		slog.Int("alerts", len(alerts)),
	)

	for _, alert := range alerts {
		e.emit(ctx, alert)
	}
}

// emit delivers one alert to every configured sink. Sink failures are
// logged and never abort the cycle.
func (e *Engine) emit(ctx context.Context, alert domain.PathAlert) {
	event := "spread_growth"
	if alert.New {
		event = "new_path"
	}

	if e.bus != nil {
		payload, err := json.Marshal(alert)
		if err == nil {
			if err := e.bus.Publish(ctx, ChannelAlerts, payload); err != nil {
				e.logger.Warn("bus publish failed", slog.String("error", err.Error()))
			}
		}
	}

	if e.notifier != nil {
		p := alert.Path
		title := fmt.Sprintf("%s %s → %s", p.Symbol, p.BuyExchange, p.SellExchange)
		var body string
		if alert.New {
			body = fmt.Sprintf("new path: buy %.8g / sell %.8g, spread %.4f%%",
				p.BuyAsk, p.SellBid, p.SpreadPct)
		} else {
			body = fmt.Sprintf("spread grew %.0f%%: now %.4f%%",
				alert.SpreadIncrease*100, p.SpreadPct)
		}
		if err := e.notifier.Notify(ctx, event, title, body); err != nil {
			e.logger.Warn("notify failed", slog.String("error", err.Error()))
		}
	}

	e.logger.Info("path alert",
		slog.String("event", event),
		slog.String("path", alert.Path.ID()),
		slog.Float64("spread_pct", alert.Path.SpreadPct),
		slog.Float64("increase", alert.SpreadIncrease),
	)
}
