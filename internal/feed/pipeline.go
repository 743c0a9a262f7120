package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arbhub/arbhub/internal/domain"
)

// ReadingHandler receives live spread readings at the configured cadence.
type ReadingHandler func(domain.SpreadReading)

// PipelineConfig names the two legs to stream and how often to publish a
// reading. The cadence is independent of tick arrival rate.
type PipelineConfig struct {
	Symbol    string
	ExchangeA string
	MarketA   domain.MarketKind
	ExchangeB string
	MarketB   domain.MarketKind
	Cadence   time.Duration
}

// Pipeline merges two reconnecting tick feeds into one Calculator and
// publishes readings on a fixed ticker. Connection failures are invisible
// to the consumer except as gaps in tick arrival; while a side is stale no
// reading is published at all.
type Pipeline struct {
	cfg       PipelineConfig
	calc      *Calculator
	connA     *Conn
	connB     *Conn
	onReading ReadingHandler
	logger    *slog.Logger
}

// NewPipeline wires providers and connections for both legs.
func NewPipeline(cfg PipelineConfig, onReading ReadingHandler, logger *slog.Logger) (*Pipeline, error) {
	if cfg.Cadence <= 0 {
		cfg.Cadence = 500 * time.Millisecond
	}

	p := &Pipeline{
		cfg:       cfg,
		calc:      NewCalculator(),
		onReading: onReading,
		logger:    logger.With(slog.String("component", "feed_pipeline")),
	}

	provA, err := NewProvider(cfg.ExchangeA)
	if err != nil {
		return nil, fmt.Errorf("feed: side A: %w", err)
	}
	provB, err := NewProvider(cfg.ExchangeB)
	if err != nil {
		return nil, fmt.Errorf("feed: side B: %w", err)
	}

	p.connA = NewConn(provA, cfg.Symbol, cfg.MarketA, p.calc.UpdateA, logger)
	p.connB = NewConn(provB, cfg.Symbol, cfg.MarketB, p.calc.UpdateB, logger)
	return p, nil
}

// Calculator exposes the live calculator for read-side consumers.
func (p *Pipeline) Calculator() *Calculator { return p.calc }

// States reports both connections' lifecycle states.
func (p *Pipeline) States() (a, b State) {
	return p.connA.State(), p.connB.State()
}

// Run starts both connections and the publish ticker and blocks until ctx
// is cancelled. Each connection's reconnect loop is independent; the only
// shared state between them is the calculator's two locked slots.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("tick pipeline starting",
		slog.String("symbol", p.cfg.Symbol),
		slog.String("side_a", fmt.Sprintf("%s/%s", p.cfg.ExchangeA, p.cfg.MarketA)),
		slog.String("side_b", fmt.Sprintf("%s/%s", p.cfg.ExchangeB, p.cfg.MarketB)),
		slog.Duration("cadence", p.cfg.Cadence),
	)
	defer p.logger.Info("tick pipeline stopped")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return p.runConn(ctx, p.connA) })
	g.Go(func() error { return p.runConn(ctx, p.connB) })

	g.Go(func() error {
		ticker := time.NewTicker(p.cfg.Cadence)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if reading, err := p.calc.Calculate(); err == nil && p.onReading != nil {
					p.onReading(reading)
				}
			}
		}
	})

	err := g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (p *Pipeline) runConn(ctx context.Context, c *Conn) error {
	defer c.Stop()
	return c.Run(ctx)
}
