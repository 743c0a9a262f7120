// Package api exposes the engine's cached results over a small read-only
// HTTP surface. It is a thin translator: JSON field mapping only, no
// computation.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arbhub/arbhub/internal/engine"
	"github.com/arbhub/arbhub/internal/feed"
)

// Server wraps the fiber app and its data sources.
type Server struct {
	app      *fiber.App
	engine   *engine.Engine
	pipeline *feed.Pipeline // nil unless streaming is active
	port     int
	logger   *slog.Logger
}

// NewServer builds the fiber app and registers all routes. pipeline may be
// nil; the live endpoint then reports not-available.
func NewServer(port int, eng *engine.Engine, pipeline *feed.Pipeline, logger *slog.Logger) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:      "arbhub",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}),
		engine:   eng,
		pipeline: pipeline,
		port:     port,
		logger:   logger.With(slog.String("component", "api")),
	}

	g := s.app.Group("/api")
	g.Get("/health", s.health)
	g.Get("/spreads", s.spreads)
	g.Get("/funding", s.funding)
	g.Get("/margin", s.margin)
	g.Get("/live", s.live)
	return s
}

// Run serves until ctx is cancelled, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("shutdown failed", slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("api listening", slog.Int("port", s.port))
	if err := s.app.Listen(fmt.Sprintf(":%d", s.port)); err != nil {
		return fmt.Errorf("api: listen: %w", err)
	}
	return ctx.Err()
}

func (s *Server) health(c fiber.Ctx) error {
	res := s.engine.Results()
	return c.JSON(fiber.Map{
		"status":     "ok",
		"mode":       res.Mode,
		"data_ready": !res.UpdatedAt.IsZero(),
		"updated_at": res.UpdatedAt,
	})
}

// spreadItem is the frontend-facing shape of one directional path.
type spreadItem struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	BuyExchange  string  `json:"buy_exchange"`
	SellExchange string  `json:"sell_exchange"`
	BuyPrice     float64 `json:"buy_price"`
	SellPrice    float64 `json:"sell_price"`
	Spread       float64 `json:"spread"`
	BuyVolume    float64 `json:"buy_volume"`
	SellVolume   float64 `json:"sell_volume"`
}

func (s *Server) spreads(c fiber.Ctx) error {
	res := s.engine.Results()

	items := make([]spreadItem, 0, len(res.Paths))
	for _, p := range res.Paths {
		items = append(items, spreadItem{
			ID:           p.ID(),
			Symbol:       p.Symbol,
			BuyExchange:  p.BuyExchange,
			SellExchange: p.SellExchange,
			BuyPrice:     p.BuyAsk,
			SellPrice:    p.SellBid,
			Spread:       p.SpreadPct,
			BuyVolume:    finiteOrZero(p.BuyVolume),
			SellVolume:   finiteOrZero(p.SellVolume),
		})
	}
	return c.JSON(fiber.Map{
		"spreads":    items,
		"count":      len(items),
		"updated_at": res.UpdatedAt,
	})
}

func (s *Server) funding(c fiber.Ctx) error {
	res := s.engine.Results()
	return c.JSON(fiber.Map{
		"opportunities": res.Funding,
		"count":         len(res.Funding),
		"updated_at":    res.UpdatedAt,
	})
}

func (s *Server) margin(c fiber.Ctx) error {
	res := s.engine.Results()
	return c.JSON(fiber.Map{
		"opportunities": res.Margin,
		"count":         len(res.Margin),
		"updated_at":    res.UpdatedAt,
	})
}

func (s *Server) live(c fiber.Ctx) error {
	if s.pipeline == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "streaming is not active",
		})
	}

	stateA, stateB := s.pipeline.States()
	reading, err := s.pipeline.Calculator().Calculate()
	if err != nil {
		return c.JSON(fiber.Map{
			"reading": nil,
			"reason":  err.Error(),
			"state_a": stateA.String(),
			"state_b": stateB.String(),
		})
	}
	return c.JSON(fiber.Map{
		"reading": fiber.Map{
			"timestamp":    reading.Timestamp,
			"entry_spread": reading.EntrySpread,
			"exit_spread":  reading.ExitSpread,
			"latency_a_ms": reading.LatencyA.Milliseconds(),
			"latency_b_ms": reading.LatencyB.Milliseconds(),
		},
		"state_a": stateA.String(),
		"state_b": stateB.String(),
	})
}

// finiteOrZero maps the unknown-volume sentinel (+Inf) to 0 on the wire.
func finiteOrZero(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
