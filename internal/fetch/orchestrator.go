// Package fetch implements the polling-side orchestration: one Refresh call
// fans out a concurrent fetch per (exchange, data kind), waits for every
// call to settle, and publishes the results as a single snapshot
// generation. One venue failing, timing out, or returning garbage never
// affects another venue's slots, and a cycle always completes.
package fetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arbhub/arbhub/internal/domain"
	"github.com/arbhub/arbhub/internal/exchange"
	"github.com/arbhub/arbhub/internal/snapshot"
)

// Orchestrator coordinates fetch cycles over a fixed adapter set. At most
// one cycle runs at a time; callers requesting a refresh mid-cycle block
// until the in-flight generation completes.
type Orchestrator struct {
	adapters []exchange.Adapter
	store    *snapshot.Store
	logger   *slog.Logger

	mu sync.Mutex // serializes cycles
}

// NewOrchestrator creates an Orchestrator writing into the given store.
func NewOrchestrator(adapters []exchange.Adapter, store *snapshot.Store, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		adapters: adapters,
		store:    store,
		logger:   logger.With(slog.String("component", "fetch_orchestrator")),
	}
}

// Refresh runs one full fetch cycle for the given mode and swaps the
// resulting snapshot into the store. It returns the new generation so
// callers can consume it without re-reading the store. Adapter errors are
// absorbed: they leave the corresponding slot empty and are logged at
// debug level only.
func (o *Orchestrator) Refresh(ctx context.Context, mode domain.Mode) *snapshot.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	snap := &snapshot.Snapshot{
		Mode:      mode,
		Exchanges: make(map[string]*snapshot.ExchangeData, len(o.adapters)),
		TakenAt:   start.UTC(),
	}
	for _, a := range o.adapters {
		snap.Exchanges[a.Name()] = snapshot.NewExchangeData()
	}

	var wg sync.WaitGroup
	for _, a := range o.adapters {
		// Each task writes to a distinct slot of its own exchange's
		// ExchangeData, so no locking is needed within the cycle.
		data := snap.Exchanges[a.Name()]

		wg.Add(2)
		go o.fetchSlot(ctx, &wg, a.Name(), "order_books", func() (int, error) {
			books, err := a.FetchOrderBooks(ctx)
			if err == nil {
				data.OrderBooks = books
			}
			return len(books), err
		})
		go o.fetchSlot(ctx, &wg, a.Name(), "volumes", func() (int, error) {
			vols, err := a.FetchVolumes(ctx)
			if err == nil {
				data.Volumes = vols
			}
			return len(vols), err
		})

		if mode.NeedsFunding() {
			wg.Add(1)
			go o.fetchSlot(ctx, &wg, a.Name(), "funding_rates", func() (int, error) {
				rates, err := a.FetchFundingRates(ctx)
				if err == nil {
					data.FundingRates = rates
				}
				return len(rates), err
			})
		}
		if mode.NeedsMargin() {
			wg.Add(2)
			go o.fetchSlot(ctx, &wg, a.Name(), "margin_tokens", func() (int, error) {
				tokens, err := a.FetchMarginTokens(ctx)
				if err == nil {
					data.MarginTokens = tokens
				}
				return len(tokens), err
			})
			go o.fetchSlot(ctx, &wg, a.Name(), "spot_prices", func() (int, error) {
				prices, err := a.FetchSpotPrices(ctx)
				if err == nil {
					data.SpotPrices = prices
				}
				return len(prices), err
			})
		}
	}
	wg.Wait()

	o.store.Swap(snap)
	o.logSummary(snap, time.Since(start))
	return snap
}

// fetchSlot runs one (exchange, kind) fetch and absorbs its failure.
func (o *Orchestrator) fetchSlot(ctx context.Context, wg *sync.WaitGroup, exchangeName, kind string, fn func() (int, error)) {
	defer wg.Done()

	n, err := fn()
	if err != nil {
		o.logger.DebugContext(ctx, "fetch failed",
			slog.String("exchange", exchangeName),
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return
	}
	if n == 0 {
		o.logger.DebugContext(ctx, "fetch returned empty result",
			slog.String("exchange", exchangeName),
			slog.String("kind", kind),
		)
	}
}

// logSummary emits the per-exchange success/partial/failure classification
// for the completed cycle.
func (o *Orchestrator) logSummary(snap *snapshot.Snapshot, elapsed time.Duration) {
	var ok, partial, failed []string
	for name, data := range snap.Exchanges {
		switch data.Classify(snap.Mode.NeedsFunding()) {
		case snapshot.StatusOK:
			ok = append(ok, name)
		case snapshot.StatusPartial:
			partial = append(partial, name)
		default:
			failed = append(failed, name)
		}
	}

	o.logger.Info("fetch cycle complete",
		slog.String("mode", string(snap.Mode)),
		slog.Duration("elapsed", elapsed),
		slog.Int("exchanges", len(snap.Exchanges)),
		slog.Any("ok", ok),
		slog.Any("partial", partial),
		slog.Any("failed", failed),
	)
}
