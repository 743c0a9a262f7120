// Package arbitrage turns snapshot generations into ranked opportunity
// lists: directional price-spread paths, funding-rate pairings, and
// margin-versus-futures basis trades, plus the stateful monitor that
// decides which paths are worth alerting on.
package arbitrage

import (
	"sort"

	"github.com/arbhub/arbhub/internal/domain"
	"github.com/arbhub/arbhub/internal/snapshot"
)

// GraphConfig bounds which paths a symbol graph admits.
type GraphConfig struct {
	MinSpreadPct float64 // exclusive lower bound
	MaxSpreadPct float64 // inclusive upper bound
	MinVolume    float64 // 24h quote-volume floor; unknown volume passes
}

// SymbolGraph is the per-symbol cross-exchange view: every qualifying
// venue's quote plus all directional paths clearing the spread bounds.
// Rebuilt from scratch every cycle, never mutated incrementally.
type SymbolGraph struct {
	Symbol string
	Nodes  map[string]domain.ExchangeQuote
	Paths  []domain.ExchangePath
}

// spreadPct is the directional spread of buying at ask and selling at bid,
// as a percentage of the buy price.
func spreadPct(buyAsk, sellBid float64) float64 {
	return (sellBid - buyAsk) / buyAsk * 100
}

// BuildGraphs derives the symbol graphs for every symbol quoted on at
// least two qualifying exchanges. A venue qualifies for a symbol when its
// bid and ask are strictly positive and its volume clears the floor.
// Paths are kept iff MinSpreadPct < spread <= MaxSpreadPct; both
// directions of a venue pair are evaluated independently. Output paths are
// sorted by spread descending with a lexical (buy, sell) tie-break so
// identical inputs yield identical orderings.
func BuildGraphs(snap *snapshot.Snapshot, cfg GraphConfig) map[string]*SymbolGraph {
	market := domain.MarketFutures

	// Collect every symbol appearing in any exchange's order-book map.
	symbols := make(map[string]struct{})
	for _, data := range snap.Exchanges {
		for sym := range data.OrderBooks {
			symbols[sym] = struct{}{}
		}
	}

	graphs := make(map[string]*SymbolGraph)
	for sym := range symbols {
		nodes := make(map[string]domain.ExchangeQuote)
		for name := range snap.Exchanges {
			q, ok := snap.Quote(name, sym, market)
			if !ok {
				continue
			}
			if q.Bid <= 0 || q.Ask <= 0 {
				continue
			}
			if q.Volume < cfg.MinVolume { // UnknownVolume (+Inf) always passes
				continue
			}
			nodes[name] = q
		}
		if len(nodes) < 2 {
			continue
		}

		names := make([]string, 0, len(nodes))
		for name := range nodes {
			names = append(names, name)
		}
		sort.Strings(names)

		var paths []domain.ExchangePath
		for _, buy := range names {
			for _, sell := range names {
				if buy == sell {
					continue
				}
				b, s := nodes[buy], nodes[sell]
				spread := spreadPct(b.Ask, s.Bid)
				if spread <= cfg.MinSpreadPct || spread > cfg.MaxSpreadPct {
					continue
				}
				paths = append(paths, domain.ExchangePath{
					Symbol:       sym,
					BuyExchange:  buy,
					BuyMarket:    b.Market,
					SellExchange: sell,
					SellMarket:   s.Market,
					BuyAsk:       b.Ask,
					SellBid:      s.Bid,
					BuyVolume:    b.Volume,
					SellVolume:   s.Volume,
					SpreadPct:    spread,
				})
			}
		}
		if len(paths) == 0 {
			continue
		}

		sortPaths(paths)
		graphs[sym] = &SymbolGraph{Symbol: sym, Nodes: nodes, Paths: paths}
	}
	return graphs
}

// AllPaths flattens the per-symbol graphs into one list, sorted by spread
// descending with the same stable tie-break used within a graph.
func AllPaths(graphs map[string]*SymbolGraph) []domain.ExchangePath {
	var all []domain.ExchangePath
	for _, g := range graphs {
		all = append(all, g.Paths...)
	}
	sortPaths(all)
	return all
}

// sortPaths orders by spread descending; equal spreads fall back to the
// lexical path identity so dedup keys stay reproducible across runs.
func sortPaths(paths []domain.ExchangePath) {
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].SpreadPct != paths[j].SpreadPct {
			return paths[i].SpreadPct > paths[j].SpreadPct
		}
		return paths[i].ID() < paths[j].ID()
	})
}
