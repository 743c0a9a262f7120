package arbitrage

import (
	"sort"

	"github.com/arbhub/arbhub/internal/domain"
	"github.com/arbhub/arbhub/internal/snapshot"
)

// minFundingProfit is the floor below which a funding pairing is noise:
// one basis point per funding interval.
const minFundingProfit = 0.0001

// SelectFundingOpportunities returns, per symbol, the single exchange
// pairing that maximizes receivable-minus-paid funding: short the leg with
// the higher rate, long the leg with the lower one. A symbol needs funding
// data and an order book on at least two venues; symbols where no pairing
// clears the one-basis-point floor are omitted entirely. The attached
// price spread (short bid versus long ask) is informational, not a filter.
// Output is sorted by profit descending.
func SelectFundingOpportunities(snap *snapshot.Snapshot, minVolume float64) []domain.FundingOpportunity {
	// Venues usable for a symbol: funding record plus a live book.
	type leg struct {
		rate domain.FundingRecord
		book domain.Quote
	}

	symbols := make(map[string]map[string]leg) // symbol -> exchange -> leg
	for name, data := range snap.Exchanges {
		for sym, rec := range data.FundingRates {
			book, ok := data.OrderBooks[sym]
			if !ok || book.Bid <= 0 || book.Ask <= 0 {
				continue
			}
			if vol, ok := data.Volumes[sym]; ok && vol < minVolume {
				continue
			}
			if symbols[sym] == nil {
				symbols[sym] = make(map[string]leg)
			}
			symbols[sym][name] = leg{rate: rec, book: book}
		}
	}

	var opps []domain.FundingOpportunity
	for sym, legs := range symbols {
		if len(legs) < 2 {
			continue
		}

		names := make([]string, 0, len(legs))
		for name := range legs {
			names = append(names, name)
		}
		sort.Strings(names)

		var best *domain.FundingOpportunity
		for _, short := range names {
			for _, long := range names {
				if short == long {
					continue
				}
				s, l := legs[short], legs[long]
				profit := s.rate.Rate - l.rate.Rate
				if profit <= minFundingProfit {
					continue
				}
				if best != nil && profit <= best.Profit {
					continue
				}
				best = &domain.FundingOpportunity{
					Symbol:        sym,
					ShortExchange: short,
					ShortRate:     s.rate.Rate,
					LongExchange:  long,
					LongRate:      l.rate.Rate,
					Profit:        profit,
					PriceSpread:   spreadPct(l.book.Ask, s.book.Bid),
					// The short leg's schedule drives position timing:
					// that is when the receivable payment posts.
					NextFunding: s.rate.NextFunding,
				}
			}
		}
		if best != nil {
			opps = append(opps, *best)
		}
	}

	sort.Slice(opps, func(i, j int) bool {
		if opps[i].Profit != opps[j].Profit {
			return opps[i].Profit > opps[j].Profit
		}
		return opps[i].Symbol < opps[j].Symbol
	})
	return opps
}
