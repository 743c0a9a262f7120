package arbitrage

import (
	"math"
	"sort"
	"strings"

	"github.com/arbhub/arbhub/internal/domain"
	"github.com/arbhub/arbhub/internal/snapshot"
)

// DefaultNegRateThreshold admits only futures legs paying the long holder
// at least 0.5% per funding interval.
const DefaultNegRateThreshold = -0.005

// spotSymbolVariants are the symbol-suffix conventions tried when matching
// a base token to a venue's spot price map.
func spotSymbolVariants(base string) [4]string {
	return [4]string{
		base + "USDT",
		base + "USD",
		base + "-USDT",
		base + "_USDT",
	}
}

// baseToken strips the trailing quote-currency suffix from a futures
// symbol. Symbols with an unrecognized quote currency yield "".
func baseToken(symbol string) string {
	switch {
	case strings.HasSuffix(symbol, "USDT"):
		return strings.TrimSuffix(symbol, "USDT")
	case strings.HasSuffix(symbol, "USD"):
		return strings.TrimSuffix(symbol, "USD")
	default:
		return ""
	}
}

// SelectMarginOpportunities pairs futures legs with deeply negative
// funding (the holder is paid to stay long) against margin venues where
// the token can be shorted on spot. Per token, two independent
// optimizations are combined: the futures venue with the most negative
// rate, and the margin venue whose spot price deviates least from that
// futures mark. All other qualifying venues are retained as auxiliary
// detail. Output is sorted by funding magnitude descending.
func SelectMarginOpportunities(snap *snapshot.Snapshot, minVolume, negRateThreshold float64) []domain.MarginOpportunity {
	if negRateThreshold == 0 {
		negRateThreshold = DefaultNegRateThreshold
	}

	type futuresLeg struct {
		exchange string
		rate     domain.FundingRecord
		price    float64 // futures mid
	}

	// Gather futures legs below the threshold, keyed by symbol.
	legsBySymbol := make(map[string][]futuresLeg)
	for name, data := range snap.Exchanges {
		for sym, rec := range data.FundingRates {
			if rec.Rate >= negRateThreshold {
				continue
			}
			if baseToken(sym) == "" {
				continue
			}
			book, ok := data.OrderBooks[sym]
			if !ok || book.Bid <= 0 || book.Ask <= 0 {
				continue
			}
			if vol, ok := data.Volumes[sym]; ok && vol < minVolume {
				continue
			}
			legsBySymbol[sym] = append(legsBySymbol[sym], futuresLeg{
				exchange: name,
				rate:     rec,
				price:    (book.Bid + book.Ask) / 2,
			})
		}
	}

	var opps []domain.MarginOpportunity
	for sym, legs := range legsBySymbol {
		base := baseToken(sym)

		// Best futures venue: most negative rate wins.
		sort.Slice(legs, func(i, j int) bool {
			if legs[i].rate.Rate != legs[j].rate.Rate {
				return legs[i].rate.Rate < legs[j].rate.Rate
			}
			return legs[i].exchange < legs[j].exchange
		})
		bestFut := legs[0]

		// Qualifying margin venues: token margin-tradable and a spot
		// price found under one of the suffix conventions.
		var marginLegs []domain.MarginLeg
		for name, data := range snap.Exchanges {
			if _, ok := data.MarginTokens[base]; !ok {
				continue
			}
			var spot float64
			for _, variant := range spotSymbolVariants(base) {
				if p, ok := data.SpotPrices[variant]; ok && p > 0 {
					spot = p
					break
				}
			}
			if spot <= 0 {
				continue
			}
			marginLegs = append(marginLegs, domain.MarginLeg{
				Exchange: name,
				Price:    spot,
				Basis:    (spot - bestFut.price) / bestFut.price * 100,
			})
		}
		if len(marginLegs) == 0 {
			continue
		}

		// Best margin venue: basis closest to flat (lowest hedge risk).
		sort.Slice(marginLegs, func(i, j int) bool {
			ai, aj := math.Abs(marginLegs[i].Basis), math.Abs(marginLegs[j].Basis)
			if ai != aj {
				return ai < aj
			}
			return marginLegs[i].Exchange < marginLegs[j].Exchange
		})
		bestMargin := marginLegs[0]

		allFutures := make([]domain.MarginLeg, 0, len(legs))
		for _, l := range legs {
			allFutures = append(allFutures, domain.MarginLeg{
				Exchange:    l.exchange,
				Price:       l.price,
				Rate:        l.rate.Rate,
				NextFunding: l.rate.NextFunding,
			})
		}

		opps = append(opps, domain.MarginOpportunity{
			Symbol:          sym,
			BaseToken:       base,
			FuturesExchange: bestFut.exchange,
			FundingRate:     bestFut.rate.Rate,
			FuturesPrice:    bestFut.price,
			MarginExchange:  bestMargin.Exchange,
			SpotPrice:       bestMargin.Price,
			PriceSpread:     bestMargin.Basis,
			NextFunding:     bestFut.rate.NextFunding,
			AllFutures:      allFutures,
			AllMargin:       marginLegs,
		})
	}

	// Most negative funding first: that is the largest receivable.
	sort.Slice(opps, func(i, j int) bool {
		if opps[i].FundingRate != opps[j].FundingRate {
			return opps[i].FundingRate < opps[j].FundingRate
		}
		return opps[i].Symbol < opps[j].Symbol
	})
	return opps
}
