package domain

import (
	"fmt"
	"time"
)

// ExchangePath is one directional arbitrage candidate for one symbol: buy
// at BuyExchange's ask, sell at SellExchange's bid. A→B and B→A are
// distinct entries; bid/ask asymmetry makes them non-reciprocal.
type ExchangePath struct {
	Symbol       string     `json:"symbol"`
	BuyExchange  string     `json:"buy_exchange"`
	BuyMarket    MarketKind `json:"buy_market"`
	SellExchange string     `json:"sell_exchange"`
	SellMarket   MarketKind `json:"sell_market"`
	BuyAsk       float64    `json:"buy_ask"`
	SellBid      float64    `json:"sell_bid"`
	BuyVolume    float64    `json:"buy_volume"`
	SellVolume   float64    `json:"sell_volume"`
	SpreadPct    float64    `json:"spread_percentage"`
}

// ID is the dedup key used by the spread monitor: symbol plus both legs
// including their market kinds. Stable across cycles for the same route.
func (p ExchangePath) ID() string {
	return fmt.Sprintf("%s|%s:%s|%s:%s",
		p.Symbol, p.BuyExchange, p.BuyMarket, p.SellExchange, p.SellMarket)
}

// PathAlert is an ExchangePath surfaced by the spread monitor, either on
// first sighting or after material spread growth.
type PathAlert struct {
	AlertID string       `json:"alert_id"`
	Path    ExchangePath `json:"path"`
	// New is true the first time a path id is ever observed.
	New bool `json:"new"`
	// SpreadIncrease is the relative growth versus the last recorded
	// magnitude (0.6 = 60% larger). Zero for first sightings.
	SpreadIncrease float64   `json:"spread_increase,omitempty"`
	DetectedAt     time.Time `json:"detected_at"`
}

// FundingOpportunity is the single best funding-rate pairing for one
// symbol: short the leg with the higher (receivable) rate, long the leg
// with the lower (payable) one.
type FundingOpportunity struct {
	Symbol        string    `json:"symbol"`
	ShortExchange string    `json:"short_exchange"`
	ShortRate     float64   `json:"short_rate"`
	LongExchange  string    `json:"long_exchange"`
	LongRate      float64   `json:"long_rate"`
	Profit        float64   `json:"profit"` // ShortRate - LongRate, fraction
	PriceSpread   float64   `json:"price_spread"`
	NextFunding   time.Time `json:"next_funding"` // short leg's funding time
}

// MarginLeg is one venue's contribution to a margin opportunity, retained
// as auxiliary detail for all qualifying venues of a token.
type MarginLeg struct {
	Exchange    string    `json:"exchange"`
	Price       float64   `json:"price"`
	Rate        float64   `json:"rate,omitempty"`
	Basis       float64   `json:"basis,omitempty"`
	NextFunding time.Time `json:"next_funding,omitzero"`
}

// MarginOpportunity pairs a deeply negative funding futures leg with the
// margin/spot venue whose price sits closest to the futures mark.
type MarginOpportunity struct {
	Symbol          string      `json:"symbol"`
	BaseToken       string      `json:"base_token"`
	FuturesExchange string      `json:"futures_exchange"`
	FundingRate     float64     `json:"funding_rate"`
	FuturesPrice    float64     `json:"futures_price"`
	MarginExchange  string      `json:"margin_exchange"`
	SpotPrice       float64     `json:"spot_price"`
	PriceSpread     float64     `json:"price_spread"` // (spot-futures)/futures*100
	NextFunding     time.Time   `json:"next_funding"`
	AllFutures      []MarginLeg `json:"all_futures_exchanges"`
	AllMargin       []MarginLeg `json:"all_margin_exchanges"`
}
