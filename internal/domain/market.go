// Package domain defines the core data model shared by the fetch
// orchestrator, the arbitrage selectors, and the real-time tick pipeline.
// Values here are plain data: they carry no behavior beyond derived
// accessors and are safe to copy.
package domain

import (
	"math"
	"time"
)

// MarketKind distinguishes the venue type a quote was taken from.
type MarketKind string

const (
	MarketFutures MarketKind = "futures"
	MarketMargin  MarketKind = "margin"
)

// Mode selects which data kinds a scan cycle requires and which selectors
// run on the resulting snapshot.
type Mode string

const (
	ModeFuturesFutures Mode = "futures-futures"
	ModeMarginFutures  Mode = "margin-futures"
	ModeFuturesMargin  Mode = "futures-margin"
	ModePriceOnly      Mode = "price-only"
)

// NeedsFunding reports whether the mode requires funding-rate data.
// Price-only scans skip funding calls entirely to minimize cycle latency.
func (m Mode) NeedsFunding() bool { return m != ModePriceOnly }

// NeedsMargin reports whether the mode requires margin tokens and spot
// prices in addition to the futures data kinds.
func (m Mode) NeedsMargin() bool {
	return m == ModeMarginFutures || m == ModeFuturesMargin
}

// UnknownVolume marks a venue that quotes a symbol but does not report 24h
// volume. It passes any volume floor.
var UnknownVolume = math.Inf(1)

// Quote is one venue's best bid and ask for one symbol.
type Quote struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}

// ExchangeQuote is one venue's full per-symbol state inside a symbol graph:
// best bid/ask, 24h quote-currency volume, and the market kind. Captured
// once per fetch cycle and superseded wholesale on the next.
type ExchangeQuote struct {
	Exchange string     `json:"exchange"`
	Symbol   string     `json:"symbol"`
	Bid      float64    `json:"bid"`
	Ask      float64    `json:"ask"`
	Volume   float64    `json:"volume"`
	Market   MarketKind `json:"market"`
}

// FundingRecord is one exchange's funding state for one symbol. Rate is a
// signed fraction (-0.006 = -0.6%); negative rates pay the long side.
// Overwritten wholesale each cycle.
type FundingRecord struct {
	Symbol        string    `json:"symbol"`
	Rate          float64   `json:"rate"`
	NextFunding   time.Time `json:"next_funding"`
	PredictedRate *float64  `json:"predicted_rate,omitempty"`
}

// MarginTokenInfo describes a margin-tradable base token on one venue.
type MarginTokenInfo struct {
	Token       string  `json:"token"`
	Borrowable  bool    `json:"borrowable"`
	MaxLeverage float64 `json:"max_leverage,omitempty"`
}
