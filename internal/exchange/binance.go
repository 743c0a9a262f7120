package exchange

import (
	"context"
	"net/http"

	"github.com/arbhub/arbhub/internal/domain"
)

const (
	binanceFuturesHost = "https://fapi.binance.com"
	binanceSpotHost    = "https://api.binance.com"
)

// Binance adapter covering USDT-margined perpetuals plus spot/margin data.
type Binance struct {
	futuresHost string
	spotHost    string
	httpClient  *http.Client
}

// NewBinance creates a Binance adapter against the public production hosts.
func NewBinance() *Binance {
	return &Binance{
		futuresHost: binanceFuturesHost,
		spotHost:    binanceSpotHost,
		httpClient:  newHTTPClient(),
	}
}

func (b *Binance) Name() string { return "Binance" }

// FetchOrderBooks returns best bid/ask for every perpetual contract.
func (b *Binance) FetchOrderBooks(ctx context.Context) (map[string]domain.Quote, error) {
	var raw []struct {
		Symbol   string `json:"symbol"`
		BidPrice string `json:"bidPrice"`
		AskPrice string `json:"askPrice"`
	}
	if err := getJSON(ctx, b.httpClient, b.futuresHost+"/fapi/v1/ticker/bookTicker", &raw); err != nil {
		return nil, err
	}

	books := make(map[string]domain.Quote, len(raw))
	for _, r := range raw {
		bid, ask := parseFloat(r.BidPrice), parseFloat(r.AskPrice)
		if bid <= 0 || ask <= 0 {
			continue
		}
		books[r.Symbol] = domain.Quote{Bid: bid, Ask: ask}
	}
	return books, nil
}

// FetchFundingRates returns the last funding rate and next funding time per
// contract from the premium index endpoint.
func (b *Binance) FetchFundingRates(ctx context.Context) (map[string]domain.FundingRecord, error) {
	var raw []struct {
		Symbol          string `json:"symbol"`
		LastFundingRate string `json:"lastFundingRate"`
		NextFundingTime int64  `json:"nextFundingTime"`
	}
	if err := getJSON(ctx, b.httpClient, b.futuresHost+"/fapi/v1/premiumIndex", &raw); err != nil {
		return nil, err
	}

	rates := make(map[string]domain.FundingRecord, len(raw))
	for _, r := range raw {
		if r.LastFundingRate == "" {
			continue
		}
		rates[r.Symbol] = domain.FundingRecord{
			Symbol:      r.Symbol,
			Rate:        parseFloat(r.LastFundingRate),
			NextFunding: msToTime(r.NextFundingTime),
		}
	}
	return rates, nil
}

// FetchVolumes returns 24h quote-currency turnover per contract.
func (b *Binance) FetchVolumes(ctx context.Context) (map[string]float64, error) {
	var raw []struct {
		Symbol      string `json:"symbol"`
		QuoteVolume string `json:"quoteVolume"`
	}
	if err := getJSON(ctx, b.httpClient, b.futuresHost+"/fapi/v1/ticker/24hr", &raw); err != nil {
		return nil, err
	}

	vols := make(map[string]float64, len(raw))
	for _, r := range raw {
		if v := parseFloat(r.QuoteVolume); v > 0 {
			vols[r.Symbol] = v
		}
	}
	return vols, nil
}

// FetchMarginTokens lists base assets flagged margin-tradable in the spot
// exchange info.
func (b *Binance) FetchMarginTokens(ctx context.Context) (map[string]domain.MarginTokenInfo, error) {
	var raw struct {
		Symbols []struct {
			BaseAsset              string `json:"baseAsset"`
			QuoteAsset             string `json:"quoteAsset"`
			IsMarginTradingAllowed bool   `json:"isMarginTradingAllowed"`
		} `json:"symbols"`
	}
	if err := getJSON(ctx, b.httpClient, b.spotHost+"/api/v3/exchangeInfo", &raw); err != nil {
		return nil, err
	}

	tokens := make(map[string]domain.MarginTokenInfo)
	for _, s := range raw.Symbols {
		if !s.IsMarginTradingAllowed || s.QuoteAsset != "USDT" {
			continue
		}
		tokens[s.BaseAsset] = domain.MarginTokenInfo{Token: s.BaseAsset, Borrowable: true}
	}
	return tokens, nil
}

// FetchSpotPrices returns the last traded spot price per symbol.
func (b *Binance) FetchSpotPrices(ctx context.Context) (map[string]float64, error) {
	var raw []struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := getJSON(ctx, b.httpClient, b.spotHost+"/api/v3/ticker/price", &raw); err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(raw))
	for _, r := range raw {
		if p := parseFloat(r.Price); p > 0 {
			prices[r.Symbol] = p
		}
	}
	return prices, nil
}
