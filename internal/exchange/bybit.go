package exchange

import (
	"context"
	"net/http"
	"strconv"

	"github.com/arbhub/arbhub/internal/domain"
)

const bybitHost = "https://api.bybit.com"

// Bybit adapter using the v5 unified market endpoints. The linear tickers
// payload carries books, funding, and turnover in one shape; each fetch
// method extracts only its own data kind so the calls stay independently
// fallible.
type Bybit struct {
	host       string
	httpClient *http.Client
}

// NewBybit creates a Bybit adapter against the public production host.
func NewBybit() *Bybit {
	return &Bybit{host: bybitHost, httpClient: newHTTPClient()}
}

func (b *Bybit) Name() string { return "Bybit" }

type bybitTicker struct {
	Symbol          string `json:"symbol"`
	Bid1Price       string `json:"bid1Price"`
	Ask1Price       string `json:"ask1Price"`
	FundingRate     string `json:"fundingRate"`
	NextFundingTime string `json:"nextFundingTime"`
	Turnover24h     string `json:"turnover24h"`
	LastPrice       string `json:"lastPrice"`
}

func (b *Bybit) fetchTickers(ctx context.Context, category string) ([]bybitTicker, error) {
	var raw struct {
		Result struct {
			List []bybitTicker `json:"list"`
		} `json:"result"`
	}
	url := b.host + "/v5/market/tickers?category=" + category
	if err := getJSON(ctx, b.httpClient, url, &raw); err != nil {
		return nil, err
	}
	return raw.Result.List, nil
}

// FetchOrderBooks returns best bid/ask for every linear perpetual.
func (b *Bybit) FetchOrderBooks(ctx context.Context) (map[string]domain.Quote, error) {
	list, err := b.fetchTickers(ctx, "linear")
	if err != nil {
		return nil, err
	}

	books := make(map[string]domain.Quote, len(list))
	for _, t := range list {
		bid, ask := parseFloat(t.Bid1Price), parseFloat(t.Ask1Price)
		if bid <= 0 || ask <= 0 {
			continue
		}
		books[t.Symbol] = domain.Quote{Bid: bid, Ask: ask}
	}
	return books, nil
}

// FetchFundingRates returns funding rate and next funding time per linear
// perpetual.
func (b *Bybit) FetchFundingRates(ctx context.Context) (map[string]domain.FundingRecord, error) {
	list, err := b.fetchTickers(ctx, "linear")
	if err != nil {
		return nil, err
	}

	rates := make(map[string]domain.FundingRecord, len(list))
	for _, t := range list {
		if t.FundingRate == "" {
			continue
		}
		ms, err := strconv.ParseInt(t.NextFundingTime, 10, 64)
		if err != nil {
			continue
		}
		rates[t.Symbol] = domain.FundingRecord{
			Symbol:      t.Symbol,
			Rate:        parseFloat(t.FundingRate),
			NextFunding: msToTime(ms),
		}
	}
	return rates, nil
}

// FetchVolumes returns 24h turnover per linear perpetual.
func (b *Bybit) FetchVolumes(ctx context.Context) (map[string]float64, error) {
	list, err := b.fetchTickers(ctx, "linear")
	if err != nil {
		return nil, err
	}

	vols := make(map[string]float64, len(list))
	for _, t := range list {
		if v := parseFloat(t.Turnover24h); v > 0 {
			vols[t.Symbol] = v
		}
	}
	return vols, nil
}

// FetchMarginTokens lists spot base coins with margin trading enabled.
func (b *Bybit) FetchMarginTokens(ctx context.Context) (map[string]domain.MarginTokenInfo, error) {
	var raw struct {
		Result struct {
			List []struct {
				BaseCoin      string `json:"baseCoin"`
				QuoteCoin     string `json:"quoteCoin"`
				MarginTrading string `json:"marginTrading"`
			} `json:"list"`
		} `json:"result"`
	}
	url := b.host + "/v5/market/instruments-info?category=spot"
	if err := getJSON(ctx, b.httpClient, url, &raw); err != nil {
		return nil, err
	}

	tokens := make(map[string]domain.MarginTokenInfo)
	for _, s := range raw.Result.List {
		if s.MarginTrading == "" || s.MarginTrading == "none" || s.QuoteCoin != "USDT" {
			continue
		}
		tokens[s.BaseCoin] = domain.MarginTokenInfo{Token: s.BaseCoin, Borrowable: true}
	}
	return tokens, nil
}

// FetchSpotPrices returns the last traded spot price per symbol.
func (b *Bybit) FetchSpotPrices(ctx context.Context) (map[string]float64, error) {
	list, err := b.fetchTickers(ctx, "spot")
	if err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(list))
	for _, t := range list {
		if p := parseFloat(t.LastPrice); p > 0 {
			prices[t.Symbol] = p
		}
	}
	return prices, nil
}
