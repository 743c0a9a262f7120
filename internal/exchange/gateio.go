package exchange

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/arbhub/arbhub/internal/domain"
)

const gateioHost = "https://api.gateio.ws"

// Gateio adapter for USDT-settled perpetuals and spot/margin markets.
// Gate.io contract names carry an underscore ("BTC_USDT"); they are
// normalized to the common "BTCUSDT" shape so symbols line up across
// venues.
type Gateio struct {
	host       string
	httpClient *http.Client
}

// NewGateio creates a Gate.io adapter against the public production host.
func NewGateio() *Gateio {
	return &Gateio{host: gateioHost, httpClient: newHTTPClient()}
}

func (g *Gateio) Name() string { return "Gate.io" }

func normalizeGateSymbol(s string) string {
	return strings.ReplaceAll(s, "_", "")
}

// FetchOrderBooks returns best bid/ask for every USDT perpetual.
func (g *Gateio) FetchOrderBooks(ctx context.Context) (map[string]domain.Quote, error) {
	var raw []struct {
		Contract   string `json:"contract"`
		HighestBid string `json:"highest_bid"`
		LowestAsk  string `json:"lowest_ask"`
	}
	if err := getJSON(ctx, g.httpClient, g.host+"/api/v4/futures/usdt/tickers", &raw); err != nil {
		return nil, err
	}

	books := make(map[string]domain.Quote, len(raw))
	for _, r := range raw {
		bid, ask := parseFloat(r.HighestBid), parseFloat(r.LowestAsk)
		if bid <= 0 || ask <= 0 {
			continue
		}
		books[normalizeGateSymbol(r.Contract)] = domain.Quote{Bid: bid, Ask: ask}
	}
	return books, nil
}

// FetchFundingRates reads the contract list, which carries both the current
// funding rate and the next application time.
func (g *Gateio) FetchFundingRates(ctx context.Context) (map[string]domain.FundingRecord, error) {
	var raw []struct {
		Name             string `json:"name"`
		FundingRate      string `json:"funding_rate"`
		FundingNextApply int64  `json:"funding_next_apply"` // unix seconds
	}
	if err := getJSON(ctx, g.httpClient, g.host+"/api/v4/futures/usdt/contracts", &raw); err != nil {
		return nil, err
	}

	rates := make(map[string]domain.FundingRecord, len(raw))
	for _, r := range raw {
		if r.FundingRate == "" {
			continue
		}
		sym := normalizeGateSymbol(r.Name)
		rates[sym] = domain.FundingRecord{
			Symbol:      sym,
			Rate:        parseFloat(r.FundingRate),
			NextFunding: time.Unix(r.FundingNextApply, 0).UTC(),
		}
	}
	return rates, nil
}

// FetchVolumes returns 24h settle-currency volume per USDT perpetual.
func (g *Gateio) FetchVolumes(ctx context.Context) (map[string]float64, error) {
	var raw []struct {
		Contract        string `json:"contract"`
		Volume24hSettle string `json:"volume_24h_settle"`
	}
	if err := getJSON(ctx, g.httpClient, g.host+"/api/v4/futures/usdt/tickers", &raw); err != nil {
		return nil, err
	}

	vols := make(map[string]float64, len(raw))
	for _, r := range raw {
		if v := parseFloat(r.Volume24hSettle); v > 0 {
			vols[normalizeGateSymbol(r.Contract)] = v
		}
	}
	return vols, nil
}

// FetchMarginTokens lists base currencies of the margin currency pairs.
func (g *Gateio) FetchMarginTokens(ctx context.Context) (map[string]domain.MarginTokenInfo, error) {
	var raw []struct {
		Base  string `json:"base"`
		Quote string `json:"quote"`
	}
	if err := getJSON(ctx, g.httpClient, g.host+"/api/v4/margin/currency_pairs", &raw); err != nil {
		return nil, err
	}

	tokens := make(map[string]domain.MarginTokenInfo)
	for _, r := range raw {
		if r.Quote != "USDT" {
			continue
		}
		tokens[r.Base] = domain.MarginTokenInfo{Token: r.Base, Borrowable: true}
	}
	return tokens, nil
}

// FetchSpotPrices returns the last traded spot price per pair.
func (g *Gateio) FetchSpotPrices(ctx context.Context) (map[string]float64, error) {
	var raw []struct {
		CurrencyPair string `json:"currency_pair"`
		Last         string `json:"last"`
	}
	if err := getJSON(ctx, g.httpClient, g.host+"/api/v4/spot/tickers", &raw); err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(raw))
	for _, r := range raw {
		if p := parseFloat(r.Last); p > 0 {
			prices[normalizeGateSymbol(r.CurrencyPair)] = p
		}
	}
	return prices, nil
}
