package arbitrage

import (
	"math"
	"testing"
	"time"

	"github.com/arbhub/arbhub/internal/domain"
	"github.com/arbhub/arbhub/internal/snapshot"
)

func addMargin(s *snapshot.Snapshot, exchange, token, spotSymbol string, price float64) {
	d, ok := s.Exchanges[exchange]
	if !ok {
		d = snapshot.NewExchangeData()
		s.Exchanges[exchange] = d
	}
	d.MarginTokens[token] = domain.MarginTokenInfo{Token: token, Borrowable: true}
	if spotSymbol != "" {
		d.SpotPrices[spotSymbol] = price
	}
}

func TestSelectMarginOpportunities_BestLegs(t *testing.T) {
	next := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)
	snap := newSnap()

	// Two futures venues under the threshold; exB is more negative.
	addQuote(snap, "exA", "ABCUSDT", 99, 101, 50000)
	addFunding(snap, "exA", "ABCUSDT", -0.006, time.Time{})
	addQuote(snap, "exB", "ABCUSDT", 100, 102, 50000)
	d := snap.Exchanges["exB"]
	d.FundingRates["ABCUSDT"] = domain.FundingRecord{Symbol: "ABCUSDT", Rate: -0.009, NextFunding: next}

	// Two margin venues; exD's spot sits closer to exB's futures mid (101).
	addMargin(snap, "exC", "ABC", "ABCUSDT", 110)
	addMargin(snap, "exD", "ABC", "ABC-USDT", 101.5)

	opps := SelectMarginOpportunities(snap, 10000, -0.005)
	if len(opps) != 1 {
		t.Fatalf("opportunities=%d want=1", len(opps))
	}
	o := opps[0]
	if o.FuturesExchange != "exB" || o.FundingRate != -0.009 {
		t.Fatalf("futures leg=%s@%f want exB@-0.009 (most negative rate)", o.FuturesExchange, o.FundingRate)
	}
	if o.MarginExchange != "exD" {
		t.Fatalf("margin leg=%s want exD (smallest basis)", o.MarginExchange)
	}
	if o.BaseToken != "ABC" {
		t.Fatalf("base=%s want ABC", o.BaseToken)
	}
	wantBasis := (101.5 - 101.0) / 101.0 * 100
	if math.Abs(o.PriceSpread-wantBasis) > 1e-9 {
		t.Fatalf("basis=%f want=%f", o.PriceSpread, wantBasis)
	}
	if !o.NextFunding.Equal(next) {
		t.Fatalf("next_funding=%v want=%v", o.NextFunding, next)
	}
	if len(o.AllFutures) != 2 || len(o.AllMargin) != 2 {
		t.Fatalf("aux detail futures=%d margin=%d want 2/2", len(o.AllFutures), len(o.AllMargin))
	}
}

func TestSelectMarginOpportunities_ThresholdStrict(t *testing.T) {
	snap := newSnap()
	addQuote(snap, "exA", "ABCUSDT", 99, 101, 50000)
	addFunding(snap, "exA", "ABCUSDT", -0.005, time.Time{})
	addMargin(snap, "exC", "ABC", "ABCUSDT", 100)

	// Rate exactly at the threshold does not qualify.
	if opps := SelectMarginOpportunities(snap, 0, -0.005); len(opps) != 0 {
		t.Fatalf("opportunities=%d want=0", len(opps))
	}
}

func TestSelectMarginOpportunities_NoMarginVenue(t *testing.T) {
	snap := newSnap()
	addQuote(snap, "exA", "ABCUSDT", 99, 101, 50000)
	addFunding(snap, "exA", "ABCUSDT", -0.01, time.Time{})

	if opps := SelectMarginOpportunities(snap, 0, -0.005); len(opps) != 0 {
		t.Fatalf("opportunities=%d want=0 (no venue can short the token)", len(opps))
	}
}

func TestSelectMarginOpportunities_SpotVariants(t *testing.T) {
	for _, spotSym := range []string{"XYZUSDT", "XYZUSD", "XYZ-USDT", "XYZ_USDT"} {
		snap := newSnap()
		addQuote(snap, "exA", "XYZUSDT", 99, 101, 50000)
		addFunding(snap, "exA", "XYZUSDT", -0.01, time.Time{})
		addMargin(snap, "exC", "XYZ", spotSym, 100)

		opps := SelectMarginOpportunities(snap, 0, -0.005)
		if len(opps) != 1 {
			t.Fatalf("variant %s: opportunities=%d want=1", spotSym, len(opps))
		}
	}
}

func TestBaseToken(t *testing.T) {
	cases := []struct{ in, want string }{
		{"BTCUSDT", "BTC"},
		{"ETHUSD", "ETH"},
		{"BTCEUR", ""},
	}
	for _, c := range cases {
		if got := baseToken(c.in); got != c.want {
			t.Fatalf("baseToken(%s)=%q want=%q", c.in, got, c.want)
		}
	}
}
