package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/arbhub/arbhub/internal/domain"
	"github.com/arbhub/arbhub/internal/exchange"
	"github.com/arbhub/arbhub/internal/snapshot"
)

// fakeAdapter serves canned data, or fails every call when broken.
type fakeAdapter struct {
	name   string
	broken bool
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) FetchOrderBooks(ctx context.Context) (map[string]domain.Quote, error) {
	if f.broken {
		return nil, errors.New("venue unreachable")
	}
	return map[string]domain.Quote{"BTCUSDT": {Bid: 100, Ask: 101}}, nil
}

func (f *fakeAdapter) FetchFundingRates(ctx context.Context) (map[string]domain.FundingRecord, error) {
	if f.broken {
		return nil, errors.New("venue unreachable")
	}
	return map[string]domain.FundingRecord{"BTCUSDT": {Symbol: "BTCUSDT", Rate: 0.0001}}, nil
}

func (f *fakeAdapter) FetchVolumes(ctx context.Context) (map[string]float64, error) {
	if f.broken {
		return nil, errors.New("venue unreachable")
	}
	return map[string]float64{"BTCUSDT": 50000}, nil
}

func (f *fakeAdapter) FetchMarginTokens(ctx context.Context) (map[string]domain.MarginTokenInfo, error) {
	if f.broken {
		return nil, errors.New("venue unreachable")
	}
	return map[string]domain.MarginTokenInfo{"BTC": {Token: "BTC", Borrowable: true}}, nil
}

func (f *fakeAdapter) FetchSpotPrices(ctx context.Context) (map[string]float64, error) {
	if f.broken {
		return nil, errors.New("venue unreachable")
	}
	return map[string]float64{"BTCUSDT": 100.5}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefresh_PartialFailureCompletes(t *testing.T) {
	adapters := make([]exchange.Adapter, 0, 10)
	for i := 0; i < 10; i++ {
		adapters = append(adapters, &fakeAdapter{
			name:   fmt.Sprintf("ex%02d", i),
			broken: i < 3,
		})
	}

	store := snapshot.NewStore()
	o := NewOrchestrator(adapters, store, discardLogger())

	snap := o.Refresh(context.Background(), domain.ModeFuturesFutures)
	if len(snap.Exchanges) != 10 {
		t.Fatalf("exchanges=%d want=10 (every venue gets a slot)", len(snap.Exchanges))
	}

	var full, empty int
	for name, data := range snap.Exchanges {
		switch data.Classify(true) {
		case snapshot.StatusOK:
			full++
		case snapshot.StatusFailed:
			empty++
		default:
			t.Fatalf("%s: unexpected partial status", name)
		}
	}
	if full != 7 || empty != 3 {
		t.Fatalf("full=%d empty=%d want 7/3", full, empty)
	}

	if store.Latest() != snap {
		t.Fatal("refresh must publish the new generation to the store")
	}
}

func TestRefresh_ModeGatesDataKinds(t *testing.T) {
	a := &fakeAdapter{name: "exA"}
	store := snapshot.NewStore()
	o := NewOrchestrator([]exchange.Adapter{a}, store, discardLogger())

	snap := o.Refresh(context.Background(), domain.ModePriceOnly)
	d := snap.Exchange("exA")
	if len(d.FundingRates) != 0 {
		t.Fatal("price-only cycles must not fetch funding rates")
	}
	if len(d.MarginTokens) != 0 || len(d.SpotPrices) != 0 {
		t.Fatal("price-only cycles must not fetch margin data")
	}
	if len(d.OrderBooks) == 0 || len(d.Volumes) == 0 {
		t.Fatal("order books and volumes are fetched in every mode")
	}

	snap = o.Refresh(context.Background(), domain.ModeMarginFutures)
	d = snap.Exchange("exA")
	if len(d.FundingRates) == 0 || len(d.MarginTokens) == 0 || len(d.SpotPrices) == 0 {
		t.Fatal("margin modes must fetch funding, margin tokens, and spot prices")
	}
}

func TestRefresh_GenerationsAreIndependent(t *testing.T) {
	a := &fakeAdapter{name: "exA"}
	store := snapshot.NewStore()
	o := NewOrchestrator([]exchange.Adapter{a}, store, discardLogger())

	first := o.Refresh(context.Background(), domain.ModeFuturesFutures)

	a.broken = true
	second := o.Refresh(context.Background(), domain.ModeFuturesFutures)

	// The failed cycle publishes empty slots without mutating the old
	// generation.
	if len(first.Exchange("exA").OrderBooks) == 0 {
		t.Fatal("previous generation must remain intact")
	}
	if len(second.Exchange("exA").OrderBooks) != 0 {
		t.Fatal("failed fetches must leave the new generation's slot empty")
	}
	if store.Latest() != second {
		t.Fatal("store must point at the newest generation")
	}
}
