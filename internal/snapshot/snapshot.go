// Package snapshot holds the per-cycle view of all exchange data. A
// Snapshot is built once by the fetch orchestrator, published atomically
// into the Store, and read-only from then on: downstream consumers always
// see either the previous complete generation or the new one, never a
// stale-plus-fresh hybrid.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/arbhub/arbhub/internal/domain"
)

// ExchangeData is everything fetched from one venue in one cycle. A failed
// or skipped call leaves the corresponding map empty; other slots for the
// same exchange are unaffected.
type ExchangeData struct {
	FundingRates map[string]domain.FundingRecord
	OrderBooks   map[string]domain.Quote
	Volumes      map[string]float64
	MarginTokens map[string]domain.MarginTokenInfo
	SpotPrices   map[string]float64
}

// NewExchangeData returns an ExchangeData with all slots initialized empty.
func NewExchangeData() *ExchangeData {
	return &ExchangeData{
		FundingRates: make(map[string]domain.FundingRecord),
		OrderBooks:   make(map[string]domain.Quote),
		Volumes:      make(map[string]float64),
		MarginTokens: make(map[string]domain.MarginTokenInfo),
		SpotPrices:   make(map[string]float64),
	}
}

// Status classifies an exchange's cycle outcome for observability.
type Status string

const (
	StatusOK      Status = "ok"      // order books and, where required, funding present
	StatusPartial Status = "partial" // some slots populated, some empty
	StatusFailed  Status = "failed"  // every fetched slot came back empty
)

// Classify inspects which slots hold data. needFunding mirrors the cycle's
// mode: price-only cycles do not count missing funding against a venue.
func (d *ExchangeData) Classify(needFunding bool) Status {
	hasBooks := len(d.OrderBooks) > 0
	hasFunding := len(d.FundingRates) > 0
	switch {
	case hasBooks && (hasFunding || !needFunding):
		return StatusOK
	case hasBooks || hasFunding || len(d.Volumes) > 0 || len(d.SpotPrices) > 0 || len(d.MarginTokens) > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// Snapshot is one complete fetch generation across all exchanges.
type Snapshot struct {
	Mode      domain.Mode
	Exchanges map[string]*ExchangeData
	TakenAt   time.Time
}

// Exchange returns the data for one venue, or an empty ExchangeData when
// the venue is absent, so callers never nil-check per slot.
func (s *Snapshot) Exchange(name string) *ExchangeData {
	if d, ok := s.Exchanges[name]; ok {
		return d
	}
	return NewExchangeData()
}

// Quote assembles the full ExchangeQuote for one (exchange, symbol) pair,
// merging order book and volume slots. The second return is false when the
// venue does not quote the symbol. Missing volume maps to UnknownVolume.
func (s *Snapshot) Quote(exchange, symbol string, market domain.MarketKind) (domain.ExchangeQuote, bool) {
	d, ok := s.Exchanges[exchange]
	if !ok {
		return domain.ExchangeQuote{}, false
	}
	q, ok := d.OrderBooks[symbol]
	if !ok {
		return domain.ExchangeQuote{}, false
	}
	vol, ok := d.Volumes[symbol]
	if !ok {
		vol = domain.UnknownVolume
	}
	return domain.ExchangeQuote{
		Exchange: exchange,
		Symbol:   symbol,
		Bid:      q.Bid,
		Ask:      q.Ask,
		Volume:   vol,
		Market:   market,
	}, true
}

// Store publishes snapshot generations with a copy-on-write pointer swap.
// Writers (the orchestrator) replace the whole generation; readers
// dereference once and work against an immutable value.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a Store primed with an empty generation so readers
// before the first cycle see empty data rather than nil.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{
		Exchanges: map[string]*ExchangeData{},
		TakenAt:   time.Time{},
	})
	return s
}

// Swap publishes a new generation, fully replacing the previous one.
func (s *Store) Swap(snap *Snapshot) { s.current.Store(snap) }

// Latest returns the most recently published generation.
func (s *Store) Latest() *Snapshot { return s.current.Load() }
