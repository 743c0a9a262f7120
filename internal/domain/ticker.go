package domain

import "time"

// BookTicker is one best bid/offer tick from a streaming connection.
// ExchangeTime is the venue's own timestamp; LocalTime is when the frame
// was decoded locally. Only the most recent ticker per side is retained by
// the spread calculator.
type BookTicker struct {
	Exchange     string     `json:"exchange"`
	Symbol       string     `json:"symbol"`
	Market       MarketKind `json:"market"`
	Bid          float64    `json:"bid"`
	BidQty       float64    `json:"bid_qty"`
	Ask          float64    `json:"ask"`
	AskQty       float64    `json:"ask_qty"`
	ExchangeTime time.Time  `json:"exchange_time"`
	LocalTime    time.Time  `json:"local_time"`
}

// Latency is the exchange-to-local delivery delay for this tick.
func (t BookTicker) Latency() time.Duration {
	return t.LocalTime.Sub(t.ExchangeTime)
}

// SpreadReading is one two-sided live spread computation. Entry is the
// value of simultaneously buying side A and selling side B; Exit is the
// reverse.
type SpreadReading struct {
	Timestamp   time.Time     `json:"timestamp"`
	EntrySpread float64       `json:"entry_spread"`
	ExitSpread  float64       `json:"exit_spread"`
	LatencyA    time.Duration `json:"latency_a"`
	LatencyB    time.Duration `json:"latency_b"`
}
