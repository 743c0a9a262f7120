// Package feed implements the real-time data path: per-exchange streaming
// book-ticker connections with reconnect state machines, and the two-sided
// spread calculator they feed. It is independent of the polling path and
// serves sub-second visualization rather than discrete opportunity lists.
package feed

import (
	"sync"
	"time"

	"github.com/arbhub/arbhub/internal/domain"
)

// StaleThreshold is the maximum age of a side's last ticker, by local
// receipt time, before the calculator refuses to produce a reading.
const StaleThreshold = 5 * time.Second

// Calculator holds exactly the latest ticker for side A and side B under a
// single mutex. Writers are the two independent connection goroutines;
// each acquires the lock only to swap its own slot. Readers snapshot both
// slots before computing, so entry and exit spreads always come from a
// mutually consistent pair.
type Calculator struct {
	mu sync.Mutex
	a  *domain.BookTicker
	b  *domain.BookTicker

	now func() time.Time
}

// NewCalculator creates an empty Calculator.
func NewCalculator() *Calculator {
	return &Calculator{now: time.Now}
}

// UpdateA replaces the side-A ticker.
func (c *Calculator) UpdateA(t domain.BookTicker) {
	c.mu.Lock()
	c.a = &t
	c.mu.Unlock()
}

// UpdateB replaces the side-B ticker.
func (c *Calculator) UpdateB(t domain.BookTicker) {
	c.mu.Lock()
	c.b = &t
	c.mu.Unlock()
}

// Calculate returns the current two-sided reading. It reports
// domain.ErrNoData while either side is missing or unpriced and
// domain.ErrStaleData when a side's last ticker is older than
// StaleThreshold. Entry is the spread captured by buying A's ask and
// selling B's bid; Exit is the reverse leg. A stale side never yields a
// numeric reading.
func (c *Calculator) Calculate() (domain.SpreadReading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.a == nil || c.b == nil {
		return domain.SpreadReading{}, domain.ErrNoData
	}

	now := c.now()
	if now.Sub(c.a.LocalTime) > StaleThreshold || now.Sub(c.b.LocalTime) > StaleThreshold {
		return domain.SpreadReading{}, domain.ErrStaleData
	}

	a, b := c.a, c.b
	if a.Ask <= 0 || b.Ask <= 0 {
		return domain.SpreadReading{}, domain.ErrNoData
	}

	return domain.SpreadReading{
		Timestamp:   now,
		EntrySpread: (b.Bid - a.Ask) / a.Ask * 100,
		ExitSpread:  (a.Bid - b.Ask) / b.Ask * 100,
		LatencyA:    a.Latency(),
		LatencyB:    b.Latency(),
	}, nil
}

// Reset drops both sides; Calculate returns no reading until both are
// repopulated.
func (c *Calculator) Reset() {
	c.mu.Lock()
	c.a, c.b = nil, nil
	c.mu.Unlock()
}
