package arbitrage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arbhub/arbhub/internal/domain"
)

// regrowthFactor is the relative spread growth at which an already-known
// path is re-announced (0.5 = 50% larger than last recorded).
const regrowthFactor = 0.5

// Monitor deduplicates arbitrage paths across scan cycles. A path is
// surfaced the first time its identity is ever seen, and again whenever
// its magnitude has grown materially versus the last recorded value. State
// grows monotonically for the process lifetime; the path universe
// (symbols × venue pairs) is small enough that no eviction is performed,
// and Reset is available for an explicit clear.
type Monitor struct {
	mu          sync.Mutex
	knownPaths  map[string]struct{}
	lastSpreads map[string]float64
}

// NewMonitor creates an empty Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		knownPaths:  make(map[string]struct{}),
		lastSpreads: make(map[string]float64),
	}
}

// DetectNew consumes one cycle's path set and returns the alerts it
// produces. For every path: never seen → emit as new; seen and grown by at
// least 50% relative → emit with the growth delta; otherwise suppress. The
// last-seen magnitude is updated regardless of emission, so a path that
// shrinks re-arms against its lower value. A path that disappears and
// later reappears is not re-announced unless it has grown.
func (m *Monitor) DetectNew(paths []domain.ExchangePath) []domain.PathAlert {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	var alerts []domain.PathAlert
	for _, p := range paths {
		id := p.ID()
		last, seen := m.lastSpreads[id]
		if _, known := m.knownPaths[id]; !known {
			m.knownPaths[id] = struct{}{}
			alerts = append(alerts, domain.PathAlert{
				AlertID:    uuid.NewString(),
				Path:       p,
				New:        true,
				DetectedAt: now,
			})
		} else if seen && last != 0 {
			growth := (p.SpreadPct - last) / last
			if growth >= regrowthFactor {
				alerts = append(alerts, domain.PathAlert{
					AlertID:        uuid.NewString(),
					Path:           p,
					SpreadIncrease: growth,
					DetectedAt:     now,
				})
			}
		}
		m.lastSpreads[id] = p.SpreadPct
	}
	return alerts
}

// Size returns how many distinct path identities have ever been observed.
func (m *Monitor) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.knownPaths)
}

// Reset clears all monitor state; every path becomes new again.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.knownPaths = make(map[string]struct{})
	m.lastSpreads = make(map[string]float64)
}
