// Package history keeps a bounded rolling price history per instrument.
package history

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/juliobfg/finboard/internal/domain"
	"github.com/juliobfg/finboard/internal/market"
)

// DefaultMaxPoints bounds each instrument's rolling window.
const DefaultMaxPoints = 20

// Probability that a synthetic backfill step moves in the direction of the
// upstream variation sign.
const backfillBias = 0.65

// Store maps instrument IDs to their bounded history sequences. Entries are
// created lazily on first append or backfill and live for the process
// lifetime; they are trimmed, never deleted.
//
// The store is owned by the engine and injected into it, so tests can build
// isolated instances instead of sharing process-global state.
type Store struct {
	mu             sync.RWMutex
	cal            market.Calendar
	maxPoints      int
	updateInterval time.Duration
	rnd            *rand.Rand
	series         map[string][]domain.HistoryPoint
}

// NewStore creates a history store. rnd seeds the synthetic backfill walk;
// pass nil for a time-seeded source. The walk is deliberately not
// reproducible across runs unless a seeded source is injected.
func NewStore(cal market.Calendar, maxPoints int, updateInterval time.Duration, rnd *rand.Rand) *Store {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Store{
		cal:            cal,
		maxPoints:      maxPoints,
		updateInterval: updateInterval,
		rnd:            rnd,
		series:         make(map[string][]domain.HistoryPoint),
	}
}

// Append pushes point onto the instrument's sequence and evicts the oldest
// points until the window bound holds.
func (s *Store) Append(id string, point domain.HistoryPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.series[id] = s.trim(append(s.series[id], point))
}

// Backfill seeds a plausible synthetic series for an instrument with no
// history yet: one point per market hour from the most recent open through
// now, produced by a random walk whose per-step move is bounded by
// |variation|/10 percent and biased in the direction of variation's sign.
// It is a no-op when the instrument already has history.
func (s *Store) Backfill(id string, basePrice, variation decimal.Decimal, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.series[id]) > 0 {
		return
	}

	// Per-step cap as a fraction of the running price.
	stepCap, _ := variation.Abs().Div(decimal.NewFromInt(1000)).Float64()

	price := basePrice
	points := make([]domain.HistoryPoint, 0, s.maxPoints)
	for _, ts := range s.cal.BackfillTimestamps(now) {
		points = append(points, domain.HistoryPoint{Timestamp: ts, Price: price})

		dir := 1.0
		if s.rnd.Float64() >= backfillBias {
			dir = -1.0
		}
		if variation.IsNegative() {
			dir = -dir
		}
		next := price.Add(price.Mul(decimal.NewFromFloat(dir * s.rnd.Float64() * stepCap)))
		if next.IsPositive() {
			price = next
		}
	}

	s.series[id] = s.trim(points)
}

// ShouldAppendNow reports whether a fresh live point is due: the instrument
// already has history, the update interval has elapsed since the last point,
// and now is inside market hours.
func (s *Store) ShouldAppendNow(id string, now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.series[id]
	if len(points) == 0 {
		return false
	}
	if !s.cal.IsMarketHour(now) {
		return false
	}
	last := points[len(points)-1].Timestamp
	return now.UnixMilli()-last >= s.updateInterval.Milliseconds()
}

// Has reports whether the instrument has any stored history.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.series[id]) > 0
}

// FilteredView returns a copy of the instrument's history restricted to
// points inside market hours, preserving order. Stored history is not
// mutated.
func (s *Store) FilteredView(id string) []domain.HistoryPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.series[id]
	out := make([]domain.HistoryPoint, 0, len(points))
	for _, p := range points {
		if s.cal.IsWithinMarketHours(p.Timestamp) {
			out = append(out, p)
		}
	}
	return out
}

// trim drops the oldest points until the window bound holds.
func (s *Store) trim(points []domain.HistoryPoint) []domain.HistoryPoint {
	if len(points) <= s.maxPoints {
		return points
	}
	return points[len(points)-s.maxPoints:]
}
