// Package market implements the trading-hours calendar used to gate live
// history updates and to generate synthetic backfill timestamps.
package market

import "time"

// Default trading window, local time.
const (
	DefaultOpenHour  = 10
	DefaultCloseHour = 18
)

// Calendar computes whether instants fall inside the configured daily trading
// window. All methods are pure and use the host's local time representation.
type Calendar struct {
	OpenHour  int
	CloseHour int
}

// NewCalendar returns a calendar for the [openHour, closeHour) window.
// Out-of-range values fall back to the defaults.
func NewCalendar(openHour, closeHour int) Calendar {
	if openHour < 0 || openHour > 23 || closeHour <= openHour || closeHour > 24 {
		openHour = DefaultOpenHour
		closeHour = DefaultCloseHour
	}
	return Calendar{OpenHour: openHour, CloseHour: closeHour}
}

// IsMarketHour reports whether t falls inside the trading window.
func (c Calendar) IsMarketHour(t time.Time) bool {
	h := t.Local().Hour()
	return h >= c.OpenHour && h < c.CloseHour
}

// IsWithinMarketHours reports whether the epoch-millisecond timestamp falls
// inside the trading window.
func (c Calendar) IsWithinMarketHours(ms int64) bool {
	return c.IsMarketHour(time.UnixMilli(ms))
}

// OpenInstant returns the most recent market-open instant at or before now:
// today's open when now's hour has reached OpenHour, otherwise yesterday's.
func (c Calendar) OpenInstant(now time.Time) time.Time {
	now = now.Local()
	open := time.Date(now.Year(), now.Month(), now.Day(), c.OpenHour, 0, 0, 0, now.Location())
	if now.Hour() < c.OpenHour {
		open = open.AddDate(0, 0, -1)
	}
	return open
}

// BackfillTimestamps generates one epoch-millisecond timestamp per hour from
// the most recent market open through min(now, that day's close), inclusive
// of the open instant. The result is deterministic for a fixed now.
func (c Calendar) BackfillTimestamps(now time.Time) []int64 {
	now = now.Local()
	open := c.OpenInstant(now)
	close := time.Date(open.Year(), open.Month(), open.Day(), c.CloseHour, 0, 0, 0, open.Location())

	end := now
	if close.Before(end) {
		end = close
	}

	var out []int64
	for ts := open; !ts.After(end); ts = ts.Add(time.Hour) {
		out = append(out, ts.UnixMilli())
	}
	return out
}
