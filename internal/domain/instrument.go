// Package domain defines core data structures shared by the finance engine,
// the quote fetcher and the web layer.
package domain

import "github.com/shopspring/decimal"

// Instrument categories as they appear in instrument IDs.
const (
	CategoryCurrency = "currency"
	CategoryStock    = "stock"
)

// HistoryPoint is a single observed or synthesized price sample.
type HistoryPoint struct {
	// Timestamp is epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
	// Price is the quote at Timestamp.
	Price decimal.Decimal `json:"price"`
}

// Instrument is a quoted entity tracked by the dashboard: a currency pair or
// a stock index.
type Instrument struct {
	// ID is stable and derived from category and symbol, e.g. "currency-USD".
	ID string `json:"id"`
	// Name is the upstream display name.
	Name string `json:"name"`
	// Symbol is the short upstream code, e.g. "USD" or "IBOVESPA".
	Symbol string `json:"symbol,omitempty"`
	// Price is the current quote.
	Price decimal.Decimal `json:"price"`
	// Variation is the signed percent change reported by the upstream source.
	// It is not derived from History.
	Variation decimal.Decimal `json:"variation"`
	// History is ordered ascending by timestamp and already filtered to
	// market hours.
	History []HistoryPoint `json:"history"`
}

// Clone returns a deep copy so published snapshots stay immutable.
func (i Instrument) Clone() Instrument {
	out := i
	out.History = make([]HistoryPoint, len(i.History))
	copy(out.History, i.History)
	return out
}
