// Package engine orchestrates quote fetching, history maintenance and
// snapshot publication for the dashboard.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/juliobfg/finboard/internal/domain"
	"github.com/juliobfg/finboard/internal/history"
	"github.com/juliobfg/finboard/internal/quote"
)

// DefaultMaxItems caps the published instrument list.
const DefaultMaxItems = 10

// ErrorMessage is the fixed user-facing message published when a fetch pass
// fails past the fallback layer.
const ErrorMessage = "Falha ao carregar dados. Por favor, tente novamente."

// QuoteFetcher supplies normalized quotes. The degraded flag is true when the
// quotes came from fallback data rather than the live API.
type QuoteFetcher interface {
	Fetch(ctx context.Context) (quotes []quote.Quote, degraded bool, err error)
}

// Engine owns the published snapshot and the per-instrument history store.
// All published state is mutated under one lock, so concurrent fetch passes
// can interleave only at whole-snapshot granularity: the later publication
// wins, and no partially built item list is ever observable.
type Engine struct {
	fetcher  QuoteFetcher
	store    *history.Store
	maxItems int
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.RWMutex
	snap domain.Snapshot
}

// New creates an engine around the given fetcher and history store.
func New(fetcher QuoteFetcher, store *history.Store, maxItems int, logger *zap.Logger) *Engine {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		fetcher:  fetcher,
		store:    store,
		maxItems: maxItems,
		logger:   logger,
		now:      time.Now,
	}
}

// Snapshot returns a deep copy of the current published state.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.snap.Clone()
}

// FetchData runs one full pass: fetch, update histories, publish. A fetch
// transport failure is absorbed by the fetcher's fallback and only marks the
// snapshot degraded; any other failure flips the snapshot into the error
// state while retaining the previous items and selection.
func (e *Engine) FetchData(ctx context.Context) error {
	e.mu.Lock()
	e.snap.Loading = true
	e.snap.Error = ""
	e.snap.Version++
	e.mu.Unlock()

	quotes, degraded, err := e.fetcher.Fetch(ctx)
	if err != nil {
		e.logger.Error("finance data pass failed", zap.Error(err))
		e.mu.Lock()
		e.snap.Loading = false
		e.snap.Error = ErrorMessage
		e.snap.Version++
		e.mu.Unlock()
		return err
	}

	now := e.now()
	items := make([]domain.Instrument, 0, len(quotes))
	for _, q := range quotes {
		if !e.store.Has(q.ID) {
			e.store.Backfill(q.ID, q.Price, q.Variation, now)
		} else if e.store.ShouldAppendNow(q.ID, now) {
			e.store.Append(q.ID, domain.HistoryPoint{Timestamp: now.UnixMilli(), Price: q.Price})
		}

		items = append(items, domain.Instrument{
			ID:        q.ID,
			Name:      q.Name,
			Symbol:    q.Symbol,
			Price:     q.Price,
			Variation: q.Variation,
			History:   e.store.FilteredView(q.ID),
		})
	}
	if len(items) > e.maxItems {
		items = items[:e.maxItems]
	}

	e.mu.Lock()
	e.snap.Items = items
	e.snap.Loading = false
	e.snap.Degraded = degraded
	e.snap.SelectedItem = reselect(e.snap.SelectedItem, items)
	e.snap.Version++
	e.mu.Unlock()

	e.logger.Debug("published finance snapshot",
		zap.Int("items", len(items)),
		zap.Bool("degraded", degraded))
	return nil
}

// reselect applies the selection fallback rule: keep the previously selected
// instrument when it is still listed, otherwise fall back to the first item,
// or to nothing when the list is empty.
func reselect(prev *domain.Instrument, items []domain.Instrument) *domain.Instrument {
	if prev != nil {
		for i := range items {
			if items[i].ID == prev.ID {
				sel := items[i].Clone()
				return &sel
			}
		}
	}
	if len(items) > 0 {
		sel := items[0].Clone()
		return &sel
	}
	return nil
}

// SelectItem marks the instrument with the given ID as selected. Unknown IDs
// are silently ignored.
func (e *Engine) SelectItem(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.snap.Items {
		if e.snap.Items[i].ID == id {
			sel := e.snap.Items[i].Clone()
			e.snap.SelectedItem = &sel
			e.snap.Version++
			return
		}
	}
}

// ClearError dismisses the error message without touching other state.
func (e *Engine) ClearError() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snap.Error != "" {
		e.snap.Error = ""
		e.snap.Version++
	}
}
