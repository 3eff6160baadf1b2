package engine

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juliobfg/finboard/internal/history"
	"github.com/juliobfg/finboard/internal/market"
	"github.com/juliobfg/finboard/internal/quote"
)

// stubFetcher returns canned quotes. In blocking mode each call parks on its
// own release channel so tests can force overlapping fetch passes and control
// their completion order.
type stubFetcher struct {
	mu       sync.Mutex
	quotes   []quote.Quote
	degraded bool
	err      error
	blocking bool
	started  chan struct{}
	pending  []chan []quote.Quote
}

func (f *stubFetcher) Fetch(ctx context.Context) ([]quote.Quote, bool, error) {
	if f.blocking {
		ch := make(chan []quote.Quote)
		f.mu.Lock()
		f.pending = append(f.pending, ch)
		f.mu.Unlock()
		f.started <- struct{}{}
		return <-ch, false, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quotes, f.degraded, f.err
}

// releaseCall unblocks the i-th blocking call with the given quotes.
func (f *stubFetcher) releaseCall(i int, quotes []quote.Quote) {
	f.mu.Lock()
	ch := f.pending[i]
	f.mu.Unlock()
	ch <- quotes
}

func (f *stubFetcher) set(quotes []quote.Quote, degraded bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes = quotes
	f.degraded = degraded
	f.err = err
}

func usdQuote(price float64) quote.Quote {
	return quote.Quote{
		ID:        "currency-USD",
		Name:      "Dólar",
		Symbol:    "USD",
		Price:     decimal.NewFromFloat(price),
		Variation: decimal.NewFromFloat(-0.72),
		Category:  "currency",
	}
}

func eurQuote() quote.Quote {
	return quote.Quote{
		ID:        "currency-EUR",
		Name:      "Euro",
		Symbol:    "EUR",
		Price:     decimal.NewFromFloat(6.12),
		Variation: decimal.NewFromFloat(0.35),
		Category:  "currency",
	}
}

// marketNow is a fixed instant inside the 10-18 trading window.
var marketNow = time.Date(2025, 3, 12, 15, 30, 0, 0, time.Local)

func newTestEngine(fetcher QuoteFetcher, maxItems int) *Engine {
	cal := market.NewCalendar(10, 18)
	store := history.NewStore(cal, 20, time.Hour, rand.New(rand.NewSource(1)))
	e := New(fetcher, store, maxItems, nil)
	e.now = func() time.Time { return marketNow }
	return e
}

func TestEngine_FetchData(t *testing.T) {
	t.Run("first fetch backfills history", func(t *testing.T) {
		fetcher := &stubFetcher{quotes: []quote.Quote{usdQuote(5.25)}}
		e := newTestEngine(fetcher, 10)

		require.NoError(t, e.FetchData(context.Background()))

		snap := e.Snapshot()
		require.Len(t, snap.Items, 1)
		item := snap.Items[0]
		assert.Equal(t, "currency-USD", item.ID)
		assert.True(t, item.Price.Equal(decimal.NewFromFloat(5.25)))
		// hours from market open through now: 10:00..15:00
		assert.Len(t, item.History, 6)
		assert.False(t, snap.Loading)
		assert.Empty(t, snap.Error)
	})

	t.Run("selects first item by default", func(t *testing.T) {
		fetcher := &stubFetcher{quotes: []quote.Quote{usdQuote(5.25), eurQuote()}}
		e := newTestEngine(fetcher, 10)

		require.NoError(t, e.FetchData(context.Background()))

		snap := e.Snapshot()
		require.NotNil(t, snap.SelectedItem)
		assert.Equal(t, "currency-USD", snap.SelectedItem.ID)
	})

	t.Run("keeps selection across fetches", func(t *testing.T) {
		fetcher := &stubFetcher{quotes: []quote.Quote{usdQuote(5.25), eurQuote()}}
		e := newTestEngine(fetcher, 10)
		require.NoError(t, e.FetchData(context.Background()))

		e.SelectItem("currency-EUR")
		require.NoError(t, e.FetchData(context.Background()))

		snap := e.Snapshot()
		require.NotNil(t, snap.SelectedItem)
		assert.Equal(t, "currency-EUR", snap.SelectedItem.ID)
	})

	t.Run("selection falls back to first item when id disappears", func(t *testing.T) {
		fetcher := &stubFetcher{quotes: []quote.Quote{usdQuote(5.25), eurQuote()}}
		e := newTestEngine(fetcher, 10)
		require.NoError(t, e.FetchData(context.Background()))
		e.SelectItem("currency-EUR")

		fetcher.set([]quote.Quote{usdQuote(5.30)}, false, nil)
		require.NoError(t, e.FetchData(context.Background()))

		snap := e.Snapshot()
		require.NotNil(t, snap.SelectedItem)
		assert.Equal(t, "currency-USD", snap.SelectedItem.ID)
	})

	t.Run("selection cleared when items empty", func(t *testing.T) {
		fetcher := &stubFetcher{quotes: []quote.Quote{usdQuote(5.25)}}
		e := newTestEngine(fetcher, 10)
		require.NoError(t, e.FetchData(context.Background()))

		fetcher.set(nil, false, nil)
		require.NoError(t, e.FetchData(context.Background()))

		snap := e.Snapshot()
		assert.Empty(t, snap.Items)
		assert.Nil(t, snap.SelectedItem)
	})

	t.Run("caps published items", func(t *testing.T) {
		fetcher := &stubFetcher{quotes: []quote.Quote{usdQuote(5.25), eurQuote()}}
		e := newTestEngine(fetcher, 1)

		require.NoError(t, e.FetchData(context.Background()))

		snap := e.Snapshot()
		assert.Len(t, snap.Items, 1)
		assert.Equal(t, "currency-USD", snap.Items[0].ID)
	})

	t.Run("degraded flag propagates", func(t *testing.T) {
		fetcher := &stubFetcher{quotes: []quote.Quote{usdQuote(5.25)}, degraded: true}
		e := newTestEngine(fetcher, 10)

		require.NoError(t, e.FetchData(context.Background()))

		snap := e.Snapshot()
		assert.True(t, snap.Degraded)
		assert.Empty(t, snap.Error)
		assert.NotEmpty(t, snap.Items)
	})

	t.Run("fetch error keeps previous snapshot", func(t *testing.T) {
		fetcher := &stubFetcher{quotes: []quote.Quote{usdQuote(5.25)}}
		e := newTestEngine(fetcher, 10)
		require.NoError(t, e.FetchData(context.Background()))

		fetcher.set(nil, false, errors.New("normalize exploded"))
		assert.Error(t, e.FetchData(context.Background()))

		snap := e.Snapshot()
		assert.Equal(t, ErrorMessage, snap.Error)
		assert.False(t, snap.Loading)
		// previous good items and selection survive
		require.Len(t, snap.Items, 1)
		assert.Equal(t, "currency-USD", snap.Items[0].ID)
		require.NotNil(t, snap.SelectedItem)
	})

	t.Run("appends a fresh point once the interval elapses", func(t *testing.T) {
		fetcher := &stubFetcher{quotes: []quote.Quote{usdQuote(5.25)}}
		e := newTestEngine(fetcher, 10)
		require.NoError(t, e.FetchData(context.Background()))

		before := len(e.Snapshot().Items[0].History)

		// two hours later, still inside market hours
		e.now = func() time.Time { return marketNow.Add(2 * time.Hour) }
		fetcher.set([]quote.Quote{usdQuote(5.40)}, false, nil)
		require.NoError(t, e.FetchData(context.Background()))

		after := e.Snapshot().Items[0].History
		require.Len(t, after, before+1)
		assert.True(t, after[len(after)-1].Price.Equal(decimal.NewFromFloat(5.40)))
	})
}

func TestEngine_SelectItem(t *testing.T) {
	fetcher := &stubFetcher{quotes: []quote.Quote{usdQuote(5.25), eurQuote()}}
	e := newTestEngine(fetcher, 10)
	require.NoError(t, e.FetchData(context.Background()))

	t.Run("known id", func(t *testing.T) {
		e.SelectItem("currency-EUR")
		assert.Equal(t, "currency-EUR", e.Snapshot().SelectedItem.ID)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		e.SelectItem("currency-EUR")
		e.SelectItem("stock-UNKNOWN")
		assert.Equal(t, "currency-EUR", e.Snapshot().SelectedItem.ID)
	})
}

func TestEngine_ClearError(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("boom")}
	e := newTestEngine(fetcher, 10)
	_ = e.FetchData(context.Background())
	require.Equal(t, ErrorMessage, e.Snapshot().Error)

	e.ClearError()
	snap := e.Snapshot()
	assert.Empty(t, snap.Error)

	// clearing twice changes nothing
	version := snap.Version
	e.ClearError()
	assert.Equal(t, version, e.Snapshot().Version)
}

func TestEngine_OverlappingFetches(t *testing.T) {
	// Two in-flight passes completing in reverse order of invocation: the
	// later completion wins. This is accepted last-write-wins behavior.
	fetcher := &stubFetcher{
		blocking: true,
		started:  make(chan struct{}),
	}
	e := newTestEngine(fetcher, 10)

	first := make(chan struct{})
	second := make(chan struct{})
	go func() { defer close(first); _ = e.FetchData(context.Background()) }()
	<-fetcher.started
	go func() { defer close(second); _ = e.FetchData(context.Background()) }()
	<-fetcher.started

	// complete the second call first, then the first: the first call's
	// publication lands last and wins
	fetcher.releaseCall(1, []quote.Quote{eurQuote()})
	<-second
	fetcher.releaseCall(0, []quote.Quote{usdQuote(5.25)})
	<-first

	snap := e.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "currency-USD", snap.Items[0].ID)
}

func TestEngine_SnapshotNeverPartial(t *testing.T) {
	// Concurrent passes publish distinct item sets; readers must always
	// observe one of them whole, never a mix.
	setA := []quote.Quote{usdQuote(5.25), {ID: "stock-A", Name: "A", Price: decimal.NewFromInt(1)}}
	setB := []quote.Quote{eurQuote(), {ID: "stock-B", Name: "B", Price: decimal.NewFromInt(2)}}

	fetcher := &stubFetcher{}
	e := newTestEngine(fetcher, 10)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			if i%2 == 0 {
				fetcher.set(setA, false, nil)
			} else {
				fetcher.set(setB, false, nil)
			}
			_ = e.FetchData(context.Background())
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		snap := e.Snapshot()
		if len(snap.Items) == 0 {
			continue
		}
		first := snap.Items[0].ID
		switch first {
		case "currency-USD":
			require.Len(t, snap.Items, 2)
			assert.Equal(t, "stock-A", snap.Items[1].ID)
		case "currency-EUR":
			require.Len(t, snap.Items, 2)
			assert.Equal(t, "stock-B", snap.Items[1].ID)
		default:
			t.Fatalf("unexpected first item %q", first)
		}
	}
}

func TestEngine_Snapshot_IsolatedCopy(t *testing.T) {
	fetcher := &stubFetcher{quotes: []quote.Quote{usdQuote(5.25)}}
	e := newTestEngine(fetcher, 10)
	require.NoError(t, e.FetchData(context.Background()))

	snap := e.Snapshot()
	snap.Items[0].Name = "mutated"
	snap.Items[0].History[0].Timestamp = -1

	fresh := e.Snapshot()
	assert.Equal(t, "Dólar", fresh.Items[0].Name)
	assert.NotEqual(t, int64(-1), fresh.Items[0].History[0].Timestamp)
}
