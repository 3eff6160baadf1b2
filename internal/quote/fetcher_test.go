package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const samplePayload = `{
  "results": {
    "currencies": {
      "source": "BRL",
      "USD": {"name": "Dólar", "buy": 5.25, "variation": -0.72},
      "EUR": {"name": "Euro", "buy": 6.12, "variation": 0.35},
      "ARS": {"name": "Peso Argentino", "variation": 0.0},
      "JPY": {"buy": 0.034, "variation": 0.1}
    },
    "stocks": {
      "IBOVESPA": {"name": "BM&F BOVESPA", "location": "Sao Paulo, Brazil", "points": 128430.55, "variation": 0.41},
      "NASDAQ": {"name": "NASDAQ Stock Market", "location": "New York City, United States", "points": 18342.94, "variation": -0.28}
    }
  }
}`

func TestNormalize(t *testing.T) {
	t.Run("currency scenario", func(t *testing.T) {
		quotes, err := Normalize([]byte(`{"results": {"currencies": {"USD": {"name": "Dólar", "buy": 5.25, "variation": -0.72}}, "stocks": {}}}`))
		require.NoError(t, err)
		require.Len(t, quotes, 1)

		q := quotes[0]
		assert.Equal(t, "currency-USD", q.ID)
		assert.Equal(t, "Dólar", q.Name)
		assert.Equal(t, "USD", q.Symbol)
		assert.True(t, q.Price.Equal(decimal.NewFromFloat(5.25)))
		assert.True(t, q.Variation.Equal(decimal.NewFromFloat(-0.72)))
	})

	t.Run("currencies precede stocks in payload key order", func(t *testing.T) {
		quotes, err := Normalize([]byte(samplePayload))
		require.NoError(t, err)

		ids := make([]string, len(quotes))
		for i, q := range quotes {
			ids[i] = q.ID
		}
		assert.Equal(t, []string{"currency-USD", "currency-EUR", "stock-IBOVESPA", "stock-NASDAQ"}, ids)
	})

	t.Run("skips source entry and incomplete currencies", func(t *testing.T) {
		quotes, err := Normalize([]byte(samplePayload))
		require.NoError(t, err)

		for _, q := range quotes {
			assert.NotEqual(t, "currency-source", q.ID)
			assert.NotEqual(t, "currency-ARS", q.ID) // no buy price
			assert.NotEqual(t, "currency-JPY", q.ID) // no name
		}
	})

	t.Run("stock names include location", func(t *testing.T) {
		quotes, err := Normalize([]byte(samplePayload))
		require.NoError(t, err)

		var ibov *Quote
		for i := range quotes {
			if quotes[i].ID == "stock-IBOVESPA" {
				ibov = &quotes[i]
			}
		}
		require.NotNil(t, ibov)
		assert.Equal(t, "BM&F BOVESPA (Sao Paulo, Brazil)", ibov.Name)
		assert.True(t, ibov.Price.Equal(decimal.NewFromFloat(128430.55)))
	})

	t.Run("missing sections yield no quotes", func(t *testing.T) {
		quotes, err := Normalize([]byte(`{"results": {}}`))
		require.NoError(t, err)
		assert.Empty(t, quotes)
	})

	t.Run("malformed payload errors", func(t *testing.T) {
		_, err := Normalize([]byte(`{"results": {"currencies": ["not", "an", "object"]}}`))
		assert.Error(t, err)
	})
}

func TestFetcher_Fetch(t *testing.T) {
	t.Run("live payload", func(t *testing.T) {
		var gotFormat, gotKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotFormat = r.URL.Query().Get("format")
			gotKey = r.URL.Query().Get("key")
			w.Write([]byte(samplePayload))
		}))
		defer server.Close()

		f := NewFetcher(server.URL, "test-key", zap.NewNop())
		quotes, degraded, err := f.Fetch(context.Background())
		require.NoError(t, err)

		assert.False(t, degraded)
		assert.Len(t, quotes, 4)
		assert.Equal(t, "json", gotFormat)
		assert.Equal(t, "test-key", gotKey)
	})

	t.Run("transport failure falls back without error", func(t *testing.T) {
		// closed server: every attempt fails at the transport layer
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		f := NewFetcher(server.URL, "test-key", zap.NewNop())
		quotes, degraded, err := f.Fetch(context.Background())
		require.NoError(t, err)

		assert.True(t, degraded)
		assert.NotEmpty(t, quotes)
		assert.Equal(t, "currency-USD", quotes[0].ID)
	})

	t.Run("server error falls back without error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		f := NewFetcher(server.URL, "test-key", zap.NewNop())
		quotes, degraded, err := f.Fetch(context.Background())
		require.NoError(t, err)

		assert.True(t, degraded)
		assert.NotEmpty(t, quotes)
	})

	t.Run("malformed live payload surfaces an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results": {"currencies": 12}}`))
		}))
		defer server.Close()

		f := NewFetcher(server.URL, "test-key", zap.NewNop())
		_, degraded, err := f.Fetch(context.Background())
		assert.Error(t, err)
		assert.False(t, degraded)
	})
}

func TestFallbackPayloadNormalizes(t *testing.T) {
	quotes, err := Normalize([]byte(fallbackPayload))
	require.NoError(t, err)
	assert.NotEmpty(t, quotes)
}
