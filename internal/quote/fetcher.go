// Package quote fetches currency and stock quotes from the upstream finance
// API and normalizes them into the dashboard's instrument shape.
package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/juliobfg/finboard/internal/domain"
	"github.com/juliobfg/finboard/pkg/retrier"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 4 << 20

	fetchAttempts     = 2
	fetchRetryDelay   = 500 * time.Millisecond
	fetchRetryMax     = 2 * time.Second
	fetchRetryFactor  = 2.0
	currencySourceKey = "source"
)

// Quote is one normalized upstream record.
type Quote struct {
	ID        string
	Name      string
	Symbol    string
	Price     decimal.Decimal
	Variation decimal.Decimal
	Category  string
}

// Fetcher wraps the upstream HTTP call. Transport failures are recovered
// locally by substituting the embedded fallback payload, so the dashboard
// stays populated during outages; the returned degraded flag tells callers
// they are looking at fallback data.
type Fetcher struct {
	endpoint string
	apiKey   string
	client   *http.Client
	backoff  *retrier.Backoff
	logger   *zap.Logger
}

// NewFetcher creates a fetcher for the given endpoint and API key.
func NewFetcher(endpoint, apiKey string, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: requestTimeout},
		backoff:  retrier.New(fetchAttempts, fetchRetryDelay, fetchRetryMax, fetchRetryFactor),
		logger:   logger,
	}
}

// Fetch retrieves and normalizes the current quotes. Transport and non-2xx
// failures fall back to the embedded payload and set degraded; the error is
// non-nil only when a successfully transported payload cannot be normalized.
func (f *Fetcher) Fetch(ctx context.Context) (quotes []Quote, degraded bool, err error) {
	raw, fetchErr := retrier.Result(ctx, f.backoff, f.fetchOnce)
	if fetchErr != nil {
		f.logger.Warn("finance API unavailable, serving fallback data", zap.Error(fetchErr))
		quotes, err = Normalize([]byte(fallbackPayload))
		if err != nil {
			return nil, true, errors.Wrap(err, "normalize fallback payload")
		}
		return quotes, true, nil
	}

	quotes, err = Normalize(raw)
	if err != nil {
		return nil, false, errors.Wrap(err, "normalize finance payload")
	}
	return quotes, false, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context) ([]byte, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "parse finance API endpoint")
	}
	q := u.Query()
	q.Set("format", "json")
	q.Set("key", f.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build finance API request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call finance API")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("finance API returned status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read finance API response")
	}
	return body, nil
}

type currencyRecord struct {
	Name      string           `json:"name"`
	Buy       *decimal.Decimal `json:"buy"`
	Variation decimal.Decimal  `json:"variation"`
}

type stockRecord struct {
	Name      string          `json:"name"`
	Location  string          `json:"location"`
	Points    decimal.Decimal `json:"points"`
	Variation decimal.Decimal `json:"variation"`
}

// Normalize converts a raw upstream payload into the uniform quote list:
// currencies first, then stocks, each in the payload's own key order. For
// currencies the "source" pseudo-entry is skipped, as are entries missing a
// name or a buy price. Stock names are rendered as "Name (Location)".
func Normalize(raw []byte) ([]Quote, error) {
	var payload struct {
		Results struct {
			Currencies json.RawMessage `json:"currencies"`
			Stocks     json.RawMessage `json:"stocks"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decode finance payload")
	}

	var quotes []Quote

	err := eachMember(payload.Results.Currencies, func(key string, value json.RawMessage) error {
		if key == currencySourceKey {
			return nil
		}
		var rec currencyRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return errors.Wrapf(err, "decode currency %q", key)
		}
		if rec.Name == "" || rec.Buy == nil {
			return nil
		}
		quotes = append(quotes, Quote{
			ID:        fmt.Sprintf("%s-%s", domain.CategoryCurrency, key),
			Name:      rec.Name,
			Symbol:    key,
			Price:     *rec.Buy,
			Variation: rec.Variation,
			Category:  domain.CategoryCurrency,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachMember(payload.Results.Stocks, func(key string, value json.RawMessage) error {
		var rec stockRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return errors.Wrapf(err, "decode stock %q", key)
		}
		quotes = append(quotes, Quote{
			ID:        fmt.Sprintf("%s-%s", domain.CategoryStock, key),
			Name:      fmt.Sprintf("%s (%s)", rec.Name, rec.Location),
			Symbol:    key,
			Price:     rec.Points,
			Variation: rec.Variation,
			Category:  domain.CategoryStock,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return quotes, nil
}

// eachMember walks a JSON object's members in document order. encoding/json
// maps lose key order, so the object is re-tokenized instead.
func eachMember(raw json.RawMessage, fn func(key string, value json.RawMessage) error) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "read object start")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, "read object key")
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return errors.Wrapf(err, "read value of %q", key)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return nil
}
