// Package retrier provides a small exponential-backoff helper for flaky
// network calls.
package retrier

import (
	"context"
	"math/rand"
	"time"
)

const jitterFactor = 0.1

// Backoff retries an operation with exponentially growing, jittered delays.
type Backoff struct {
	attempts int
	delay    time.Duration
	maxDelay time.Duration
	factor   float64
}

// New creates a Backoff performing at most attempts calls, starting with
// delay between them and multiplying it by factor up to maxDelay.
func New(attempts int, delay, maxDelay time.Duration, factor float64) *Backoff {
	if attempts < 1 {
		attempts = 1
	}
	if factor < 1 {
		factor = 1
	}
	return &Backoff{attempts: attempts, delay: delay, maxDelay: maxDelay, factor: factor}
}

// Do invokes fn until it succeeds, the attempt budget is exhausted, or ctx is
// cancelled. The last error is returned.
func (b *Backoff) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	wait := b.delay

	for attempt := 0; attempt < b.attempts; attempt++ {
		if attempt > 0 {
			jitter := time.Duration((rand.Float64()*2 - 1) * jitterFactor * float64(wait))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait + jitter):
			}

			wait = time.Duration(float64(wait) * b.factor)
			if wait > b.maxDelay {
				wait = b.maxDelay
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
	}

	return err
}

// Result invokes fn with retries and returns its value.
func Result[T any](ctx context.Context, b *Backoff, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := b.Do(ctx, func(ctx context.Context) error {
		var e error
		out, e = fn(ctx)
		return e
	})
	return out, err
}
