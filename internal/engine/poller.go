package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Poller is the cancellable handle returned by StartPolling. Callers own it
// and must release it when the consuming session ends.
type Poller struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop cancels the polling loop and waits for it to exit. Safe to call
// multiple times.
func (p *Poller) Stop() {
	p.once.Do(p.cancel)
	<-p.done
}

// StartPolling launches a background loop invoking FetchData every interval.
// An immediate pass runs at start. Each tick consults gate and skips the pass
// while it reports false (no valid session). The loop exits when ctx is
// cancelled or Stop is called.
func (e *Engine) StartPolling(ctx context.Context, interval time.Duration, gate func() bool) *Poller {
	ctx, cancel := context.WithCancel(ctx)
	p := &Poller{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		e.logger.Info("starting finance polling", zap.Duration("interval", interval))

		if gate() {
			if err := e.FetchData(ctx); err != nil {
				e.logger.Error("initial finance fetch failed", zap.Error(err))
			}
		}

		for {
			select {
			case <-ctx.Done():
				e.logger.Info("finance polling stopped")
				return
			case <-ticker.C:
				if !gate() {
					e.logger.Debug("skipping finance tick, no active session")
					continue
				}
				if err := e.FetchData(ctx); err != nil {
					e.logger.Error("finance fetch failed", zap.Error(err))
				}
			}
		}
	}()

	return p
}
