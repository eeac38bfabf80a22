package stops

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/passengerflow-console/internal/common/logger"
)

// Refresher periodically reloads a CachedSource so new stops appear without
// a restart.
type Refresher struct {
	source   *CachedSource
	interval time.Duration
	logger   logger.Logger

	mu        sync.Mutex
	isRunning bool
	cancelFn  context.CancelFunc
	done      chan struct{}
}

func NewRefresher(source *CachedSource, interval time.Duration, logger logger.Logger) *Refresher {
	return &Refresher{
		source:   source,
		interval: interval,
		logger:   logger.With("component", "stop-refresher"),
	}
}

// Start launches the refresh loop. It returns an error when already running.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return fmt.Errorf("stop refresher is already running")
	}
	if r.interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", r.interval)
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancelFn = cancel
	r.done = make(chan struct{})
	r.isRunning = true

	r.logger.Info("Starting stop refresher", "interval", r.interval)
	go r.loop(ctx, r.done)
	return nil
}

// Stop cancels the loop and waits for it to exit
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return
	}
	r.cancelFn()
	done := r.done
	r.isRunning = false
	r.mu.Unlock()

	<-done
	r.logger.Info("Stop refresher stopped")
}

func (r *Refresher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	start := time.Now()
	if err := r.source.Refresh(ctx); err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("Stop refresh failed, keeping cached list", "error", err)
		}
		return
	}
	r.logger.Debug("Stop list refreshed", "duration", time.Since(start))
}
