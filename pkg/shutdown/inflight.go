package shutdown

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// InFlightTracker lets shutdown wait for accepted work (inbound callbacks,
// dispatcher runs) to finish before the database pool closes.
type InFlightTracker struct {
	logger     *zap.Logger
	shutdownCh chan struct{}
	name       string
	wg         sync.WaitGroup
	mu         sync.Mutex
	closed     bool
}

// NewInFlightTracker creates a new in-flight work tracker
func NewInFlightTracker(name string, logger *zap.Logger) *InFlightTracker {
	return &InFlightTracker{
		shutdownCh: make(chan struct{}),
		logger:     logger,
		name:       name,
	}
}

// Add increments the in-flight counter.
// Returns false once shutdown has started; the caller must not start the work.
func (ift *InFlightTracker) Add() bool {
	ift.mu.Lock()
	defer ift.mu.Unlock()
	if ift.closed {
		return false
	}
	ift.wg.Add(1)
	return true
}

// Done decrements the in-flight counter
func (ift *InFlightTracker) Done() {
	ift.wg.Done()
}

// Shutdown rejects new work and waits for in-flight work to drain
func (ift *InFlightTracker) Shutdown(ctx context.Context) error {
	ift.mu.Lock()
	if !ift.closed {
		ift.closed = true
		close(ift.shutdownCh)
	}
	ift.mu.Unlock()

	ift.logger.Info("Waiting for in-flight work to complete",
		zap.String("tracker", ift.name),
	)

	done := make(chan struct{})
	go func() {
		ift.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ift.logger.Info("All in-flight work completed",
			zap.String("tracker", ift.name),
		)
		return nil
	case <-ctx.Done():
		ift.logger.Warn("Shutdown timeout - some work may be incomplete",
			zap.String("tracker", ift.name),
		)
		return ctx.Err()
	}
}

// IsShuttingDown returns true if shutdown has been initiated
func (ift *InFlightTracker) IsShuttingDown() bool {
	select {
	case <-ift.shutdownCh:
		return true
	default:
		return false
	}
}

// PeriodicWorker runs a function on a fixed interval until shut down
type PeriodicWorker struct {
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	name     string
	interval time.Duration
	wg       sync.WaitGroup
	once     sync.Once
}

// NewPeriodicWorker creates a new periodic worker
func NewPeriodicWorker(name string, interval time.Duration, logger *zap.Logger) *PeriodicWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &PeriodicWorker{
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		name:     name,
		interval: interval,
	}
}

// Start runs work immediately, then on every tick. work must honor ctx.Done().
func (pw *PeriodicWorker) Start(work func(ctx context.Context)) {
	pw.wg.Add(1)
	go func() {
		defer pw.wg.Done()

		pw.logger.Info("Periodic worker started",
			zap.String("worker", pw.name),
			zap.Duration("interval", pw.interval),
		)

		ticker := time.NewTicker(pw.interval)
		defer ticker.Stop()

		work(pw.ctx)
		for {
			select {
			case <-pw.ctx.Done():
				pw.logger.Info("Periodic worker stopped",
					zap.String("worker", pw.name),
				)
				return
			case <-ticker.C:
				work(pw.ctx)
			}
		}
	}()
}

// Shutdown cancels the worker and waits for the current run to return
func (pw *PeriodicWorker) Shutdown(ctx context.Context) error {
	pw.once.Do(pw.cancel)

	done := make(chan struct{})
	go func() {
		pw.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		pw.logger.Warn("Periodic worker shutdown timeout",
			zap.String("worker", pw.name),
		)
		return ctx.Err()
	}
}
