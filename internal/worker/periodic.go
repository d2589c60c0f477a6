package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/basebytes/receipt-indexer/internal/adapter"
	"github.com/basebytes/receipt-indexer/internal/logger"
)

// TickFunc runs one unit of periodic work
type TickFunc func(ctx context.Context) error

// periodicWorker runs a tick immediately and then once per interval.
// Ticks never overlap: the next interval starts when the previous tick returns.
type periodicWorker struct {
	name      string
	interval  time.Duration
	tick      TickFunc
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewPeriodic creates a worker running tick every interval
func NewPeriodic(name string, interval time.Duration, tick TickFunc, clock adapter.Clock) Worker {
	return &periodicWorker{
		name:      name,
		interval:  interval,
		tick:      tick,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the worker's name
func (w *periodicWorker) Name() string {
	return w.name
}

// Start runs the loop until the context is canceled or stop is requested.
// Tick errors are logged and never end the loop.
func (w *periodicWorker) Start(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%s already running", w.name)
	}
	defer func() {
		w.running.Store(false)
		close(w.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting worker", zap.String("worker", w.name), zap.Duration("interval", w.interval))

	tickCtx := withStopSignal(ctx, w.stopChan)
	for {
		if err := w.tick(tickCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorCtx(ctx, fmt.Errorf("%s tick failed: %w", w.name, err))
		}

		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Worker stopping due to context cancellation", zap.String("worker", w.name))
			return nil
		case <-w.stopChan:
			logger.InfoCtx(ctx, "Worker stop requested", zap.String("worker", w.name))
			return nil
		case <-w.clock.After(w.interval):
		}
	}
}

// Stop signals the loop and waits for the current tick to finish, bounded by ctx
func (w *periodicWorker) Stop(ctx context.Context) error {
	if !w.running.Load() {
		return nil
	}

	select {
	case <-w.stopChan:
	default:
		close(w.stopChan)
	}

	select {
	case <-w.stoppedCh:
		logger.InfoCtx(ctx, "Worker stopped gracefully", zap.String("worker", w.name))
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Worker stop interrupted by context timeout", zap.String("worker", w.name))
		return ctx.Err()
	}
}
