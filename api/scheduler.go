/*
scheduler.go - Periodic batch trigger

PURPOSE:
  Runs the reward batch on a fixed interval (weekly by default) in a
  background goroutine, and records every run for audit and UI display.
  The runner itself isolates per-worker failures; a failed run here only
  logs - the next tick tries again.

USAGE:
  scheduler := NewBatchScheduler(store, runner, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - engine/batch.go: the runner this drives
  - handlers.go: RunBatch (manual trigger, same recording)
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lifegate/workforce-engine/engine"
	"github.com/lifegate/workforce-engine/store/sqlite"
)

// BatchScheduler triggers the reward batch on a fixed interval.
type BatchScheduler struct {
	Store    *sqlite.Store
	Runner   *engine.Runner
	Interval time.Duration
	Logger   *zap.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBatchScheduler creates a scheduler with a weekly interval.
func NewBatchScheduler(store *sqlite.Store, runner *engine.Runner, logger *zap.Logger) *BatchScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchScheduler{
		Store:    store,
		Runner:   runner,
		Interval: 7 * 24 * time.Hour,
		Logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start begins the scheduler. The first run happens immediately.
func (bs *BatchScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	bs.ticker = time.NewTicker(bs.Interval)
	bs.wg.Add(1)
	go bs.run()

	bs.Logger.Info("batch scheduler started", zap.Duration("interval", bs.Interval))
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (bs *BatchScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker != nil {
		bs.ticker.Stop()
		close(bs.stop)
		bs.wg.Wait()
		bs.Logger.Info("batch scheduler stopped")
	}
}

func (bs *BatchScheduler) run() {
	defer bs.wg.Done()

	bs.runOnce()
	for {
		select {
		case <-bs.ticker.C:
			bs.runOnce()
		case <-bs.stop:
			return
		}
	}
}

func (bs *BatchScheduler) runOnce() {
	ctx := context.Background()

	summary, err := bs.Runner.RunAll(ctx)
	if err != nil {
		bs.Logger.Error("scheduled batch run failed", zap.Error(err))
		return
	}

	if err := bs.Store.SaveBatchRun(ctx, batchRunRecord(summary)); err != nil {
		bs.Logger.Warn("failed to record batch run", zap.Error(err))
	}
}
