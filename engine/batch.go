/*
batch.go - Batch runner over all workers

PURPOSE:
  Iterates every known worker and runs EvaluateAndIssue, isolating failures
  so one worker cannot abort the run. Sequential by design: each worker's
  evaluation touches disjoint event rows, and the weekly cadence leaves no
  pressure to fan out.

FAILURE ISOLATION:
  Each per-worker error is caught, logged with the worker id, appended to
  Failed, and excluded from the success count. The batch always completes
  every worker it started with. A per-worker timeout stops a single slow
  store call from stalling the whole run; a timeout counts as that worker's
  failure.
*/
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultWorkerTimeout bounds one worker's evaluation within a batch run.
const DefaultWorkerTimeout = 30 * time.Second

// RunSummary is the user-visible outcome of one batch run.
type RunSummary struct {
	Attempted   int
	Succeeded   int
	Issued      int
	Failed      []WorkerFailure
	StartedAt   time.Time
	CompletedAt time.Time
}

// Runner drives periodic reward evaluation across the whole workforce.
type Runner struct {
	Workers       WorkerStore
	Evaluator     *Evaluator
	WorkerTimeout time.Duration
	Logger        *zap.Logger
}

func NewRunner(workers WorkerStore, evaluator *Evaluator, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Workers:       workers,
		Evaluator:     evaluator,
		WorkerTimeout: DefaultWorkerTimeout,
		Logger:        logger,
	}
}

// RunAll evaluates every worker as of now. Only a failure to list the
// workforce is returned as an error; everything per-worker lands in the
// summary.
func (r *Runner) RunAll(ctx context.Context) (RunSummary, error) {
	return r.RunAllAsOf(ctx, time.Now().UTC())
}

// RunAllAsOf evaluates every worker against the calendar month containing
// asOf.
func (r *Runner) RunAllAsOf(ctx context.Context, asOf time.Time) (RunSummary, error) {
	summary := RunSummary{StartedAt: time.Now().UTC()}

	ids, err := r.Workers.ListWorkerIDs(ctx)
	if err != nil {
		return summary, err
	}

	for _, id := range ids {
		summary.Attempted++

		if err := r.runOne(ctx, id, asOf, &summary); err != nil {
			r.Logger.Error("worker evaluation failed",
				zap.String("worker_id", string(id)),
				zap.Error(err))
			summary.Failed = append(summary.Failed, WorkerFailure{WorkerID: id, Err: err})
			continue
		}
		summary.Succeeded++
	}

	summary.CompletedAt = time.Now().UTC()
	r.Logger.Info("batch run completed",
		zap.Int("attempted", summary.Attempted),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", len(summary.Failed)),
		zap.Int("issued", summary.Issued))
	return summary, nil
}

func (r *Runner) runOne(ctx context.Context, id WorkerID, asOf time.Time, summary *RunSummary) error {
	timeout := r.WorkerTimeout
	if timeout <= 0 {
		timeout = DefaultWorkerTimeout
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, reward, err := r.Evaluator.EvaluateAndIssue(wctx, id, asOf)
	if err != nil {
		return err
	}
	if reward != nil {
		summary.Issued++
	}
	return nil
}
