/*
store.go - Persistence interfaces between the engine and its collaborators

PURPOSE:
  The engine never touches a database directly. These narrow interfaces are
  the sole I/O boundary: event reads, the single reward write, and worker
  lookups. SQLite and in-memory implementations exist; PostgreSQL would be
  a dialect change, not a design change.

READ/WRITE SPLIT:
  Quota evaluation is read-only; the reward insert is the only write on the
  evaluation path. Events are append-only - there is no update or delete on
  attendance or habit rows. Quota counts are recomputed from raw events on
  every evaluation, never persisted as a rollup.

IDEMPOTENCY:
  SaveReward must enforce at-most-one reward per (worker, period) and return
  ErrRewardAlreadyIssued on conflict. The SQLite implementation uses a
  unique index; the in-memory implementation checks under its lock.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: production SQLite
  - engine/store/memory.go: in-memory for tests/dev

SEE ALSO:
  - quota.go:  consumes EventStore
  - reward.go: consumes RewardStore + WorkerStore
  - batch.go:  consumes WorkerStore for iteration
*/
package engine

import (
	"context"
	"time"
)

// =============================================================================
// EVENT STORE - Read-mostly access to attendance and habit rows
// =============================================================================

// EventStore adapts the underlying entity store for the engine.
type EventStore interface {
	// SaveAttendance persists a check-in. Callers must classify first;
	// see RecordAttendance which rejects invalid windows before the write.
	SaveAttendance(ctx context.Context, ev AttendanceEvent) error

	// GetAttendance returns all check-ins for a worker in [from, to].
	GetAttendance(ctx context.Context, id WorkerID, from, to time.Time) ([]AttendanceEvent, error)

	// SaveHabit persists a habit completion.
	SaveHabit(ctx context.Context, ev HabitEvent) error

	// GetHabits returns all habit completions for a worker in [from, to].
	GetHabits(ctx context.Context, id WorkerID, from, to time.Time) ([]HabitEvent, error)

	// GetHabitsByType returns the full completion history for one habit
	// type, most recent first. Used by the streak calculator.
	GetHabitsByType(ctx context.Context, id WorkerID, habit HabitType) ([]HabitEvent, error)
}

// =============================================================================
// WORKER STORE - Workforce records and habit preferences
// =============================================================================

type WorkerStore interface {
	// CreateWorker returns ErrWorkerNumberTaken when the worker number is
	// already assigned to someone else.
	CreateWorker(ctx context.Context, w Worker) error

	// GetWorker returns ErrWorkerNotFound for unknown ids.
	GetWorker(ctx context.Context, id WorkerID) (Worker, error)

	ListWorkers(ctx context.Context) ([]Worker, error)

	// ListWorkerIDs feeds the batch runner.
	ListWorkerIDs(ctx context.Context) ([]WorkerID, error)

	// Preferences. The full-replace diff lives in preferences.go; the store
	// only adds and removes individual rows.
	ListPreferences(ctx context.Context, id WorkerID) ([]HabitPreference, error)
	AddPreference(ctx context.Context, p HabitPreference) error
	RemovePreference(ctx context.Context, id WorkerID, habit HabitType) error
}

// =============================================================================
// REWARD STORE
// =============================================================================

type RewardStore interface {
	// SaveReward persists a reward. Returns ErrRewardAlreadyIssued if a
	// reward for the same (worker, period key) already exists.
	SaveReward(ctx context.Context, r Reward) error

	GetRewardsForWorker(ctx context.Context, id WorkerID) ([]Reward, error)

	// MarkRedeemed transitions a pending reward to redeemed.
	// Returns ErrRewardNotFound for unknown ids.
	MarkRedeemed(ctx context.Context, id RewardID, at time.Time) error
}

// =============================================================================
// NOTIFICATION COLLABORATOR
// =============================================================================

// Notifier delivers the congratulatory message after issuance. Delivery
// failures are logged by the issuer and never roll back the reward; any
// retry policy belongs to the implementation, not the engine.
type Notifier interface {
	Notify(ctx context.Context, worker Worker, subject, body string) error
}
