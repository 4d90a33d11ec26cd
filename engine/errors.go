/*
errors.go - Centralized error types for the engine

PURPOSE:
  All engine error kinds in one place. Callers branch with errors.Is /
  errors.As; no component uses exceptions-style control flow or swallows
  a write failure into a log line.

ERROR CATEGORIES:
  1. Validation errors - time-window rejections, unknown types
  2. Not-found errors  - unknown worker, unknown reward
  3. Store errors      - persistence-level failures
  4. Notification      - non-fatal delivery failures (logged, never propagated)

SEE ALSO:
  - window.go: returns InvalidTimeWindowError
  - reward.go: returns ErrRewardAlreadyIssued
  - batch.go:  collects per-worker failures without aborting the run
*/
package engine

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidTimeWindow is returned when an attendance check-in falls
	// outside the allowed day/time range for its type. The write is rejected.
	ErrInvalidTimeWindow = errors.New("check-in outside allowed time window")

	// ErrWorkerNotFound is returned when an operation references an unknown
	// worker. In a batch run this is a per-worker failure, never fatal.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrRewardNotFound is returned when redeeming an unknown reward.
	ErrRewardNotFound = errors.New("reward not found")

	// ErrRewardAlreadyIssued is returned by the reward store when a reward
	// for the same (worker, period) already exists. Expected on re-runs.
	ErrRewardAlreadyIssued = errors.New("reward already issued for period")

	// ErrRewardAlreadyRedeemed is returned when redeeming a reward that
	// has already been redeemed.
	ErrRewardAlreadyRedeemed = errors.New("reward already redeemed")

	// ErrUnknownHabitType is returned when recording a completion for a
	// habit type the engine does not track.
	ErrUnknownHabitType = errors.New("unknown habit type")

	// ErrUnknownAttendanceType is returned when recording a check-in for
	// an attendance type the engine does not know.
	ErrUnknownAttendanceType = errors.New("unknown attendance type")

	// ErrWorkerNumberTaken is returned by the worker store when the
	// worker number is already assigned. Callers retry with the next
	// sequence.
	ErrWorkerNumberTaken = errors.New("worker number already taken")

	// ErrStoreFailure wraps persistence-level failures from store adapters.
	ErrStoreFailure = errors.New("store failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidTimeWindowError carries the type-specific human message shown to
// the person checking in.
type InvalidTimeWindowError struct {
	Type    AttendanceType
	At      time.Time
	Message string
}

func (e *InvalidTimeWindowError) Error() string {
	return fmt.Sprintf("invalid time window for %s at %s: %s",
		e.Type, e.At.UTC().Format(time.RFC3339), e.Message)
}

func (e *InvalidTimeWindowError) Unwrap() error { return ErrInvalidTimeWindow }

// WorkerFailure records one worker's failure during a batch run.
type WorkerFailure struct {
	WorkerID WorkerID
	Err      error
}

func (f WorkerFailure) Error() string {
	return fmt.Sprintf("worker %s: %v", f.WorkerID, f.Err)
}

func (f WorkerFailure) Unwrap() error { return f.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTimeWindow) ||
		errors.Is(err, ErrUnknownHabitType) ||
		errors.Is(err, ErrUnknownAttendanceType) ||
		errors.Is(err, ErrRewardAlreadyIssued)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkerNotFound) ||
		errors.Is(err, ErrRewardNotFound)
}
