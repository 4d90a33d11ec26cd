package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Quota counts are always computed for a calendar month
// =============================================================================

// Period is a closed time window [Start, End]. Quota evaluation always uses
// a calendar month anchored to the evaluation instant; the window is derived
// fresh on every run, never persisted.
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthOf returns the calendar month containing t, in UTC:
// [1st 00:00:00, last instant of the month].
func MonthOf(t time.Time) Period {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return Period{Start: start, End: end}
}

// Contains reports whether t falls within the period (inclusive).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Key returns the period's idempotency key, e.g. "2026-08".
func (p Period) Key() string {
	return p.Start.Format("2006-01")
}

func (p Period) String() string {
	return fmt.Sprintf("[%s, %s]", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

// Day truncates t to its UTC calendar day. Used for streak arithmetic and
// day-distinctness.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
