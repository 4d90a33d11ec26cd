package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HABIT DASHBOARD - Per-preference aggregates for one worker
// =============================================================================

// HabitSummary is the dashboard view of one opted-in habit type.
type HabitSummary struct {
	Habit       HabitType
	MonthCount  int
	Streak      int // 0 for Giving
	LastDone    *time.Time
	GivingTotal decimal.Decimal // month-to-date, Giving only
}

// Dashboard is what a worker sees: one summary per habit they track.
type Dashboard struct {
	WorkerID  WorkerID
	Period    Period
	Summaries []HabitSummary
}

// BuildDashboard aggregates the current month for each habit type the
// worker has opted to track. Preferences drive which aggregates are
// computed; untracked habit types are omitted entirely.
func BuildDashboard(ctx context.Context, events EventStore, workers WorkerStore, id WorkerID, asOf time.Time) (Dashboard, error) {
	if _, err := workers.GetWorker(ctx, id); err != nil {
		return Dashboard{}, err
	}

	prefs, err := workers.ListPreferences(ctx, id)
	if err != nil {
		return Dashboard{}, err
	}

	period := MonthOf(asOf)
	dash := Dashboard{WorkerID: id, Period: period}

	for _, p := range prefs {
		history, err := events.GetHabitsByType(ctx, id, p.HabitType)
		if err != nil {
			return Dashboard{}, err
		}

		s := HabitSummary{
			Habit:       p.HabitType,
			Streak:      Streak(p.HabitType, history),
			GivingTotal: decimal.Zero,
		}
		for _, e := range history {
			if period.Contains(e.CompletedAt) {
				s.MonthCount++
				if p.HabitType == HabitGiving {
					s.GivingTotal = s.GivingTotal.Add(e.Amount)
				}
			}
			if s.LastDone == nil || e.CompletedAt.After(*s.LastDone) {
				t := e.CompletedAt
				s.LastDone = &t
			}
		}
		dash.Summaries = append(dash.Summaries, s)
	}

	return dash, nil
}
