package engine

import (
	"context"
	"sort"
	"time"
)

// =============================================================================
// STREAK CALCULATOR - Consecutive distinct-day completion runs
// =============================================================================

// Streak returns the longest current run of consecutive distinct calendar
// days on which the habit was completed, ending at the most recent
// completion day (not necessarily today). Giving is monetary rather than
// day-presence based and always returns 0.
//
// A non-contiguous history counts only the head run: completions on
// Jan 5, 4, 3 and Jan 1 yield a streak of 3.
func Streak(habit HabitType, completions []HabitEvent) int {
	if habit == HabitGiving {
		return 0
	}

	days := distinctDaysDesc(completions)
	if len(days) == 0 {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if !days[i].Equal(days[i-1].AddDate(0, 0, -1)) {
			break
		}
		streak++
	}
	return streak
}

// StreakFor loads a worker's completion history for one habit type and
// computes the current streak.
func StreakFor(ctx context.Context, store EventStore, id WorkerID, habit HabitType) (int, error) {
	if habit == HabitGiving {
		return 0, nil
	}
	events, err := store.GetHabitsByType(ctx, id, habit)
	if err != nil {
		return 0, err
	}
	return Streak(habit, events), nil
}

// distinctDaysDesc collapses completions onto distinct UTC calendar days,
// sorted most recent first.
func distinctDaysDesc(events []HabitEvent) []time.Time {
	seen := make(map[time.Time]struct{}, len(events))
	var days []time.Time
	for _, e := range events {
		d := Day(e.CompletedAt)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}
