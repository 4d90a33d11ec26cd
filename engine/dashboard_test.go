package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifegate/workforce-engine/engine"
	"github.com/lifegate/workforce-engine/engine/store"
)

func prefer(t *testing.T, mem *store.Memory, id engine.WorkerID, habits ...engine.HabitType) {
	t.Helper()
	require.NoError(t, engine.ReplacePreferences(context.Background(), mem, id, habits))
}

func TestBuildDashboard_OnlyTrackedHabits(t *testing.T) {
	mem := store.NewMemory()
	newWorker(t, mem, "w-1", "Ada")
	prefer(t, mem, "w-1", engine.HabitFasting)

	seedHabits(t, mem, "w-1", engine.HabitFasting, 3)
	seedHabits(t, mem, "w-1", engine.HabitGiving, 2) // not tracked

	dash, err := engine.BuildDashboard(context.Background(), mem, mem, "w-1", evalTime)
	require.NoError(t, err)

	require.Len(t, dash.Summaries, 1, "untracked habit types are omitted")
	s := dash.Summaries[0]
	assert.Equal(t, engine.HabitFasting, s.Habit)
	assert.Equal(t, 3, s.MonthCount)
	assert.Equal(t, 3, s.Streak)
	require.NotNil(t, s.LastDone)
}

func TestBuildDashboard_GivingTotals(t *testing.T) {
	mem := store.NewMemory()
	newWorker(t, mem, "w-1", "Ada")
	prefer(t, mem, "w-1", engine.HabitGiving)

	ctx := context.Background()
	require.NoError(t, mem.SaveHabit(ctx, engine.HabitEvent{
		ID: "g-1", WorkerID: "w-1", Type: engine.HabitGiving,
		CompletedAt: at(3, 10, 0, 0), Amount: decimal.RequireFromString("25.50"),
	}))
	require.NoError(t, mem.SaveHabit(ctx, engine.HabitEvent{
		ID: "g-2", WorkerID: "w-1", Type: engine.HabitGiving,
		CompletedAt: at(17, 10, 0, 0), Amount: decimal.RequireFromString("100"),
	}))
	// Last month's giving does not count toward the month total.
	require.NoError(t, mem.SaveHabit(ctx, engine.HabitEvent{
		ID: "g-0", WorkerID: "w-1", Type: engine.HabitGiving,
		CompletedAt: time.Date(2026, time.July, 10, 10, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("999"),
	}))

	dash, err := engine.BuildDashboard(ctx, mem, mem, "w-1", evalTime)
	require.NoError(t, err)

	require.Len(t, dash.Summaries, 1)
	s := dash.Summaries[0]
	assert.Equal(t, 2, s.MonthCount)
	assert.Zero(t, s.Streak, "giving never has a streak")
	assert.True(t, s.GivingTotal.Equal(decimal.RequireFromString("125.50")), "got %s", s.GivingTotal)
}

func TestBuildDashboard_UnknownWorker(t *testing.T) {
	mem := store.NewMemory()
	_, err := engine.BuildDashboard(context.Background(), mem, mem, "nobody", evalTime)
	assert.ErrorIs(t, err, engine.ErrWorkerNotFound)
}

func TestReplacePreferences_FullReplaceSemantics(t *testing.T) {
	mem := store.NewMemory()
	newWorker(t, mem, "w-1", "Ada")
	ctx := context.Background()

	prefer(t, mem, "w-1", engine.HabitFasting, engine.HabitGiving)

	// Replace: fasting stays, giving goes, prayer arrives.
	require.NoError(t, engine.ReplacePreferences(ctx, mem, "w-1",
		[]engine.HabitType{engine.HabitFasting, engine.HabitNLPPrayer}))

	prefs, err := mem.ListPreferences(ctx, "w-1")
	require.NoError(t, err)

	var habits []engine.HabitType
	for _, p := range prefs {
		habits = append(habits, p.HabitType)
	}
	assert.ElementsMatch(t, []engine.HabitType{engine.HabitFasting, engine.HabitNLPPrayer}, habits)
}

func TestReplacePreferences_EmptySetClearsAll(t *testing.T) {
	mem := store.NewMemory()
	newWorker(t, mem, "w-1", "Ada")
	ctx := context.Background()

	prefer(t, mem, "w-1", engine.HabitFasting, engine.HabitGiving)
	require.NoError(t, engine.ReplacePreferences(ctx, mem, "w-1", nil))

	prefs, err := mem.ListPreferences(ctx, "w-1")
	require.NoError(t, err)
	assert.Empty(t, prefs)
}

func TestReplacePreferences_RejectsUnknownHabit(t *testing.T) {
	mem := store.NewMemory()
	newWorker(t, mem, "w-1", "Ada")
	ctx := context.Background()

	prefer(t, mem, "w-1", engine.HabitFasting)

	err := engine.ReplacePreferences(ctx, mem, "w-1", []engine.HabitType{"juggling"})
	assert.ErrorIs(t, err, engine.ErrUnknownHabitType)

	// The stored set is untouched: validation happens before any write.
	prefs, err := mem.ListPreferences(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.Equal(t, engine.HabitFasting, prefs[0].HabitType)
}

func TestRecordHabit_RejectsUnknownType(t *testing.T) {
	mem := store.NewMemory()
	_, err := engine.RecordHabit(context.Background(), mem, engine.HabitEvent{
		ID: "h-1", WorkerID: "w-1", Type: "juggling",
	})
	assert.ErrorIs(t, err, engine.ErrUnknownHabitType)
}
