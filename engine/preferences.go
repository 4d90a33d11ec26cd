package engine

import (
	"context"
	"time"
)

// =============================================================================
// HABIT PREFERENCES - Full-replace semantics
// =============================================================================

// ReplacePreferences makes the worker's stored preference set equal to the
// requested set: habit types missing from the store are added, stored ones
// absent from the request are removed. Unknown habit types reject the whole
// request before any write.
func ReplacePreferences(ctx context.Context, store WorkerStore, id WorkerID, requested []HabitType) error {
	if _, err := store.GetWorker(ctx, id); err != nil {
		return err
	}
	for _, h := range requested {
		if !ValidHabitType(h) {
			return ErrUnknownHabitType
		}
	}

	existing, err := store.ListPreferences(ctx, id)
	if err != nil {
		return err
	}

	have := make(map[HabitType]bool, len(existing))
	for _, p := range existing {
		have[p.HabitType] = true
	}
	want := make(map[HabitType]bool, len(requested))
	for _, h := range requested {
		want[h] = true
	}

	for h := range want {
		if !have[h] {
			p := HabitPreference{WorkerID: id, HabitType: h, CreatedAt: time.Now().UTC()}
			if err := store.AddPreference(ctx, p); err != nil {
				return err
			}
		}
	}
	for h := range have {
		if !want[h] {
			if err := store.RemovePreference(ctx, id, h); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordHabit validates and persists one habit completion.
func RecordHabit(ctx context.Context, store EventStore, ev HabitEvent) (HabitEvent, error) {
	if !ValidHabitType(ev.Type) {
		return HabitEvent{}, ErrUnknownHabitType
	}
	if ev.CompletedAt.IsZero() {
		ev.CompletedAt = time.Now().UTC()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if err := store.SaveHabit(ctx, ev); err != nil {
		return HabitEvent{}, err
	}
	return ev, nil
}
