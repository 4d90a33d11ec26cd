// Package store provides in-memory store implementations (for testing/dev).
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lifegate/workforce-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of all store interfaces
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	workers     map[engine.WorkerID]engine.Worker
	workerOrder []engine.WorkerID
	attendance  map[engine.WorkerID][]engine.AttendanceEvent
	habits      map[engine.WorkerID][]engine.HabitEvent
	prefs       map[engine.WorkerID]map[engine.HabitType]engine.HabitPreference
	rewards     map[engine.RewardID]engine.Reward
	rewardKeys  map[string]bool            // workerID|periodKey
	numbers     map[string]engine.WorkerID // worker number -> owner
}

var (
	_ engine.EventStore  = (*Memory)(nil)
	_ engine.WorkerStore = (*Memory)(nil)
	_ engine.RewardStore = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		workers:    make(map[engine.WorkerID]engine.Worker),
		attendance: make(map[engine.WorkerID][]engine.AttendanceEvent),
		habits:     make(map[engine.WorkerID][]engine.HabitEvent),
		prefs:      make(map[engine.WorkerID]map[engine.HabitType]engine.HabitPreference),
		rewards:    make(map[engine.RewardID]engine.Reward),
		rewardKeys: make(map[string]bool),
		numbers:    make(map[string]engine.WorkerID),
	}
}

// =============================================================================
// EVENT STORE
// =============================================================================

func (m *Memory) SaveAttendance(_ context.Context, ev engine.AttendanceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendance[ev.WorkerID] = append(m.attendance[ev.WorkerID], ev)
	return nil
}

func (m *Memory) GetAttendance(_ context.Context, id engine.WorkerID, from, to time.Time) ([]engine.AttendanceEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.AttendanceEvent
	for _, ev := range m.attendance[id] {
		if !ev.CheckInTime.Before(from) && !ev.CheckInTime.After(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *Memory) SaveHabit(_ context.Context, ev engine.HabitEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.habits[ev.WorkerID] = append(m.habits[ev.WorkerID], ev)
	return nil
}

func (m *Memory) GetHabits(_ context.Context, id engine.WorkerID, from, to time.Time) ([]engine.HabitEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.HabitEvent
	for _, ev := range m.habits[id] {
		if !ev.CompletedAt.Before(from) && !ev.CompletedAt.After(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *Memory) GetHabitsByType(_ context.Context, id engine.WorkerID, habit engine.HabitType) ([]engine.HabitEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.HabitEvent
	for _, ev := range m.habits[id] {
		if ev.Type == habit {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

// =============================================================================
// WORKER STORE
// =============================================================================

func (m *Memory) CreateWorker(_ context.Context, w engine.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.WorkerNumber != "" {
		if owner, taken := m.numbers[w.WorkerNumber]; taken && owner != w.ID {
			return engine.ErrWorkerNumberTaken
		}
		m.numbers[w.WorkerNumber] = w.ID
	}
	if _, exists := m.workers[w.ID]; !exists {
		m.workerOrder = append(m.workerOrder, w.ID)
	}
	m.workers[w.ID] = w
	return nil
}

func (m *Memory) GetWorker(_ context.Context, id engine.WorkerID) (engine.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workers[id]
	if !ok {
		return engine.Worker{}, engine.ErrWorkerNotFound
	}
	return w, nil
}

func (m *Memory) ListWorkers(_ context.Context) ([]engine.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Worker, 0, len(m.workerOrder))
	for _, id := range m.workerOrder {
		out = append(out, m.workers[id])
	}
	return out, nil
}

func (m *Memory) ListWorkerIDs(_ context.Context) ([]engine.WorkerID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.WorkerID, len(m.workerOrder))
	copy(out, m.workerOrder)
	return out, nil
}

func (m *Memory) ListPreferences(_ context.Context, id engine.WorkerID) ([]engine.HabitPreference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.HabitPreference
	for _, h := range engine.AllHabitTypes {
		if p, ok := m.prefs[id][h]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) AddPreference(_ context.Context, p engine.HabitPreference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prefs[p.WorkerID] == nil {
		m.prefs[p.WorkerID] = make(map[engine.HabitType]engine.HabitPreference)
	}
	m.prefs[p.WorkerID][p.HabitType] = p
	return nil
}

func (m *Memory) RemovePreference(_ context.Context, id engine.WorkerID, habit engine.HabitType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.prefs[id], habit)
	return nil
}

// =============================================================================
// REWARD STORE
// =============================================================================

func rewardKey(id engine.WorkerID, period string) string {
	return string(id) + "|" + period
}

func (m *Memory) SaveReward(_ context.Context, r engine.Reward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := rewardKey(r.WorkerID, r.PeriodKey)
	if m.rewardKeys[k] {
		return engine.ErrRewardAlreadyIssued
	}
	m.rewardKeys[k] = true
	m.rewards[r.ID] = r
	return nil
}

func (m *Memory) GetRewardsForWorker(_ context.Context, id engine.WorkerID) ([]engine.Reward, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Reward
	for _, r := range m.rewards {
		if r.WorkerID == id {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) MarkRedeemed(_ context.Context, id engine.RewardID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rewards[id]
	if !ok {
		return engine.ErrRewardNotFound
	}
	if r.Status == engine.RewardRedeemed {
		return engine.ErrRewardAlreadyRedeemed
	}
	r.Status = engine.RewardRedeemed
	r.RedeemedAt = &at
	m.rewards[id] = r
	return nil
}
