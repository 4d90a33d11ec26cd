/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements engine.EventStore, engine.WorkerStore and engine.RewardStore
  using SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

APPEND-ONLY EVENTS:
  attendance_events and habit_events have no UPDATE or DELETE paths. Quota
  counts are recomputed from these raw rows on every evaluation; no rollup
  table exists.

REWARD IDEMPOTENCY:
  idx_rewards_worker_period is a UNIQUE index on (worker_id, period_key).
  A second insert for the same worker and month is mapped to
  engine.ErrRewardAlreadyIssued, which closes the duplicate-reward race
  between overlapping batch runs.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/workforce.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - engine/store.go: interface definitions
  - engine/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/lifegate/workforce-engine/engine"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ engine.EventStore  = (*Store)(nil)
	_ engine.WorkerStore = (*Store)(nil)
	_ engine.RewardStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		team_name TEXT NOT NULL,
		worker_number TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Worker numbers are minted from a team-scoped sequence; the index is
	-- the backstop against two concurrent creates minting the same number.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_workers_number
		ON workers(worker_number);

	-- Check-ins (append-only)
	CREATE TABLE IF NOT EXISTS attendance_events (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL REFERENCES workers(id),
		attendance_type TEXT NOT NULL,
		check_in_time TEXT NOT NULL,
		is_early INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_worker_time
		ON attendance_events(worker_id, check_in_time);

	-- Habit completions (append-only)
	CREATE TABLE IF NOT EXISTS habit_events (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL REFERENCES workers(id),
		habit_type TEXT NOT NULL,
		completed_at TEXT NOT NULL,
		amount TEXT,
		giving_sub_type TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_habits_worker_time
		ON habit_events(worker_id, completed_at);
	CREATE INDEX IF NOT EXISTS idx_habits_worker_type_time
		ON habit_events(worker_id, habit_type, completed_at DESC);

	CREATE TABLE IF NOT EXISTS habit_preferences (
		worker_id TEXT NOT NULL REFERENCES workers(id),
		habit_type TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (worker_id, habit_type)
	);

	CREATE TABLE IF NOT EXISTS rewards (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL REFERENCES workers(id),
		reward_type TEXT NOT NULL,
		status TEXT NOT NULL,
		period_key TEXT NOT NULL,
		created_at TEXT NOT NULL,
		redeemed_at TEXT
	);

	-- CRITICAL: at most one reward per worker per evaluation period.
	-- Re-running the weekly batch inside the same month must not create
	-- duplicate pending rewards.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_rewards_worker_period
		ON rewards(worker_id, period_key);

	CREATE TABLE IF NOT EXISTS batch_runs (
		id TEXT PRIMARY KEY,
		attempted INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		issued INTEGER NOT NULL,
		failures TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Timestamps are TEXT and range queries compare them lexicographically, so
// the layout must be fixed-width: a variable-width fraction (RFC3339Nano
// drops trailing zeros) would break the chronological ordering and drop
// events at the month-window bounds. Always 9 fractional digits.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// =============================================================================
// EVENT STORE
// =============================================================================

func (s *Store) SaveAttendance(ctx context.Context, ev engine.AttendanceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance_events (id, worker_id, attendance_type, check_in_time, is_early, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(ev.ID), string(ev.WorkerID), string(ev.Type),
		ev.CheckInTime.UTC().Format(timeLayout), boolToInt(ev.IsEarly),
		ev.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("%w: save attendance: %v", engine.ErrStoreFailure, err)
	}
	return nil
}

func (s *Store) GetAttendance(ctx context.Context, id engine.WorkerID, from, to time.Time) ([]engine.AttendanceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, worker_id, attendance_type, check_in_time, is_early, created_at
		FROM attendance_events
		WHERE worker_id = ? AND check_in_time >= ? AND check_in_time <= ?
		ORDER BY check_in_time`,
		string(id), from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("%w: query attendance: %v", engine.ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []engine.AttendanceEvent
	for rows.Next() {
		ev, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) SaveHabit(ctx context.Context, ev engine.HabitEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var amount, subType sql.NullString
	if ev.Type == engine.HabitGiving {
		amount = sql.NullString{String: ev.Amount.String(), Valid: true}
		if ev.GivingSubType != "" {
			subType = sql.NullString{String: ev.GivingSubType, Valid: true}
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habit_events (id, worker_id, habit_type, completed_at, amount, giving_sub_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(ev.ID), string(ev.WorkerID), string(ev.Type),
		ev.CompletedAt.UTC().Format(timeLayout), amount, subType,
		ev.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("%w: save habit: %v", engine.ErrStoreFailure, err)
	}
	return nil
}

func (s *Store) GetHabits(ctx context.Context, id engine.WorkerID, from, to time.Time) ([]engine.HabitEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, worker_id, habit_type, completed_at, amount, giving_sub_type, created_at
		FROM habit_events
		WHERE worker_id = ? AND completed_at >= ? AND completed_at <= ?
		ORDER BY completed_at`,
		string(id), from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("%w: query habits: %v", engine.ErrStoreFailure, err)
	}
	defer rows.Close()

	return scanHabits(rows)
}

func (s *Store) GetHabitsByType(ctx context.Context, id engine.WorkerID, habit engine.HabitType) ([]engine.HabitEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, worker_id, habit_type, completed_at, amount, giving_sub_type, created_at
		FROM habit_events
		WHERE worker_id = ? AND habit_type = ?
		ORDER BY completed_at DESC`,
		string(id), string(habit))
	if err != nil {
		return nil, fmt.Errorf("%w: query habits by type: %v", engine.ErrStoreFailure, err)
	}
	defer rows.Close()

	return scanHabits(rows)
}

// =============================================================================
// WORKER STORE
// =============================================================================

func (s *Store) CreateWorker(ctx context.Context, w engine.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workers (id, name, email, team_name, worker_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(w.ID), w.Name, w.Email, w.TeamName, w.WorkerNumber,
		w.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "workers.worker_number") {
			return engine.ErrWorkerNumberTaken
		}
		return fmt.Errorf("%w: create worker: %v", engine.ErrStoreFailure, err)
	}
	return nil
}

func (s *Store) GetWorker(ctx context.Context, id engine.WorkerID) (engine.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, team_name, worker_number, created_at
		FROM workers WHERE id = ?`, string(id))

	w, err := scanWorker(row)
	if err == sql.ErrNoRows {
		return engine.Worker{}, engine.ErrWorkerNotFound
	}
	if err != nil {
		return engine.Worker{}, fmt.Errorf("%w: get worker: %v", engine.ErrStoreFailure, err)
	}
	return w, nil
}

func (s *Store) ListWorkers(ctx context.Context) ([]engine.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, team_name, worker_number, created_at
		FROM workers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list workers: %v", engine.ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []engine.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan worker: %v", engine.ErrStoreFailure, err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) ListWorkerIDs(ctx context.Context) ([]engine.WorkerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM workers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list worker ids: %v", engine.ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []engine.WorkerID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan worker id: %v", engine.ErrStoreFailure, err)
		}
		out = append(out, engine.WorkerID(id))
	}
	return out, rows.Err()
}

func (s *Store) ListPreferences(ctx context.Context, id engine.WorkerID) ([]engine.HabitPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT worker_id, habit_type, created_at
		FROM habit_preferences WHERE worker_id = ? ORDER BY habit_type`, string(id))
	if err != nil {
		return nil, fmt.Errorf("%w: list preferences: %v", engine.ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []engine.HabitPreference
	for rows.Next() {
		var workerID, habit, createdAt string
		if err := rows.Scan(&workerID, &habit, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan preference: %v", engine.ErrStoreFailure, err)
		}
		created, _ := time.Parse(timeLayout, createdAt)
		out = append(out, engine.HabitPreference{
			WorkerID:  engine.WorkerID(workerID),
			HabitType: engine.HabitType(habit),
			CreatedAt: created,
		})
	}
	return out, rows.Err()
}

func (s *Store) AddPreference(ctx context.Context, p engine.HabitPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO habit_preferences (worker_id, habit_type, created_at)
		VALUES (?, ?, ?)`,
		string(p.WorkerID), string(p.HabitType), p.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("%w: add preference: %v", engine.ErrStoreFailure, err)
	}
	return nil
}

func (s *Store) RemovePreference(ctx context.Context, id engine.WorkerID, habit engine.HabitType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM habit_preferences WHERE worker_id = ? AND habit_type = ?`,
		string(id), string(habit))
	if err != nil {
		return fmt.Errorf("%w: remove preference: %v", engine.ErrStoreFailure, err)
	}
	return nil
}

// =============================================================================
// REWARD STORE
// =============================================================================

func (s *Store) SaveReward(ctx context.Context, r engine.Reward) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rewards (id, worker_id, reward_type, status, period_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(r.ID), string(r.WorkerID), r.Type, string(r.Status),
		r.PeriodKey, r.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return engine.ErrRewardAlreadyIssued
		}
		return fmt.Errorf("%w: save reward: %v", engine.ErrStoreFailure, err)
	}
	return nil
}

func (s *Store) GetRewardsForWorker(ctx context.Context, id engine.WorkerID) ([]engine.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, worker_id, reward_type, status, period_key, created_at, redeemed_at
		FROM rewards WHERE worker_id = ? ORDER BY created_at`, string(id))
	if err != nil {
		return nil, fmt.Errorf("%w: query rewards: %v", engine.ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []engine.Reward
	for rows.Next() {
		var r engine.Reward
		var rid, workerID, rewardType, status, periodKey, createdAt string
		var redeemedAt sql.NullString
		if err := rows.Scan(&rid, &workerID, &rewardType, &status, &periodKey, &createdAt, &redeemedAt); err != nil {
			return nil, fmt.Errorf("%w: scan reward: %v", engine.ErrStoreFailure, err)
		}
		r.ID = engine.RewardID(rid)
		r.WorkerID = engine.WorkerID(workerID)
		r.Type = rewardType
		r.Status = engine.RewardStatus(status)
		r.PeriodKey = periodKey
		r.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		if redeemedAt.Valid {
			t, _ := time.Parse(timeLayout, redeemedAt.String)
			r.RedeemedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) MarkRedeemed(ctx context.Context, id engine.RewardID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM rewards WHERE id = ?`, string(id)).Scan(&status)
	if err == sql.ErrNoRows {
		return engine.ErrRewardNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: mark redeemed: %v", engine.ErrStoreFailure, err)
	}
	if engine.RewardStatus(status) == engine.RewardRedeemed {
		return engine.ErrRewardAlreadyRedeemed
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE rewards SET status = ?, redeemed_at = ? WHERE id = ?`,
		string(engine.RewardRedeemed), at.UTC().Format(timeLayout), string(id))
	if err != nil {
		return fmt.Errorf("%w: mark redeemed: %v", engine.ErrStoreFailure, err)
	}
	return nil
}

// =============================================================================
// BATCH RUN RECORDS
// =============================================================================

// BatchRunRecord is one persisted batch run, for audit and UI display.
type BatchRunRecord struct {
	ID          string
	Attempted   int
	Succeeded   int
	Failed      int
	Issued      int
	Failures    string // newline-separated "workerID: error"
	StartedAt   time.Time
	CompletedAt time.Time
}

func (s *Store) SaveBatchRun(ctx context.Context, r BatchRunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_runs (id, attempted, succeeded, failed, issued, failures, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Attempted, r.Succeeded, r.Failed, r.Issued, r.Failures,
		r.StartedAt.UTC().Format(timeLayout), r.CompletedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("%w: save batch run: %v", engine.ErrStoreFailure, err)
	}
	return nil
}

func (s *Store) ListBatchRuns(ctx context.Context, limit int) ([]BatchRunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, attempted, succeeded, failed, issued, failures, started_at, completed_at
		FROM batch_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list batch runs: %v", engine.ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []BatchRunRecord
	for rows.Next() {
		var r BatchRunRecord
		var started, completed string
		if err := rows.Scan(&r.ID, &r.Attempted, &r.Succeeded, &r.Failed, &r.Issued, &r.Failures, &started, &completed); err != nil {
			return nil, fmt.Errorf("%w: scan batch run: %v", engine.ErrStoreFailure, err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.CompletedAt, _ = time.Parse(timeLayout, completed)
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorker(row rowScanner) (engine.Worker, error) {
	var w engine.Worker
	var id, createdAt string
	if err := row.Scan(&id, &w.Name, &w.Email, &w.TeamName, &w.WorkerNumber, &createdAt); err != nil {
		return engine.Worker{}, err
	}
	w.ID = engine.WorkerID(id)
	w.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return w, nil
}

func scanAttendance(row rowScanner) (engine.AttendanceEvent, error) {
	var ev engine.AttendanceEvent
	var id, workerID, attType, checkIn, createdAt string
	var isEarly int
	if err := row.Scan(&id, &workerID, &attType, &checkIn, &isEarly, &createdAt); err != nil {
		return engine.AttendanceEvent{}, fmt.Errorf("%w: scan attendance: %v", engine.ErrStoreFailure, err)
	}
	ev.ID = engine.EventID(id)
	ev.WorkerID = engine.WorkerID(workerID)
	ev.Type = engine.AttendanceType(attType)
	ev.IsEarly = isEarly != 0
	ev.CheckInTime, _ = time.Parse(timeLayout, checkIn)
	ev.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return ev, nil
}

func scanHabits(rows *sql.Rows) ([]engine.HabitEvent, error) {
	var out []engine.HabitEvent
	for rows.Next() {
		var ev engine.HabitEvent
		var id, workerID, habit, completedAt, createdAt string
		var amount, subType sql.NullString
		if err := rows.Scan(&id, &workerID, &habit, &completedAt, &amount, &subType, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan habit: %v", engine.ErrStoreFailure, err)
		}
		ev.ID = engine.EventID(id)
		ev.WorkerID = engine.WorkerID(workerID)
		ev.Type = engine.HabitType(habit)
		ev.CompletedAt, _ = time.Parse(timeLayout, completedAt)
		ev.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		if amount.Valid {
			ev.Amount, _ = decimal.NewFromString(amount.String)
		}
		if subType.Valid {
			ev.GivingSubType = subType.String
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
