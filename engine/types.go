/*
Package engine provides the reward-eligibility and habit-aggregation core.

PURPOSE:
  This package contains the rule engine that turns raw time-stamped events
  (attendance check-ins, habit completions) into monthly quota counts,
  consecutive-day streaks, and reward issuance decisions. It is deliberately
  persistence-agnostic: all reads and writes go through the narrow store
  interfaces in store.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - AttendanceEvent: one immutable check-in row per worker per service
  - HabitEvent: one immutable habit completion (Giving carries an amount)
  - Worker / HabitPreference: workforce records and opt-in tracking sets
  - Reward: an earned benefit, at most one per worker per period

DESIGN PRINCIPLES:
  1. Immutability: events are append-only; counts are always recomputed
     from raw rows, never read from a persisted rollup
  2. Precision: Giving amounts use decimal.Decimal, never float64
  3. Explicit errors: no exceptions-as-control-flow, see errors.go

SEE ALSO:
  - window.go: attendance time-window classification
  - quota.go:  monthly quota evaluation
  - streak.go: consecutive-day streak calculation
  - reward.go: reward issuance + notification side effect
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkerID string
type RewardID string
type EventID string

// =============================================================================
// ATTENDANCE
// =============================================================================

// AttendanceType identifies which gathering a check-in belongs to.
type AttendanceType string

const (
	SundayService         AttendanceType = "sunday_service"
	MidweekService        AttendanceType = "midweek_service"
	WorkersMeeting        AttendanceType = "workers_meeting"
	SpecialServiceMeeting AttendanceType = "special_service_meeting"
)

// AllAttendanceTypes lists every known attendance type.
var AllAttendanceTypes = []AttendanceType{
	SundayService, MidweekService, WorkersMeeting, SpecialServiceMeeting,
}

// ValidAttendanceType reports whether t is a known attendance type.
func ValidAttendanceType(t AttendanceType) bool {
	for _, a := range AllAttendanceTypes {
		if a == t {
			return true
		}
	}
	return false
}

// AttendanceEvent is a single check-in. One row per check-in, immutable
// once created. CheckInTime is UTC.
type AttendanceEvent struct {
	ID          EventID
	WorkerID    WorkerID
	Type        AttendanceType
	CheckInTime time.Time
	IsEarly     bool
	CreatedAt   time.Time
}

// =============================================================================
// HABITS
// =============================================================================

// HabitType identifies a tracked spiritual habit.
type HabitType string

const (
	HabitGiving     HabitType = "giving"
	HabitFasting    HabitType = "fasting"
	HabitBibleStudy HabitType = "bible_study"
	HabitNLPPrayer  HabitType = "nlp_prayer"
	HabitDevotional HabitType = "devotionals"
)

// AllHabitTypes lists every tracked habit type, in dashboard order.
var AllHabitTypes = []HabitType{
	HabitGiving, HabitFasting, HabitBibleStudy, HabitNLPPrayer, HabitDevotional,
}

// ValidHabitType reports whether t is a known habit type.
func ValidHabitType(t HabitType) bool {
	for _, h := range AllHabitTypes {
		if h == t {
			return true
		}
	}
	return false
}

// HabitEvent is a single habit completion. Amount and GivingSubType are
// only populated for HabitGiving.
type HabitEvent struct {
	ID            EventID
	WorkerID      WorkerID
	Type          HabitType
	CompletedAt   time.Time
	Amount        decimal.Decimal
	GivingSubType string
	CreatedAt     time.Time
}

// HabitPreference marks a habit type a worker has opted to track.
// The set is maintained with full-replace semantics (see preferences.go).
type HabitPreference struct {
	WorkerID  WorkerID
	HabitType HabitType
	CreatedAt time.Time
}

// =============================================================================
// WORKERS
// =============================================================================

type Worker struct {
	ID           WorkerID
	Name         string
	Email        string
	TeamName     string
	WorkerNumber string
	CreatedAt    time.Time
}

// =============================================================================
// REWARDS
// =============================================================================

type RewardStatus string

const (
	RewardPending  RewardStatus = "pending"
	RewardRedeemed RewardStatus = "redeemed"
)

// Reward is an earned benefit. PeriodKey ("YYYY-MM") is the idempotency
// key: the reward store enforces at most one reward per worker per period.
type Reward struct {
	ID         RewardID
	WorkerID   WorkerID
	Type       string
	Status     RewardStatus
	PeriodKey  string
	CreatedAt  time.Time
	RedeemedAt *time.Time
}
