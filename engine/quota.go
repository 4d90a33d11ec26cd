/*
quota.go - Monthly quota evaluation and reward eligibility

PURPOSE:
  For one worker and one calendar month, count attendance events by type and
  habit events by type, then decide reward eligibility. Evaluation is
  read-only; issuance is a separate step delegated to the Issuer.

QUALIFICATION (AND of all):
  totalAttendance >= 4, NLPPrayer >= 20, BibleStudy >= 20,
  Devotionals >= 20, Fasting >= 8, Giving >= 4

  totalAttendance = Sunday + Midweek + SpecialServiceMeeting check-ins.
  WorkersMeeting check-ins are reported in the breakdown but do not feed
  the total.

  The thresholds are fixed business constants. They are deliberately not
  configurable per call; externalize to config if that ever changes.

IDEMPOTENCY:
  Counts are recomputed from raw events on every run, so evaluating twice
  against an unchanged event set yields identical results. Issuance is made
  idempotent by the reward store's (worker, period) uniqueness plus the
  per-worker lock below, which stops two concurrent evaluations of the same
  worker from interleaving their read-then-issue sequences.

SEE ALSO:
  - reward.go: issuance + notification
  - batch.go:  iterates workers and calls EvaluateAndIssue
*/
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Monthly quota thresholds. Magic business constants from the reward rules.
const (
	QuotaAttendance  = 4
	QuotaNLPPrayer   = 20
	QuotaBibleStudy  = 20
	QuotaDevotionals = 20
	QuotaFasting     = 8
	QuotaGiving      = 4
)

// AttendanceCounts is the per-type attendance breakdown for one month.
type AttendanceCounts struct {
	Sunday         int
	Midweek        int
	Special        int
	WorkersMeeting int
	Early          int
}

// Total is the attendance figure the quota predicate checks.
func (c AttendanceCounts) Total() int { return c.Sunday + c.Midweek + c.Special }

// HabitCounts is the per-type habit completion count for one month.
type HabitCounts struct {
	NLPPrayer   int
	BibleStudy  int
	Devotionals int
	Fasting     int
	Giving      int
}

// Evaluation is the result of one monthly quota run for one worker.
type Evaluation struct {
	WorkerID   WorkerID
	Period     Period
	Attendance AttendanceCounts
	Habits     HabitCounts
	Qualified  bool
}

// Shortfalls lists the quotas the worker has not yet met, in a fixed order.
// Empty for a qualifying evaluation.
func (e Evaluation) Shortfalls() []string {
	var out []string
	add := func(name string, have, want int) {
		if have < want {
			out = append(out, fmt.Sprintf("%s %d/%d", name, have, want))
		}
	}
	add("attendance", e.Attendance.Total(), QuotaAttendance)
	add("NLP prayer", e.Habits.NLPPrayer, QuotaNLPPrayer)
	add("bible study", e.Habits.BibleStudy, QuotaBibleStudy)
	add("devotionals", e.Habits.Devotionals, QuotaDevotionals)
	add("fasting", e.Habits.Fasting, QuotaFasting)
	add("giving", e.Habits.Giving, QuotaGiving)
	return out
}

// =============================================================================
// EVALUATOR
// =============================================================================

// Evaluator runs the monthly quota rules. Safe for concurrent use; a
// per-worker lock serializes evaluate-then-issue for the same worker.
type Evaluator struct {
	Events  EventStore
	Workers WorkerStore
	Issuer  *Issuer

	mu    sync.Mutex
	locks map[WorkerID]*sync.Mutex
}

func NewEvaluator(events EventStore, workers WorkerStore, issuer *Issuer) *Evaluator {
	return &Evaluator{
		Events:  events,
		Workers: workers,
		Issuer:  issuer,
		locks:   make(map[WorkerID]*sync.Mutex),
	}
}

func (ev *Evaluator) lockFor(id WorkerID) *sync.Mutex {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	l, ok := ev.locks[id]
	if !ok {
		l = &sync.Mutex{}
		ev.locks[id] = l
	}
	return l
}

// Evaluate runs the quota rules for the calendar month containing asOf.
// Read-only: no side effect regardless of the verdict.
func (ev *Evaluator) Evaluate(ctx context.Context, id WorkerID, asOf time.Time) (Evaluation, error) {
	if _, err := ev.Workers.GetWorker(ctx, id); err != nil {
		return Evaluation{}, err
	}

	period := MonthOf(asOf)

	attendance, err := ev.Events.GetAttendance(ctx, id, period.Start, period.End)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: reading attendance: %w", ErrStoreFailure, err)
	}
	habits, err := ev.Events.GetHabits(ctx, id, period.Start, period.End)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: reading habits: %w", ErrStoreFailure, err)
	}

	result := Evaluation{
		WorkerID:   id,
		Period:     period,
		Attendance: countAttendance(attendance),
		Habits:     countHabits(habits),
	}
	result.Qualified = qualifies(result)
	return result, nil
}

// EvaluateAndIssue evaluates and, for a qualifying worker, delegates to the
// Issuer. Returns the evaluation and the reward if one was newly issued;
// the reward is nil when the worker does not qualify or was already
// rewarded for the period.
func (ev *Evaluator) EvaluateAndIssue(ctx context.Context, id WorkerID, asOf time.Time) (Evaluation, *Reward, error) {
	l := ev.lockFor(id)
	l.Lock()
	defer l.Unlock()

	result, err := ev.Evaluate(ctx, id, asOf)
	if err != nil {
		return Evaluation{}, nil, err
	}
	if !result.Qualified {
		return result, nil, nil
	}

	reward, err := ev.Issuer.Issue(ctx, result)
	if err != nil {
		if IsClientError(err) {
			// Already issued this period: the earlier run won.
			return result, nil, nil
		}
		return result, nil, err
	}
	return result, &reward, nil
}

func qualifies(e Evaluation) bool {
	return e.Attendance.Total() >= QuotaAttendance &&
		e.Habits.NLPPrayer >= QuotaNLPPrayer &&
		e.Habits.BibleStudy >= QuotaBibleStudy &&
		e.Habits.Devotionals >= QuotaDevotionals &&
		e.Habits.Fasting >= QuotaFasting &&
		e.Habits.Giving >= QuotaGiving
}

func countAttendance(events []AttendanceEvent) AttendanceCounts {
	var c AttendanceCounts
	for _, e := range events {
		switch e.Type {
		case SundayService:
			c.Sunday++
		case MidweekService:
			c.Midweek++
		case SpecialServiceMeeting:
			c.Special++
		case WorkersMeeting:
			c.WorkersMeeting++
		}
		if e.IsEarly {
			c.Early++
		}
	}
	return c
}

func countHabits(events []HabitEvent) HabitCounts {
	var c HabitCounts
	for _, e := range events {
		switch e.Type {
		case HabitNLPPrayer:
			c.NLPPrayer++
		case HabitBibleStudy:
			c.BibleStudy++
		case HabitDevotional:
			c.Devotionals++
		case HabitFasting:
			c.Fasting++
		case HabitGiving:
			c.Giving++
		}
	}
	return c
}
