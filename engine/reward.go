/*
reward.go - Reward issuance and the notification side effect

PURPOSE:
  Persist a reward for a qualifying worker and send a congratulatory
  notification. The two steps are independent: a notification failure is
  logged and never rolls back the persisted reward. Any delivery retry
  belongs to the notification collaborator, not here.

IDEMPOTENCY:
  The reward carries a period key ("YYYY-MM"). The reward store enforces
  uniqueness on (worker, period) and returns ErrRewardAlreadyIssued on
  conflict, so re-running the batch within the same month cannot create
  duplicate pending rewards.
*/
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RewardTypeMonthly is the reward granted for meeting every monthly quota.
const RewardTypeMonthly = "monthly_faithfulness_voucher"

// Issuer creates reward records and triggers notifications.
type Issuer struct {
	Rewards  RewardStore
	Workers  WorkerStore
	Notifier Notifier
	Logger   *zap.Logger
}

func NewIssuer(rewards RewardStore, workers WorkerStore, notifier Notifier, logger *zap.Logger) *Issuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Issuer{Rewards: rewards, Workers: workers, Notifier: notifier, Logger: logger}
}

// Issue persists one reward for the evaluation's period and sends a
// notification. Returns ErrRewardAlreadyIssued (via the store) when the
// period was already rewarded. A store write failure is surfaced to the
// caller; a notification failure is not.
func (i *Issuer) Issue(ctx context.Context, eval Evaluation) (Reward, error) {
	worker, err := i.Workers.GetWorker(ctx, eval.WorkerID)
	if err != nil {
		return Reward{}, err
	}

	reward := Reward{
		ID:        RewardID(uuid.NewString()),
		WorkerID:  eval.WorkerID,
		Type:      RewardTypeMonthly,
		Status:    RewardPending,
		PeriodKey: eval.Period.Key(),
		CreatedAt: time.Now().UTC(),
	}

	if err := i.Rewards.SaveReward(ctx, reward); err != nil {
		return Reward{}, err
	}

	i.Logger.Info("reward issued",
		zap.String("worker_id", string(eval.WorkerID)),
		zap.String("period", reward.PeriodKey),
		zap.String("reward_id", string(reward.ID)))

	subject, body := composeNotification(worker, eval)
	if i.Notifier != nil {
		if err := i.Notifier.Notify(ctx, worker, subject, body); err != nil {
			// Non-fatal: the reward stands.
			i.Logger.Warn("reward notification failed",
				zap.String("worker_id", string(eval.WorkerID)),
				zap.Error(err))
		}
	}

	return reward, nil
}

// composeNotification builds the congratulatory message with the worker's
// per-category counts for the period.
func composeNotification(w Worker, eval Evaluation) (subject, body string) {
	subject = fmt.Sprintf("Congratulations %s - %s reward earned", w.Name, eval.Period.Key())

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", w.Name)
	fmt.Fprintf(&b, "Well done! You met every faithfulness quota for %s and a reward voucher is on its way.\n\n", eval.Period.Key())
	fmt.Fprintf(&b, "Your month at a glance:\n")
	fmt.Fprintf(&b, "  Services attended: %d (Sunday %d, midweek %d, special %d, early %d)\n",
		eval.Attendance.Total(), eval.Attendance.Sunday, eval.Attendance.Midweek,
		eval.Attendance.Special, eval.Attendance.Early)
	fmt.Fprintf(&b, "  NLP prayer: %d\n", eval.Habits.NLPPrayer)
	fmt.Fprintf(&b, "  Bible study: %d\n", eval.Habits.BibleStudy)
	fmt.Fprintf(&b, "  Devotionals: %d\n", eval.Habits.Devotionals)
	fmt.Fprintf(&b, "  Fasting: %d\n", eval.Habits.Fasting)
	fmt.Fprintf(&b, "  Giving: %d\n\n", eval.Habits.Giving)
	fmt.Fprintf(&b, "Thank you for your service.\n")
	return subject, b.String()
}
