package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifegate/workforce-engine/engine"
	"github.com/lifegate/workforce-engine/engine/store"
)

func TestIssue_QualifyingWorkerGetsOneRewardAndOneNotification(t *testing.T) {
	mem := store.NewMemory()
	newWorker(t, mem, "w-1", "Ada")
	seedQualifying(t, mem, "w-1")

	notifier := &recordingNotifier{}
	ev := newEvaluator(mem, notifier)

	eval, reward, err := ev.EvaluateAndIssue(context.Background(), "w-1", evalTime)
	require.NoError(t, err)
	assert.True(t, eval.Qualified)
	require.NotNil(t, reward)
	assert.Equal(t, engine.RewardPending, reward.Status)
	assert.Equal(t, "2026-08", reward.PeriodKey)

	assert.Equal(t, 1, notifier.calls)
	assert.Contains(t, notifier.subjects[0], "Ada")

	rewards, err := mem.GetRewardsForWorker(context.Background(), "w-1")
	require.NoError(t, err)
	require.Len(t, rewards, 1)
}

func TestIssue_SecondRunSamePeriodIsNoOp(t *testing.T) {
	mem := store.NewMemory()
	newWorker(t, mem, "w-1", "Ada")
	seedQualifying(t, mem, "w-1")

	notifier := &recordingNotifier{}
	ev := newEvaluator(mem, notifier)
	ctx := context.Background()

	_, first, err := ev.EvaluateAndIssue(ctx, "w-1", evalTime)
	require.NoError(t, err)
	require.NotNil(t, first)

	// A weekly batch re-running inside the same month must not duplicate.
	_, second, err := ev.EvaluateAndIssue(ctx, "w-1", evalTime)
	require.NoError(t, err)
	assert.Nil(t, second)

	rewards, err := mem.GetRewardsForWorker(ctx, "w-1")
	require.NoError(t, err)
	assert.Len(t, rewards, 1)
	assert.Equal(t, 1, notifier.calls, "no second notification")
}

func TestIssue_NotificationFailureDoesNotRollBackReward(t *testing.T) {
	mem := store.NewMemory()
	newWorker(t, mem, "w-1", "Ada")
	seedQualifying(t, mem, "w-1")

	notifier := &recordingNotifier{fail: true}
	ev := newEvaluator(mem, notifier)

	_, reward, err := ev.EvaluateAndIssue(context.Background(), "w-1", evalTime)
	require.NoError(t, err, "notification failure is not the caller's problem")
	require.NotNil(t, reward)
	assert.Equal(t, 1, notifier.calls, "delivery was attempted exactly once")

	rewards, err := mem.GetRewardsForWorker(context.Background(), "w-1")
	require.NoError(t, err)
	assert.Len(t, rewards, 1, "reward persists despite failed notification")
}

func TestSaveReward_DuplicatePeriodRejected(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	first := engine.Reward{
		ID: "r-1", WorkerID: "w-1", Type: engine.RewardTypeMonthly,
		Status: engine.RewardPending, PeriodKey: "2026-08",
	}
	require.NoError(t, mem.SaveReward(ctx, first))

	dup := first
	dup.ID = "r-2"
	err := mem.SaveReward(ctx, dup)
	assert.ErrorIs(t, err, engine.ErrRewardAlreadyIssued)

	// A different month is fine.
	next := first
	next.ID = "r-3"
	next.PeriodKey = "2026-09"
	assert.NoError(t, mem.SaveReward(ctx, next))
}

func TestMarkRedeemed(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.SaveReward(ctx, engine.Reward{
		ID: "r-1", WorkerID: "w-1", Type: engine.RewardTypeMonthly,
		Status: engine.RewardPending, PeriodKey: "2026-08",
	}))

	require.NoError(t, mem.MarkRedeemed(ctx, "r-1", evalTime))

	rewards, err := mem.GetRewardsForWorker(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	assert.Equal(t, engine.RewardRedeemed, rewards[0].Status)
	require.NotNil(t, rewards[0].RedeemedAt)

	assert.ErrorIs(t, mem.MarkRedeemed(ctx, "r-1", evalTime), engine.ErrRewardAlreadyRedeemed)
	assert.ErrorIs(t, mem.MarkRedeemed(ctx, "missing", evalTime), engine.ErrRewardNotFound)
}
