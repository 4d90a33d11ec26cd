package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lifegate/workforce-engine/api"
	"github.com/lifegate/workforce-engine/engine"
	"github.com/lifegate/workforce-engine/factory"
	"github.com/lifegate/workforce-engine/notify"
	"github.com/lifegate/workforce-engine/store/sqlite"
)

func newTestAPI(t *testing.T) (*sqlite.Store, http.Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := zap.NewNop()
	issuer := engine.NewIssuer(store, store, notify.NewConsole(logger), logger)
	evaluator := engine.NewEvaluator(store, store, issuer)
	runner := engine.NewRunner(store, evaluator, logger)
	numbers := factory.NewWorkerNumberGenerator("LGW", factory.DefaultTeamCodes)

	h := api.NewHandler(store, evaluator, runner, numbers, logger)
	return store, api.NewRouter(h)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func seedWorker(t *testing.T, store *sqlite.Store, id engine.WorkerID, number string) {
	t.Helper()
	require.NoError(t, store.CreateWorker(context.Background(), engine.Worker{
		ID: id, Name: "Ada", Email: "ada@example.org",
		TeamName: "Media", WorkerNumber: number,
		CreatedAt: time.Now().UTC(),
	}))
}

func TestCreateWorker_AssignsTeamScopedNumbers(t *testing.T) {
	_, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/workers", map[string]string{
		"name": "Ada", "email": "ada@example.org", "teamName": "Media",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var first struct {
		ID           string `json:"id"`
		WorkerNumber string `json:"workerNumber"`
	}
	decodeBody(t, rec, &first)
	assert.Equal(t, "LGW-MED-0001", first.WorkerNumber)
	assert.NotEmpty(t, first.ID)

	// Second member of the same team gets the next sequence.
	rec = doJSON(t, router, http.MethodPost, "/api/workers", map[string]string{
		"name": "Ben", "email": "ben@example.org", "teamName": "media",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var second struct {
		WorkerNumber string `json:"workerNumber"`
	}
	decodeBody(t, rec, &second)
	assert.Equal(t, "LGW-MED-0002", second.WorkerNumber)

	// A different team starts at 0001.
	rec = doJSON(t, router, http.MethodPost, "/api/workers", map[string]string{
		"name": "Cleo", "email": "cleo@example.org", "teamName": "Choir",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var third struct {
		WorkerNumber string `json:"workerNumber"`
	}
	decodeBody(t, rec, &third)
	assert.Equal(t, "LGW-CHR-0001", third.WorkerNumber)
}

// A worker number minted from the team count can already be taken (e.g. a
// concurrent create, or an out-of-band import). The handler must move on to
// the next sequence instead of failing.
func TestCreateWorker_SkipsTakenNumbers(t *testing.T) {
	store, router := newTestAPI(t)
	seedWorker(t, store, "w-1", "LGW-MED-0002")

	// One existing Media worker -> sequence 2 -> LGW-MED-0002, which is
	// taken; the retry lands on 0003.
	rec := doJSON(t, router, http.MethodPost, "/api/workers", map[string]string{
		"name": "Ben", "email": "ben@example.org", "teamName": "Media",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		WorkerNumber string `json:"workerNumber"`
	}
	decodeBody(t, rec, &created)
	assert.Equal(t, "LGW-MED-0003", created.WorkerNumber)
}

func TestCreateWorker_RejectsBadInput(t *testing.T) {
	_, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/workers", map[string]string{
		"name": "Ada", "email": "ada@example.org", "teamName": "Basketweaving",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/workers", map[string]string{
		"name": "Ada", "email": "not-an-email", "teamName": "Media",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/workers", map[string]string{
		"email": "ada@example.org", "teamName": "Media",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckIn(t *testing.T) {
	store, router := newTestAPI(t)
	seedWorker(t, store, "w-1", "LGW-MED-0001")

	// Sunday 2026-08-02, 08:30 UTC: valid and early.
	rec := doJSON(t, router, http.MethodPost, "/api/workers/w-1/checkin", map[string]string{
		"type": string(engine.SundayService),
		"time": "2026-08-02T08:30:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var ev struct {
		Type    string `json:"type"`
		IsEarly bool   `json:"isEarly"`
	}
	decodeBody(t, rec, &ev)
	assert.Equal(t, string(engine.SundayService), ev.Type)
	assert.True(t, ev.IsEarly)

	// Sunday evening, after the window closes.
	rec = doJSON(t, router, http.MethodPost, "/api/workers/w-1/checkin", map[string]string{
		"type": string(engine.SundayService),
		"time": "2026-08-02T20:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Contains(t, body["error"], "invalid time window")

	rec = doJSON(t, router, http.MethodPost, "/api/workers/w-1/checkin", map[string]string{
		"type": string(engine.SundayService),
		"time": "yesterday",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown attendance types must not slip through as unrestricted
	// check-ins.
	rec = doJSON(t, router, http.MethodPost, "/api/workers/w-1/checkin", map[string]string{
		"type": "prayer_walk",
		"time": "2026-08-02T08:30:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/workers/nobody/checkin", map[string]string{
		"type": string(engine.SundayService),
		"time": "2026-08-02T08:30:00Z",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordHabit(t *testing.T) {
	store, router := newTestAPI(t)
	seedWorker(t, store, "w-1", "LGW-MED-0001")

	rec := doJSON(t, router, http.MethodPost, "/api/workers/w-1/habits", map[string]string{
		"type":          string(engine.HabitGiving),
		"completedAt":   "2026-08-03T10:00:00Z",
		"amount":        "50.00",
		"givingSubType": "tithe",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var ev struct {
		Amount        string `json:"amount"`
		GivingSubType string `json:"givingSubType"`
	}
	decodeBody(t, rec, &ev)
	assert.Equal(t, "50", ev.Amount)
	assert.Equal(t, "tithe", ev.GivingSubType)

	rec = doJSON(t, router, http.MethodPost, "/api/workers/w-1/habits", map[string]string{
		"type": "levitation",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/workers/w-1/habits", map[string]string{
		"type":   string(engine.HabitGiving),
		"amount": "lots",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreferencesRoundTrip(t *testing.T) {
	store, router := newTestAPI(t)
	seedWorker(t, store, "w-1", "LGW-MED-0001")

	rec := doJSON(t, router, http.MethodPut, "/api/workers/w-1/preferences", map[string][]string{
		"habits": {string(engine.HabitFasting), string(engine.HabitGiving)},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/workers/w-1/preferences", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string][]string
	decodeBody(t, rec, &got)
	assert.ElementsMatch(t, []string{string(engine.HabitFasting), string(engine.HabitGiving)}, got["habits"])

	// Unknown habit types are rejected without changing the stored set.
	rec = doJSON(t, router, http.MethodPut, "/api/workers/w-1/preferences", map[string][]string{
		"habits": {"levitation"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/workers/w-1/preferences", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &got)
	assert.Len(t, got["habits"], 2)
}

func TestGetEvaluation(t *testing.T) {
	store, router := newTestAPI(t)
	seedWorker(t, store, "w-1", "LGW-MED-0001")

	rec := doJSON(t, router, http.MethodGet, "/api/workers/w-1/evaluation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var eval struct {
		WorkerID  string `json:"workerId"`
		Period    string `json:"period"`
		Qualified bool   `json:"qualified"`
	}
	decodeBody(t, rec, &eval)
	assert.Equal(t, "w-1", eval.WorkerID)
	assert.Equal(t, engine.MonthOf(time.Now().UTC()).Key(), eval.Period)
	assert.False(t, eval.Qualified)

	rec = doJSON(t, router, http.MethodGet, "/api/workers/nobody/evaluation", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRedeemReward(t *testing.T) {
	store, router := newTestAPI(t)
	seedWorker(t, store, "w-1", "LGW-MED-0001")
	require.NoError(t, store.SaveReward(context.Background(), engine.Reward{
		ID: "r-1", WorkerID: "w-1", Type: engine.RewardTypeMonthly,
		Status: engine.RewardPending, PeriodKey: "2026-08",
		CreatedAt: time.Now().UTC(),
	}))

	rec := doJSON(t, router, http.MethodPost, "/api/rewards/r-1/redeem", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rewards := doJSON(t, router, http.MethodGet, "/api/workers/w-1/rewards", nil)
	require.Equal(t, http.StatusOK, rewards.Code)
	var list []struct {
		Status     string `json:"status"`
		RedeemedAt string `json:"redeemedAt"`
	}
	decodeBody(t, rewards, &list)
	require.Len(t, list, 1)
	assert.Equal(t, string(engine.RewardRedeemed), list[0].Status)
	assert.NotEmpty(t, list[0].RedeemedAt)

	// Already redeemed is a conflict, not a missing reward.
	rec = doJSON(t, router, http.MethodPost, "/api/rewards/r-1/redeem", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/rewards/missing/redeem", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunBatchAndListRuns(t *testing.T) {
	store, router := newTestAPI(t)
	for i := 1; i <= 3; i++ {
		seedWorker(t, store, engine.WorkerID(fmt.Sprintf("w-%d", i)),
			fmt.Sprintf("LGW-MED-%04d", i))
	}

	rec := doJSON(t, router, http.MethodPost, "/api/admin/batch", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Attempted int      `json:"attempted"`
		Succeeded int      `json:"succeeded"`
		Issued    int      `json:"issued"`
		Failed    []string `json:"failed"`
	}
	decodeBody(t, rec, &summary)
	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Zero(t, summary.Issued)
	assert.Empty(t, summary.Failed)

	rec = doJSON(t, router, http.MethodGet, "/api/admin/batch/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []struct {
		Attempted int `json:"Attempted"`
	}
	decodeBody(t, rec, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].Attempted)
}
