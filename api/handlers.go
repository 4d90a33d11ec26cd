/*
handlers.go - HTTP handlers for the workforce API

PURPOSE:
  Thin translation layer between HTTP and the engine. Handlers parse and
  validate input, call the engine or store, serialize the result, and map
  errors to status codes. No business rules live here.

ERROR HANDLING:
  - 400: validation errors, invalid time windows, unknown habit types
  - 404: unknown worker or reward
  - 409: reward already issued for the period
  - 500: store failures and everything else

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: router setup and middleware
  - scheduler.go: the weekly batch trigger
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lifegate/workforce-engine/engine"
	"github.com/lifegate/workforce-engine/factory"
	"github.com/lifegate/workforce-engine/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Evaluator *engine.Evaluator
	Runner    *engine.Runner
	Numbers   *factory.WorkerNumberGenerator
	Logger    *zap.Logger

	validate *validator.Validate
}

// NewHandler creates a handler wired to the given collaborators.
func NewHandler(store *sqlite.Store, evaluator *engine.Evaluator, runner *engine.Runner, numbers *factory.WorkerNumberGenerator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:     store,
		Evaluator: evaluator,
		Runner:    runner,
		Numbers:   numbers,
		Logger:    logger,
		validate:  validator.New(),
	}
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Store.ListWorkers(r.Context())
	if err != nil {
		h.writeError(w, "failed to list workers", err)
		return
	}

	dtos := make([]WorkerDTO, len(workers))
	for i, worker := range workers {
		dtos[i] = toWorkerDTO(worker)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if !h.decode(w, r, &req) {
		return
	}

	if !h.Numbers.KnownTeam(req.TeamName) {
		writeErrorStatus(w, http.StatusBadRequest, "unknown team: "+req.TeamName)
		return
	}

	// Sequence within the team: existing members + 1.
	workers, err := h.Store.ListWorkers(r.Context())
	if err != nil {
		h.writeError(w, "failed to list workers", err)
		return
	}
	seq := 1
	for _, existing := range workers {
		if strings.EqualFold(existing.TeamName, req.TeamName) {
			seq++
		}
	}

	// The unique index on worker_number closes the race between two
	// concurrent creates counting the same team; on a collision, take
	// the next sequence.
	var worker engine.Worker
	for attempt := 0; ; attempt++ {
		number, err := h.Numbers.Generate(req.TeamName, seq)
		if err != nil {
			writeErrorStatus(w, http.StatusBadRequest, err.Error())
			return
		}

		worker = engine.Worker{
			ID:           engine.WorkerID(uuid.NewString()),
			Name:         req.Name,
			Email:        req.Email,
			TeamName:     req.TeamName,
			WorkerNumber: number,
			CreatedAt:    time.Now().UTC(),
		}
		err = h.Store.CreateWorker(r.Context(), worker)
		if errors.Is(err, engine.ErrWorkerNumberTaken) && attempt < 5 {
			seq++
			continue
		}
		if err != nil {
			h.writeError(w, "failed to create worker", err)
			return
		}
		break
	}
	writeJSON(w, http.StatusCreated, toWorkerDTO(worker))
}

func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	id := engine.WorkerID(chi.URLParam(r, "id"))
	worker, err := h.Store.GetWorker(r.Context(), id)
	if err != nil {
		h.writeError(w, "failed to get worker", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(worker))
}

// =============================================================================
// CHECK-IN
// =============================================================================

// CheckIn records a QR check-in. Timestamps outside the allowed window for
// the attendance type are rejected with 400 and the type-specific message.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id := engine.WorkerID(chi.URLParam(r, "id"))

	var req CheckInRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.Store.GetWorker(r.Context(), id); err != nil {
		h.writeError(w, "failed to get worker", err)
		return
	}

	at := time.Now().UTC()
	if req.Time != "" {
		parsed, err := time.Parse(time.RFC3339, req.Time)
		if err != nil {
			writeErrorStatus(w, http.StatusBadRequest, "time must be RFC 3339")
			return
		}
		at = parsed.UTC()
	}

	ev := engine.AttendanceEvent{
		ID:          engine.EventID(uuid.NewString()),
		WorkerID:    id,
		Type:        engine.AttendanceType(req.Type),
		CheckInTime: at,
	}
	saved, err := engine.RecordAttendance(r.Context(), h.Store, ev)
	if err != nil {
		h.writeError(w, "check-in rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttendanceDTO(saved))
}

// =============================================================================
// HABITS
// =============================================================================

func (h *Handler) RecordHabit(w http.ResponseWriter, r *http.Request) {
	id := engine.WorkerID(chi.URLParam(r, "id"))

	var req RecordHabitRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.Store.GetWorker(r.Context(), id); err != nil {
		h.writeError(w, "failed to get worker", err)
		return
	}

	ev := engine.HabitEvent{
		ID:       engine.EventID(uuid.NewString()),
		WorkerID: id,
		Type:     engine.HabitType(req.Type),
	}
	if req.CompletedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.CompletedAt)
		if err != nil {
			writeErrorStatus(w, http.StatusBadRequest, "completedAt must be RFC 3339")
			return
		}
		ev.CompletedAt = parsed.UTC()
	}
	if req.Amount != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			writeErrorStatus(w, http.StatusBadRequest, "amount must be a decimal number")
			return
		}
		ev.Amount = amount
	}
	ev.GivingSubType = req.GivingSubType

	saved, err := engine.RecordHabit(r.Context(), h.Store, ev)
	if err != nil {
		h.writeError(w, "failed to record habit", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHabitDTO(saved))
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	id := engine.WorkerID(chi.URLParam(r, "id"))

	dash, err := engine.BuildDashboard(r.Context(), h.Store, h.Store, id, time.Now().UTC())
	if err != nil {
		h.writeError(w, "failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(dash))
}

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	id := engine.WorkerID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetWorker(r.Context(), id); err != nil {
		h.writeError(w, "failed to get worker", err)
		return
	}
	prefs, err := h.Store.ListPreferences(r.Context(), id)
	if err != nil {
		h.writeError(w, "failed to list preferences", err)
		return
	}

	habits := make([]string, len(prefs))
	for i, p := range prefs {
		habits[i] = string(p.HabitType)
	}
	writeJSON(w, http.StatusOK, map[string][]string{"habits": habits})
}

// UpdatePreferences applies full-replace semantics: the stored set becomes
// exactly the requested set.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	id := engine.WorkerID(chi.URLParam(r, "id"))

	var req UpdatePreferencesRequest
	if !h.decode(w, r, &req) {
		return
	}

	habits := make([]engine.HabitType, len(req.Habits))
	for i, s := range req.Habits {
		habits[i] = engine.HabitType(s)
	}
	if err := engine.ReplacePreferences(r.Context(), h.Store, id, habits); err != nil {
		h.writeError(w, "failed to update preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"habits": req.Habits})
}

// =============================================================================
// EVALUATION & REWARDS
// =============================================================================

// GetEvaluation runs a read-only quota evaluation for the current month.
func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	id := engine.WorkerID(chi.URLParam(r, "id"))

	eval, err := h.Evaluator.Evaluate(r.Context(), id, time.Now().UTC())
	if err != nil {
		h.writeError(w, "failed to evaluate", err)
		return
	}
	writeJSON(w, http.StatusOK, toEvaluationDTO(eval))
}

func (h *Handler) ListRewards(w http.ResponseWriter, r *http.Request) {
	id := engine.WorkerID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetWorker(r.Context(), id); err != nil {
		h.writeError(w, "failed to get worker", err)
		return
	}
	rewards, err := h.Store.GetRewardsForWorker(r.Context(), id)
	if err != nil {
		h.writeError(w, "failed to list rewards", err)
		return
	}

	dtos := make([]RewardDTO, len(rewards))
	for i, reward := range rewards {
		dtos[i] = toRewardDTO(reward)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) RedeemReward(w http.ResponseWriter, r *http.Request) {
	id := engine.RewardID(chi.URLParam(r, "id"))

	if err := h.Store.MarkRedeemed(r.Context(), id, time.Now().UTC()); err != nil {
		h.writeError(w, "failed to redeem reward", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(engine.RewardRedeemed)})
}

// =============================================================================
// ADMIN
// =============================================================================

// RunBatch triggers an immediate batch run and records it.
func (h *Handler) RunBatch(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Runner.RunAll(r.Context())
	if err != nil {
		h.writeError(w, "batch run failed", err)
		return
	}
	if err := h.Store.SaveBatchRun(r.Context(), batchRunRecord(summary)); err != nil {
		h.Logger.Warn("failed to record batch run", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, toBatchSummaryDTO(summary))
}

func (h *Handler) ListBatchRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListBatchRuns(r.Context(), 50)
	if err != nil {
		h.writeError(w, "failed to list batch runs", err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func batchRunRecord(s engine.RunSummary) sqlite.BatchRunRecord {
	var failures []string
	for _, f := range s.Failed {
		failures = append(failures, f.Error())
	}
	return sqlite.BatchRunRecord{
		ID:          uuid.NewString(),
		Attempted:   s.Attempted,
		Succeeded:   s.Succeeded,
		Failed:      len(s.Failed),
		Issued:      s.Issued,
		Failures:    strings.Join(failures, "\n"),
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates the JSON body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// writeError maps an engine error to a status code.
func (h *Handler) writeError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, engine.ErrRewardAlreadyIssued),
		errors.Is(err, engine.ErrRewardAlreadyRedeemed):
		writeErrorStatus(w, http.StatusConflict, err.Error())
	case engine.IsNotFound(err):
		writeErrorStatus(w, http.StatusNotFound, err.Error())
	case engine.IsClientError(err):
		writeErrorStatus(w, http.StatusBadRequest, err.Error())
	default:
		h.Logger.Error(message, zap.Error(err))
		writeErrorStatus(w, http.StatusInternalServerError, message)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeErrorStatus(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
