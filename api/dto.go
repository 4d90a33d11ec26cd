package api

import (
	"time"

	"github.com/lifegate/workforce-engine/engine"
)

// =============================================================================
// REQUEST DTOs - validated with go-playground/validator
// =============================================================================

type CreateWorkerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	TeamName string `json:"teamName" validate:"required"`
}

type CheckInRequest struct {
	Type string `json:"type" validate:"required"`
	// Time is optional; empty means "now". RFC 3339, UTC.
	Time string `json:"time" validate:"omitempty"`
}

type RecordHabitRequest struct {
	Type          string `json:"type" validate:"required"`
	CompletedAt   string `json:"completedAt" validate:"omitempty"`
	Amount        string `json:"amount" validate:"omitempty"`
	GivingSubType string `json:"givingSubType" validate:"omitempty"`
}

type UpdatePreferencesRequest struct {
	Habits []string `json:"habits" validate:"required"`
}

// =============================================================================
// RESPONSE DTOs
// =============================================================================

type WorkerDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	TeamName     string `json:"teamName"`
	WorkerNumber string `json:"workerNumber"`
	CreatedAt    string `json:"createdAt"`
}

type AttendanceEventDTO struct {
	ID          string `json:"id"`
	WorkerID    string `json:"workerId"`
	Type        string `json:"type"`
	CheckInTime string `json:"checkInTime"`
	IsEarly     bool   `json:"isEarly"`
}

type HabitEventDTO struct {
	ID            string `json:"id"`
	WorkerID      string `json:"workerId"`
	Type          string `json:"type"`
	CompletedAt   string `json:"completedAt"`
	Amount        string `json:"amount,omitempty"`
	GivingSubType string `json:"givingSubType,omitempty"`
}

type EvaluationDTO struct {
	WorkerID    string   `json:"workerId"`
	Period      string   `json:"period"`
	Attendance  int      `json:"attendance"`
	Sunday      int      `json:"sunday"`
	Midweek     int      `json:"midweek"`
	Special     int      `json:"special"`
	Early       int      `json:"early"`
	NLPPrayer   int      `json:"nlpPrayer"`
	BibleStudy  int      `json:"bibleStudy"`
	Devotionals int      `json:"devotionals"`
	Fasting     int      `json:"fasting"`
	Giving      int      `json:"giving"`
	Qualified   bool     `json:"qualified"`
	Shortfalls  []string `json:"shortfalls,omitempty"`
}

type HabitSummaryDTO struct {
	Habit       string `json:"habit"`
	MonthCount  int    `json:"monthCount"`
	Streak      int    `json:"streak"`
	LastDone    string `json:"lastDone,omitempty"`
	GivingTotal string `json:"givingTotal,omitempty"`
}

type DashboardDTO struct {
	WorkerID  string            `json:"workerId"`
	Period    string            `json:"period"`
	Summaries []HabitSummaryDTO `json:"summaries"`
}

type RewardDTO struct {
	ID         string `json:"id"`
	WorkerID   string `json:"workerId"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	Period     string `json:"period"`
	CreatedAt  string `json:"createdAt"`
	RedeemedAt string `json:"redeemedAt,omitempty"`
}

type BatchSummaryDTO struct {
	Attempted   int      `json:"attempted"`
	Succeeded   int      `json:"succeeded"`
	Issued      int      `json:"issued"`
	Failed      []string `json:"failed"`
	StartedAt   string   `json:"startedAt"`
	CompletedAt string   `json:"completedAt"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toWorkerDTO(w engine.Worker) WorkerDTO {
	return WorkerDTO{
		ID:           string(w.ID),
		Name:         w.Name,
		Email:        w.Email,
		TeamName:     w.TeamName,
		WorkerNumber: w.WorkerNumber,
		CreatedAt:    w.CreatedAt.Format(time.RFC3339),
	}
}

func toAttendanceDTO(ev engine.AttendanceEvent) AttendanceEventDTO {
	return AttendanceEventDTO{
		ID:          string(ev.ID),
		WorkerID:    string(ev.WorkerID),
		Type:        string(ev.Type),
		CheckInTime: ev.CheckInTime.Format(time.RFC3339),
		IsEarly:     ev.IsEarly,
	}
}

func toHabitDTO(ev engine.HabitEvent) HabitEventDTO {
	dto := HabitEventDTO{
		ID:          string(ev.ID),
		WorkerID:    string(ev.WorkerID),
		Type:        string(ev.Type),
		CompletedAt: ev.CompletedAt.Format(time.RFC3339),
	}
	if ev.Type == engine.HabitGiving {
		dto.Amount = ev.Amount.String()
		dto.GivingSubType = ev.GivingSubType
	}
	return dto
}

func toEvaluationDTO(e engine.Evaluation) EvaluationDTO {
	return EvaluationDTO{
		WorkerID:    string(e.WorkerID),
		Period:      e.Period.Key(),
		Attendance:  e.Attendance.Total(),
		Sunday:      e.Attendance.Sunday,
		Midweek:     e.Attendance.Midweek,
		Special:     e.Attendance.Special,
		Early:       e.Attendance.Early,
		NLPPrayer:   e.Habits.NLPPrayer,
		BibleStudy:  e.Habits.BibleStudy,
		Devotionals: e.Habits.Devotionals,
		Fasting:     e.Habits.Fasting,
		Giving:      e.Habits.Giving,
		Qualified:   e.Qualified,
		Shortfalls:  e.Shortfalls(),
	}
}

func toDashboardDTO(d engine.Dashboard) DashboardDTO {
	dto := DashboardDTO{
		WorkerID:  string(d.WorkerID),
		Period:    d.Period.Key(),
		Summaries: make([]HabitSummaryDTO, 0, len(d.Summaries)),
	}
	for _, s := range d.Summaries {
		sd := HabitSummaryDTO{
			Habit:      string(s.Habit),
			MonthCount: s.MonthCount,
			Streak:     s.Streak,
		}
		if s.LastDone != nil {
			sd.LastDone = s.LastDone.Format(time.RFC3339)
		}
		if s.Habit == engine.HabitGiving {
			sd.GivingTotal = s.GivingTotal.String()
		}
		dto.Summaries = append(dto.Summaries, sd)
	}
	return dto
}

func toRewardDTO(r engine.Reward) RewardDTO {
	dto := RewardDTO{
		ID:        string(r.ID),
		WorkerID:  string(r.WorkerID),
		Type:      r.Type,
		Status:    string(r.Status),
		Period:    r.PeriodKey,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
	if r.RedeemedAt != nil {
		dto.RedeemedAt = r.RedeemedAt.Format(time.RFC3339)
	}
	return dto
}

func toBatchSummaryDTO(s engine.RunSummary) BatchSummaryDTO {
	dto := BatchSummaryDTO{
		Attempted:   s.Attempted,
		Succeeded:   s.Succeeded,
		Issued:      s.Issued,
		Failed:      make([]string, 0, len(s.Failed)),
		StartedAt:   s.StartedAt.Format(time.RFC3339),
		CompletedAt: s.CompletedAt.Format(time.RFC3339),
	}
	for _, f := range s.Failed {
		dto.Failed = append(dto.Failed, f.Error())
	}
	return dto
}
