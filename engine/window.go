/*
window.go - Attendance time-window classification

PURPOSE:
  Decides whether a check-in timestamp falls inside the permitted window
  for its service type, and whether it counts as "early". A check-in that
  classifies invalid is rejected before it is written; there is no partial
  persistence.

RULES (all times UTC, inclusive bounds):
  SundayService          Sunday    08:00-19:00    early <= 09:00
  MidweekService         Wednesday 18:45-20:30    early <= 18:45
  SpecialServiceMeeting  any day   unrestricted   always early
  WorkersMeeting (other) any day   unrestricted   never early

TIMEZONE:
  Check-in timestamps are treated as UTC. Classify normalizes with t.UTC()
  before extracting the weekday and time of day.

SEE ALSO:
  - errors.go: InvalidTimeWindowError carries the per-type message
  - quota.go:  counts only stored (i.e. valid) check-ins
*/
package engine

import (
	"context"
	"time"
)

// Classification is the result of checking one timestamp against the rules
// for an attendance type.
type Classification struct {
	Valid bool
	Early bool
}

// window bounds in seconds since midnight, inclusive.
const (
	sundayOpen   = 8 * 3600         // 08:00
	sundayClose  = 19 * 3600        // 19:00
	sundayEarly  = 9 * 3600         // 09:00
	midweekOpen  = 18*3600 + 45*60  // 18:45
	midweekClose = 20*3600 + 30*60  // 20:30
	midweekEarly = 18*3600 + 45*60  // 18:45
)

// Classify applies the time-window rules for one attendance type.
func Classify(t AttendanceType, at time.Time) Classification {
	at = at.UTC()
	sec := at.Hour()*3600 + at.Minute()*60 + at.Second()

	switch t {
	case SundayService:
		if at.Weekday() != time.Sunday || sec < sundayOpen || sec > sundayClose {
			return Classification{}
		}
		return Classification{Valid: true, Early: sec <= sundayEarly}

	case MidweekService:
		if at.Weekday() != time.Wednesday || sec < midweekOpen || sec > midweekClose {
			return Classification{}
		}
		return Classification{Valid: true, Early: sec <= midweekEarly}

	case SpecialServiceMeeting:
		return Classification{Valid: true, Early: true}

	default:
		// WorkersMeeting: unrestricted, never early. Unknown types never
		// get here; RecordAttendance rejects them first.
		return Classification{Valid: true, Early: false}
	}
}

// windowMessage returns the human message surfaced on rejection.
func windowMessage(t AttendanceType) string {
	switch t {
	case SundayService:
		return "Sunday service check-in is only open on Sundays between 08:00 and 19:00"
	case MidweekService:
		return "midweek service check-in is only open on Wednesdays between 18:45 and 20:30"
	default:
		return "check-in is not open at this time"
	}
}

// RecordAttendance classifies the event and persists it. If the timestamp
// is outside the allowed window the event is rejected with an
// InvalidTimeWindowError and nothing is written. IsEarly is stamped from
// the classification, overriding whatever the caller set.
func RecordAttendance(ctx context.Context, store EventStore, ev AttendanceEvent) (AttendanceEvent, error) {
	if !ValidAttendanceType(ev.Type) {
		return AttendanceEvent{}, ErrUnknownAttendanceType
	}
	c := Classify(ev.Type, ev.CheckInTime)
	if !c.Valid {
		return AttendanceEvent{}, &InvalidTimeWindowError{
			Type:    ev.Type,
			At:      ev.CheckInTime,
			Message: windowMessage(ev.Type),
		}
	}

	ev.IsEarly = c.Early
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if err := store.SaveAttendance(ctx, ev); err != nil {
		return AttendanceEvent{}, err
	}
	return ev, nil
}
