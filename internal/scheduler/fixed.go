package scheduler

import (
	"time"

	"github.com/example/lab-booking/internal/recurrence"
)

// Dates are midnight UTC, so the weekly engine reads them in UTC.
var weekly = recurrence.NewEngine(time.UTC)

func (f FixedSchedule) rule() recurrence.Rule {
	return recurrence.Rule{
		ID:       f.ID,
		Weekday:  f.Weekday,
		StartsOn: f.ValidFrom.Time(),
		EndsOn:   f.ValidUntil.Time(),
	}
}

// ActiveOn reports whether the schedule recurs on date: the date lies inside
// the inclusive validity window and falls on the schedule weekday.
func (f FixedSchedule) ActiveOn(date Date) bool {
	if f.ValidFrom.IsZero() || f.ValidUntil.IsZero() || date.IsZero() {
		return false
	}
	return weekly.Occurs(f.rule(), date.Time())
}

// OccurrencesWithin lists the dates in [from, to] on which the schedule
// recurs, ascending. Schedules with an invalid weekday or a missing window
// never recur.
func (f FixedSchedule) OccurrencesWithin(from, to Date) []Date {
	if f.ValidFrom.IsZero() || f.ValidUntil.IsZero() || from.IsZero() || to.IsZero() {
		return nil
	}
	days, err := weekly.Occurrences(f.rule(), from.Time(), to.Time())
	if err != nil {
		return nil
	}
	dates := make([]Date, len(days))
	for i, day := range days {
		dates[i] = DateOf(day)
	}
	return dates
}

// OccupiedByFixedSchedules returns the union of periods of every schedule for
// roomID that is active on date.
func OccupiedByFixedSchedules(schedules []FixedSchedule, roomID string, date Date) PeriodSet {
	occupied := NewPeriodSet()
	for _, schedule := range schedules {
		if schedule.RoomID != roomID || len(schedule.Periods) == 0 {
			continue
		}
		if schedule.ActiveOn(date) {
			occupied = occupied.Union(schedule.Periods)
		}
	}
	return occupied
}

// FixedSchedulesOverlap reports whether two schedules could ever occupy the
// same room period: same room and weekday, intersecting validity windows and
// at least one shared period.
func FixedSchedulesOverlap(a, b FixedSchedule) bool {
	if a.RoomID != b.RoomID || a.Weekday != b.Weekday {
		return false
	}
	if a.ValidFrom.After(a.ValidUntil) || b.ValidFrom.After(b.ValidUntil) {
		return false
	}
	if a.ValidFrom.After(b.ValidUntil) || b.ValidFrom.After(a.ValidUntil) {
		return false
	}
	return a.Periods.Intersects(b.Periods)
}
