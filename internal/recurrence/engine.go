package recurrence

import (
	"errors"
	"time"
)

// Weekday identifies a day of the week using the Monday=0 convention.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// WeekdayOf converts a time.Weekday (Sunday=0) to the Monday=0 convention.
func WeekdayOf(day time.Weekday) Weekday {
	return Weekday((int(day) + 6) % 7)
}

// Valid reports whether w is within 0..6.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

// String returns the lower-case English day name.
func (w Weekday) String() string {
	if !w.Valid() {
		return "invalid"
	}
	return weekdayNames[w]
}

// Rule describes a weekly recurrence active within an inclusive date window.
type Rule struct {
	ID       string
	Weekday  Weekday
	StartsOn time.Time
	EndsOn   time.Time
}

// Engine evaluates weekly rules against calendar days.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that reads calendar days in the provided location.
// If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// ErrInvalidWeekday indicates the rule weekday is outside 0..6.
var ErrInvalidWeekday = errors.New("recurrence: invalid weekday")

// ErrInvalidWindow indicates the requested range ends before it starts.
var ErrInvalidWindow = errors.New("recurrence: range end precedes range start")

// Occurs reports whether the rule is active on day.
//
// A rule whose StartsOn is after its EndsOn is never active. Time-of-day
// components are ignored on every argument.
func (e *Engine) Occurs(rule Rule, day time.Time) bool {
	if !rule.Weekday.Valid() {
		return false
	}
	d := e.day(day)
	if d.Before(e.day(rule.StartsOn)) || d.After(e.day(rule.EndsOn)) {
		return false
	}
	return WeekdayOf(d.Weekday()) == rule.Weekday
}

// Occurrences lists every day within [rangeStart, rangeEnd] on which the rule is active,
// in ascending order.
func (e *Engine) Occurrences(rule Rule, rangeStart, rangeEnd time.Time) ([]time.Time, error) {
	if !rule.Weekday.Valid() {
		return nil, ErrInvalidWeekday
	}
	rangeStart = e.day(rangeStart)
	rangeEnd = e.day(rangeEnd)
	if rangeEnd.Before(rangeStart) {
		return nil, ErrInvalidWindow
	}

	lower := e.day(rule.StartsOn)
	if rangeStart.After(lower) {
		lower = rangeStart
	}
	upper := e.day(rule.EndsOn)
	if rangeEnd.Before(upper) {
		upper = rangeEnd
	}
	if lower.After(upper) {
		return nil, nil
	}

	offset := (int(rule.Weekday) - int(WeekdayOf(lower.Weekday())) + 7) % 7
	occurrences := make([]time.Time, 0)
	for current := lower.AddDate(0, 0, offset); !current.After(upper); current = current.AddDate(0, 0, 7) {
		occurrences = append(occurrences, current)
	}
	return occurrences, nil
}

// day truncates t to midnight UTC of its calendar day in the engine location.
func (e *Engine) day(t time.Time) time.Time {
	loc := e.location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
