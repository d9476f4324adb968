package application

import (
	"github.com/example/lab-booking/internal/persistence"
	"github.com/example/lab-booking/internal/recurrence"
	"github.com/example/lab-booking/internal/scheduler"
)

// Role is the access level of an authenticated user.
type Role string

const (
	// RoleTeacher may submit and cancel their own booking requests.
	RoleTeacher Role = "teacher"
	// RoleAdmin may additionally manage rooms and fixed schedules and decide requests.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal may administer labs.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name        string
	Description string
	Capacity    int
}

// FixedScheduleInput captures caller provided fixed schedule fields.
type FixedScheduleInput struct {
	RoomID      string
	Weekday     int
	Periods     []int
	ValidFrom   string
	ValidUntil  string
	Description string
}

// OverlapWarning flags another fixed schedule of the same room sharing a
// weekday, a period and part of the validity window. It never blocks a write.
type OverlapWarning struct {
	ScheduleID      string
	OtherScheduleID string
	Weekday         recurrence.Weekday
	Periods         scheduler.PeriodSet
}

// FixedScheduleResult is a persisted schedule with the overlaps detected when it was written.
type FixedScheduleResult struct {
	Schedule persistence.FixedSchedule
	Warnings []OverlapWarning
}

// BookingInput captures a teacher's booking request.
type BookingInput struct {
	RoomID      string
	Date        string
	Periods     []int
	Description string
}

// AvailabilityQuery asks whether periods of a room are free on a date.
type AvailabilityQuery struct {
	RoomID  string
	Date    string
	Periods []int
}

// AvailabilityResult is the answer to an AvailabilityQuery.
type AvailabilityResult struct {
	RoomID string
	Date   scheduler.Date
	scheduler.Availability
}

// AgendaQuery asks for the occupancy of a room over an inclusive date range.
type AgendaQuery struct {
	RoomID string
	From   string
	To     string
}

// AgendaResult is the projected occupancy of a room.
type AgendaResult struct {
	RoomID  string
	From    scheduler.Date
	To      scheduler.Date
	Entries []scheduler.OccupancyEntry
}

// Decision is the administrator verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// PendingFilter narrows the administrator pending queue.
type PendingFilter struct {
	RoomID string
	From   string
	To     string
}
