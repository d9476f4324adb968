package scheduler

import "github.com/example/lab-booking/internal/recurrence"

// Status is the approval state of a booking request.
type Status string

const (
	// StatusPending marks a request awaiting an administrator decision.
	StatusPending Status = "pending"
	// StatusApproved marks a request that occupies its periods.
	StatusApproved Status = "approved"
	// StatusRejected marks a request refused by an administrator.
	StatusRejected Status = "rejected"
	// StatusCancelled marks a pending request withdrawn by its requester.
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// FixedSchedule is a weekly recurring occupancy of a room.
type FixedSchedule struct {
	ID          string
	RoomID      string
	Weekday     recurrence.Weekday
	Periods     PeriodSet
	ValidFrom   Date
	ValidUntil  Date
	Description string
}

// BookingRequest is a single-date occupancy request.
type BookingRequest struct {
	ID          string
	RoomID      string
	RequesterID string
	Date        Date
	Periods     PeriodSet
	Status      Status
	Description string
}
