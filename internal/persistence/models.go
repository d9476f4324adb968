package persistence

import (
	"time"

	"github.com/example/lab-booking/internal/recurrence"
	"github.com/example/lab-booking/internal/scheduler"
)

// Room represents a bookable lab or shared space.
type Room struct {
	ID          string
	Name        string
	Description string
	Capacity    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FixedSchedule represents a weekly recurring occupancy stored in persistence.
type FixedSchedule struct {
	ID          string
	RoomID      string
	Weekday     recurrence.Weekday
	Periods     scheduler.PeriodSet
	ValidFrom   scheduler.Date
	ValidUntil  scheduler.Date
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Engine converts the record to the availability engine representation.
func (f FixedSchedule) Engine() scheduler.FixedSchedule {
	return scheduler.FixedSchedule{
		ID:          f.ID,
		RoomID:      f.RoomID,
		Weekday:     f.Weekday,
		Periods:     f.Periods,
		ValidFrom:   f.ValidFrom,
		ValidUntil:  f.ValidUntil,
		Description: f.Description,
	}
}

// Booking represents a single-date booking request stored in persistence.
type Booking struct {
	ID          string
	RoomID      string
	RequesterID string
	Date        scheduler.Date
	Periods     scheduler.PeriodSet
	Status      scheduler.Status
	Description string
	DecidedBy   string
	DecidedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Engine converts the record to the availability engine representation.
func (b Booking) Engine() scheduler.BookingRequest {
	return scheduler.BookingRequest{
		ID:          b.ID,
		RoomID:      b.RoomID,
		RequesterID: b.RequesterID,
		Date:        b.Date,
		Periods:     b.Periods,
		Status:      b.Status,
		Description: b.Description,
	}
}

// EngineFixedSchedules converts a slice of records for the engine.
func EngineFixedSchedules(records []FixedSchedule) []scheduler.FixedSchedule {
	out := make([]scheduler.FixedSchedule, len(records))
	for i, record := range records {
		out[i] = record.Engine()
	}
	return out
}

// EngineBookings converts a slice of records for the engine.
func EngineBookings(records []Booking) []scheduler.BookingRequest {
	out := make([]scheduler.BookingRequest, len(records))
	for i, record := range records {
		out[i] = record.Engine()
	}
	return out
}
