package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/lab-booking/internal/persistence"
	"github.com/example/lab-booking/internal/recurrence"
	"github.com/example/lab-booking/internal/scheduler"
)

var (
	roomCounter     uint64
	scheduleCounter uint64
	bookingCounter  uint64
)

// referenceTime is a Friday morning; the following Monday is 2024-03-04.
var referenceTime = time.Date(2024, time.March, 1, 11, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceMonday is the first Monday after ReferenceTime.
func ReferenceMonday() scheduler.Date {
	return scheduler.NewDate(2024, time.March, 4)
}

// ----------------------------- Room fixtures -----------------------------

// RoomOption configures the generated room.
type RoomOption func(*persistence.Room)

// NewRoom returns a deterministic room with optional overrides.
func NewRoom(opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	room := persistence.Room{
		ID:          fmt.Sprintf("lab-%03d", idx),
		Name:        fmt.Sprintf("Laboratorio %03d", idx),
		Description: "Laboratorio de informatica",
		Capacity:    int(20 + idx%4*5),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(r *persistence.Room) {
		r.ID = id
	}
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(r *persistence.Room) {
		r.Name = name
	}
}

// ------------------------- Fixed schedule fixtures -------------------------

// FixedScheduleOption configures the generated fixed schedule.
type FixedScheduleOption func(*persistence.FixedSchedule)

// NewFixedSchedule returns a Monday schedule for roomID covering periods 1 and
// 2 during March 2024.
func NewFixedSchedule(roomID string, opts ...FixedScheduleOption) persistence.FixedSchedule {
	idx := atomic.AddUint64(&scheduleCounter, 1)
	schedule := persistence.FixedSchedule{
		ID:          fmt.Sprintf("fixed-%03d", idx),
		RoomID:      roomID,
		Weekday:     recurrence.Monday,
		Periods:     scheduler.NewPeriodSet(1, 2),
		ValidFrom:   scheduler.NewDate(2024, time.March, 1),
		ValidUntil:  scheduler.NewDate(2024, time.March, 31),
		Description: fmt.Sprintf("Disciplina %03d", idx),
		CreatedBy:   "admin",
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&schedule)
	}
	return schedule
}

// WithWeekday overrides the schedule weekday.
func WithWeekday(weekday recurrence.Weekday) FixedScheduleOption {
	return func(s *persistence.FixedSchedule) {
		s.Weekday = weekday
	}
}

// WithSchedulePeriods overrides the schedule periods.
func WithSchedulePeriods(periods ...scheduler.Period) FixedScheduleOption {
	return func(s *persistence.FixedSchedule) {
		s.Periods = scheduler.NewPeriodSet(periods...)
	}
}

// WithValidity overrides the inclusive validity window.
func WithValidity(from, until scheduler.Date) FixedScheduleOption {
	return func(s *persistence.FixedSchedule) {
		s.ValidFrom = from
		s.ValidUntil = until
	}
}

// ---------------------------- Booking fixtures ----------------------------

// BookingOption configures the generated booking.
type BookingOption func(*persistence.Booking)

// NewBooking returns a pending request of requesterID for periods 3 and 4 of
// roomID on ReferenceMonday.
func NewBooking(roomID, requesterID string, opts ...BookingOption) persistence.Booking {
	idx := atomic.AddUint64(&bookingCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Second)
	booking := persistence.Booking{
		ID:          fmt.Sprintf("booking-%03d", idx),
		RoomID:      roomID,
		RequesterID: requesterID,
		Date:        ReferenceMonday(),
		Periods:     scheduler.NewPeriodSet(3, 4),
		Status:      scheduler.StatusPending,
		Description: "Aula pratica",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&booking)
	}
	return booking
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(b *persistence.Booking) {
		b.ID = id
	}
}

// WithBookingDate overrides the booking date.
func WithBookingDate(date scheduler.Date) BookingOption {
	return func(b *persistence.Booking) {
		b.Date = date
	}
}

// WithBookingPeriods overrides the requested periods.
func WithBookingPeriods(periods ...scheduler.Period) BookingOption {
	return func(b *persistence.Booking) {
		b.Periods = scheduler.NewPeriodSet(periods...)
	}
}

// WithStatus overrides the booking status. Approved and rejected bookings get
// decision metadata.
func WithStatus(status scheduler.Status) BookingOption {
	return func(b *persistence.Booking) {
		b.Status = status
		if status == scheduler.StatusApproved || status == scheduler.StatusRejected {
			decided := b.CreatedAt.Add(time.Hour)
			b.DecidedBy = "admin"
			b.DecidedAt = &decided
		}
	}
}
