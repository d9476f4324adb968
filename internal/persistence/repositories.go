package persistence

import (
	"context"
	"time"

	"github.com/example/lab-booking/internal/scheduler"
)

// RoomRepository exposes the room catalog.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// FixedScheduleRepository stores weekly recurring occupancy.
type FixedScheduleRepository interface {
	CreateFixedSchedule(ctx context.Context, schedule FixedSchedule) error
	UpdateFixedSchedule(ctx context.Context, schedule FixedSchedule) error
	GetFixedSchedule(ctx context.Context, id string) (FixedSchedule, error)
	ListFixedSchedules(ctx context.Context, roomID string) ([]FixedSchedule, error)
	DeleteFixedSchedule(ctx context.Context, id string) error
}

// BookingFilter narrows booking queries. Zero values leave a field unfiltered.
type BookingFilter struct {
	RoomID      string
	RequesterID string
	Date        scheduler.Date
	From        scheduler.Date
	To          scheduler.Date
	Status      scheduler.Status
}

// BookingTransition describes a status change guarded by the expected current status.
type BookingTransition struct {
	ID        string
	From      scheduler.Status
	To        scheduler.Status
	DecidedBy string
	DecidedAt time.Time
	// RequireFree re-checks, inside the write transaction, that no fixed
	// schedule or other approved booking occupies the booking's periods.
	RequireFree bool
}

// BookingRepository stores booking requests.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	TransitionBooking(ctx context.Context, transition BookingTransition) (Booking, error)
}
