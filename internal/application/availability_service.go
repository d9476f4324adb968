package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/lab-booking/internal/persistence"
	"github.com/example/lab-booking/internal/scheduler"
)

// AvailabilityService answers read-only occupancy questions for any
// authenticated user.
type AvailabilityService struct {
	rooms     persistence.RoomRepository
	schedules persistence.FixedScheduleRepository
	bookings  persistence.BookingRepository
	resolver  *scheduler.Resolver
	logger    *slog.Logger
}

// NewAvailabilityService wires the read side of the availability engine.
func NewAvailabilityService(rooms persistence.RoomRepository, schedules persistence.FixedScheduleRepository, bookings persistence.BookingRepository, resolver *scheduler.Resolver, logger *slog.Logger) *AvailabilityService {
	if resolver == nil {
		resolver, _ = scheduler.NewResolver(scheduler.DefaultPeriodRange())
	}
	return &AvailabilityService{
		rooms:     rooms,
		schedules: schedules,
		bookings:  bookings,
		resolver:  resolver,
		logger:    defaultLogger(logger),
	}
}

// CheckAvailability reports which requested periods are already occupied.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, query AvailabilityQuery) (result AvailabilityResult, err error) {
	logger := serviceLogger(ctx, s.logger, "AvailabilityService", "CheckAvailability", "room_id", query.RoomID, "date", query.Date)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "availability check failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "availability checked", "available", result.Available, "conflicting", result.Conflicting.String())
	}()

	vErr := &ValidationError{}
	roomID := requireText(vErr, "room_id", query.RoomID, "room is required")
	date := parseDateField(vErr, "date", query.Date)
	periods := parsePeriodsField(vErr, s.resolver, query.Periods)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = ensureRoom(ctx, s.rooms, roomID); err != nil {
		return
	}

	snap, err := loadSnapshot(ctx, s.schedules, s.bookings, roomID, date)
	if err != nil {
		return
	}

	availability, err := s.resolver.CheckAvailability(snap.schedules, snap.bookings, roomID, date, periods)
	if err != nil {
		return
	}
	result = AvailabilityResult{RoomID: roomID, Date: date, Availability: availability}
	return
}

// Agenda projects the occupancy of a room over an inclusive date range of at
// most a year.
func (s *AvailabilityService) Agenda(ctx context.Context, query AgendaQuery) (result AgendaResult, err error) {
	logger := serviceLogger(ctx, s.logger, "AvailabilityService", "Agenda", "room_id", query.RoomID, "from", query.From, "to", query.To)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "agenda projection failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "agenda projected", "entry_count", len(result.Entries))
	}()

	vErr := &ValidationError{}
	roomID := requireText(vErr, "room_id", query.RoomID, "room is required")
	from := parseDateField(vErr, "from", query.From)
	to := parseDateField(vErr, "to", query.To)
	validateRange(vErr, from, to)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = ensureRoom(ctx, s.rooms, roomID); err != nil {
		return
	}

	schedules, err := s.schedules.ListFixedSchedules(ctx, roomID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	approved, err := s.bookings.ListBookings(ctx, persistence.BookingFilter{
		RoomID: roomID,
		From:   from,
		To:     to,
		Status: scheduler.StatusApproved,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	entries, err := scheduler.ProjectAgenda(persistence.EngineFixedSchedules(schedules), persistence.EngineBookings(approved), roomID, from, to)
	if err != nil {
		return
	}
	result = AgendaResult{RoomID: roomID, From: from, To: to, Entries: entries}
	return
}

// snapshot is the room occupancy data the engine needs for one date.
type snapshot struct {
	schedules []scheduler.FixedSchedule
	bookings  []scheduler.BookingRequest
}

func loadSnapshot(ctx context.Context, schedules persistence.FixedScheduleRepository, bookings persistence.BookingRepository, roomID string, date scheduler.Date) (snapshot, error) {
	if schedules == nil || bookings == nil {
		return snapshot{}, fmt.Errorf("availability repositories not configured")
	}
	fixed, err := schedules.ListFixedSchedules(ctx, roomID)
	if err != nil {
		return snapshot{}, mapRepoError(err)
	}
	records, err := bookings.ListBookings(ctx, persistence.BookingFilter{RoomID: roomID, Date: date})
	if err != nil {
		return snapshot{}, mapRepoError(err)
	}
	return snapshot{
		schedules: persistence.EngineFixedSchedules(fixed),
		bookings:  persistence.EngineBookings(records),
	}, nil
}
