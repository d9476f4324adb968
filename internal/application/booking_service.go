package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/lab-booking/internal/lock"
	"github.com/example/lab-booking/internal/notify"
	"github.com/example/lab-booking/internal/persistence"
	"github.com/example/lab-booking/internal/scheduler"
)

// BookingServiceConfig gathers the collaborators of BookingService.
type BookingServiceConfig struct {
	Rooms       persistence.RoomRepository
	Schedules   persistence.FixedScheduleRepository
	Bookings    persistence.BookingRepository
	Resolver    *scheduler.Resolver
	Locker      lock.Locker
	Notifier    notify.Notifier
	IDGenerator func() string
	Now         func() time.Time
	// Location decides which calendar day is "today" for submissions.
	Location *time.Location
	LockTTL  time.Duration
	Logger   *slog.Logger
}

// BookingService runs the booking request workflow: submission, decision,
// cancellation and listings.
type BookingService struct {
	rooms       persistence.RoomRepository
	schedules   persistence.FixedScheduleRepository
	bookings    persistence.BookingRepository
	resolver    *scheduler.Resolver
	locker      lock.Locker
	notifier    notify.Notifier
	idGenerator func() string
	now         func() time.Time
	location    *time.Location
	lockTTL     time.Duration
	logger      *slog.Logger
}

// NewBookingService applies defaults to cfg and returns the service.
func NewBookingService(cfg BookingServiceConfig) *BookingService {
	s := &BookingService{
		rooms:       cfg.Rooms,
		schedules:   cfg.Schedules,
		bookings:    cfg.Bookings,
		resolver:    cfg.Resolver,
		locker:      cfg.Locker,
		notifier:    cfg.Notifier,
		idGenerator: cfg.IDGenerator,
		now:         cfg.Now,
		location:    cfg.Location,
		lockTTL:     cfg.LockTTL,
		logger:      defaultLogger(cfg.Logger),
	}
	if s.resolver == nil {
		s.resolver, _ = scheduler.NewResolver(scheduler.DefaultPeriodRange())
	}
	if s.locker == nil {
		s.locker = lock.NewLocal()
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.logger)
	}
	if s.idGenerator == nil {
		s.idGenerator = func() string { return "" }
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.lockTTL <= 0 {
		s.lockTTL = 5 * time.Second
	}
	return s
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// SubmitBooking stores a pending request for the principal. The request is
// rejected when it duplicates a pending request of the same requester or when
// any requested period is already occupied.
func (s *BookingService) SubmitBooking(ctx context.Context, principal Principal, input BookingInput) (booking persistence.Booking, err error) {
	logger := s.loggerWith(ctx, "SubmitBooking", "principal_id", principal.UserID, "room_id", input.RoomID, "date", input.Date)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "booking submission rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking submitted", "booking_id", booking.ID, "periods", booking.Periods.String())
	}()

	if principal.UserID == "" || !principal.Role.Valid() {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	roomID := requireText(vErr, "room_id", input.RoomID, "room is required")
	date := parseDateField(vErr, "date", input.Date)
	if !date.IsZero() && date.Before(scheduler.Today(s.now(), s.location)) {
		vErr.add("date", "date must not be in the past")
	}
	periods := parsePeriodsField(vErr, s.resolver, input.Periods)
	description := requireText(vErr, "description", input.Description, "description is required")
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = ensureRoom(ctx, s.rooms, roomID); err != nil {
		return
	}

	release, err := s.acquire(ctx, roomID, date)
	if err != nil {
		return
	}
	defer release()

	snap, err := loadSnapshot(ctx, s.schedules, s.bookings, roomID, date)
	if err != nil {
		return
	}

	guard := scheduler.GuardAgainstDuplicate(snap.bookings, principal.UserID, roomID, date, periods)
	if !guard.Allowed {
		err = fmt.Errorf("%w: pending request %s", ErrAlreadyExists, guard.Existing.ID)
		return
	}
	availability, err := s.resolver.CheckAvailability(snap.schedules, snap.bookings, roomID, date, periods)
	if err != nil {
		return
	}
	if !availability.Available {
		err = &SlotConflictError{RoomID: roomID, Date: date, Periods: availability.Conflicting}
		return
	}

	created := s.now().UTC()
	booking = persistence.Booking{
		ID:          s.idGenerator(),
		RoomID:      roomID,
		RequesterID: principal.UserID,
		Date:        date,
		Periods:     periods,
		Status:      scheduler.StatusPending,
		Description: description,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if err = s.bookings.CreateBooking(ctx, booking); err != nil {
		err = mapRepoError(err)
		booking = persistence.Booking{}
		return
	}

	release()
	s.publish(ctx, notify.EventSubmitted, booking, principal.UserID)
	return
}

// ApproveBooking approves a pending request after re-checking that its
// periods are still free.
func (s *BookingService) ApproveBooking(ctx context.Context, principal Principal, bookingID string) (persistence.Booking, error) {
	return s.DecideBooking(ctx, principal, bookingID, DecisionApprove)
}

// RejectBooking rejects a pending request.
func (s *BookingService) RejectBooking(ctx context.Context, principal Principal, bookingID string) (persistence.Booking, error) {
	return s.DecideBooking(ctx, principal, bookingID, DecisionReject)
}

// DecideBooking applies an administrator decision to a pending request.
func (s *BookingService) DecideBooking(ctx context.Context, principal Principal, bookingID string, decision Decision) (booking persistence.Booking, err error) {
	logger := s.loggerWith(ctx, "DecideBooking", "principal_id", principal.UserID, "booking_id", bookingID, "decision", string(decision))
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "booking decision failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking decided", "status", string(booking.Status))
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	var (
		target scheduler.Status
		event  notify.EventType
	)
	switch decision {
	case DecisionApprove:
		target, event = scheduler.StatusApproved, notify.EventApproved
	case DecisionReject:
		target, event = scheduler.StatusRejected, notify.EventRejected
	default:
		vErr := &ValidationError{}
		vErr.add("decision", "decision must be approve or reject")
		err = vErr
		return
	}

	current, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if current.Status != scheduler.StatusPending {
		err = fmt.Errorf("%w: booking is %s", ErrInvalidState, current.Status)
		return
	}

	release := func() {}
	if target == scheduler.StatusApproved {
		var lockErr error
		release, lockErr = s.acquire(ctx, current.RoomID, current.Date)
		if lockErr != nil {
			err = lockErr
			return
		}
		defer release()

		var snap snapshot
		snap, err = loadSnapshot(ctx, s.schedules, s.bookings, current.RoomID, current.Date)
		if err != nil {
			return
		}
		var availability scheduler.Availability
		availability, err = s.resolver.CheckAvailability(snap.schedules, snap.bookings, current.RoomID, current.Date, current.Periods)
		if err != nil {
			return
		}
		if !availability.Available {
			err = &SlotConflictError{RoomID: current.RoomID, Date: current.Date, Periods: availability.Conflicting}
			return
		}
	}

	booking, err = s.bookings.TransitionBooking(ctx, persistence.BookingTransition{
		ID:          bookingID,
		From:        scheduler.StatusPending,
		To:          target,
		DecidedBy:   principal.UserID,
		DecidedAt:   s.now().UTC(),
		RequireFree: target == scheduler.StatusApproved,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	release()
	s.publish(ctx, event, booking, principal.UserID)
	return
}

// CancelBooking withdraws a pending request. Only the requester or an
// administrator may cancel it.
func (s *BookingService) CancelBooking(ctx context.Context, principal Principal, bookingID string) (booking persistence.Booking, err error) {
	logger := s.loggerWith(ctx, "CancelBooking", "principal_id", principal.UserID, "booking_id", bookingID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "booking cancellation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking cancelled")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	current, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if current.RequesterID != principal.UserID && !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if current.Status != scheduler.StatusPending {
		err = fmt.Errorf("%w: booking is %s", ErrInvalidState, current.Status)
		return
	}

	booking, err = s.bookings.TransitionBooking(ctx, persistence.BookingTransition{
		ID:        bookingID,
		From:      scheduler.StatusPending,
		To:        scheduler.StatusCancelled,
		DecidedBy: principal.UserID,
		DecidedAt: s.now().UTC(),
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	s.publish(ctx, notify.EventCancelled, booking, principal.UserID)
	return
}

// ListMyBookings returns the principal's requests ordered by date.
func (s *BookingService) ListMyBookings(ctx context.Context, principal Principal) ([]persistence.Booking, error) {
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	bookings, err := s.bookings.ListBookings(ctx, persistence.BookingFilter{RequesterID: principal.UserID})
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListMyBookings", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return bookings, nil
}

// ListPendingBookings returns the administrator queue of pending requests,
// optionally narrowed to a room and date range.
func (s *BookingService) ListPendingBookings(ctx context.Context, principal Principal, filter PendingFilter) ([]persistence.Booking, error) {
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}

	vErr := &ValidationError{}
	query := persistence.BookingFilter{RoomID: filter.RoomID, Status: scheduler.StatusPending}
	if filter.From != "" {
		query.From = parseDateField(vErr, "from", filter.From)
	}
	if filter.To != "" {
		query.To = parseDateField(vErr, "to", filter.To)
	}
	if !query.From.IsZero() && !query.To.IsZero() {
		validateRange(vErr, query.From, query.To)
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	bookings, err := s.bookings.ListBookings(ctx, query)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListPendingBookings", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list pending bookings", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return bookings, nil
}

// acquire takes the submission lock shared by every write to roomID on date.
// The returned release is safe to call more than once; callers release before
// publishing events so a slow broker never holds the slot.
func (s *BookingService) acquire(ctx context.Context, roomID string, date scheduler.Date) (func(), error) {
	key := lock.SlotKey(roomID, date.String())
	lease, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			// The lease must be released even when the request context is gone.
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				s.loggerWith(ctx, "release").WarnContext(ctx, "failed to release submission lock", "key", key, "error", err)
			}
		})
	}, nil
}

func (s *BookingService) publish(ctx context.Context, eventType notify.EventType, booking persistence.Booking, actor string) {
	event := notify.Event{
		Type:        eventType,
		BookingID:   booking.ID,
		RoomID:      booking.RoomID,
		RequesterID: booking.RequesterID,
		Date:        booking.Date.String(),
		Periods:     booking.Periods.Ints(),
		Status:      string(booking.Status),
		Actor:       actor,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.loggerWith(ctx, "publish", "booking_id", booking.ID).
			WarnContext(ctx, "failed to publish booking event", "event_type", string(eventType), "error", err)
	}
}
