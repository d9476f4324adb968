package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/lab-booking/internal/persistence"
	"github.com/example/lab-booking/internal/recurrence"
	"github.com/example/lab-booking/internal/scheduler"
)

// FixedScheduleService administers the weekly recurring occupancy of rooms.
type FixedScheduleService struct {
	rooms       persistence.RoomRepository
	schedules   persistence.FixedScheduleRepository
	resolver    *scheduler.Resolver
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	warnings    *warningCache
}

// NewFixedScheduleService wires dependencies for fixed schedule operations.
func NewFixedScheduleService(rooms persistence.RoomRepository, schedules persistence.FixedScheduleRepository, resolver *scheduler.Resolver, idGenerator func() string, now func() time.Time, logger *slog.Logger) *FixedScheduleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if resolver == nil {
		resolver, _ = scheduler.NewResolver(scheduler.DefaultPeriodRange())
	}
	return &FixedScheduleService{
		rooms:       rooms,
		schedules:   schedules,
		resolver:    resolver,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		warnings:    newWarningCache(time.Minute, 256, now),
	}
}

func (s *FixedScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FixedScheduleService", operation, attrs...)
}

// CreateFixedSchedule validates input and stores a new weekly schedule. Overlaps
// with other schedules of the room are returned as warnings.
func (s *FixedScheduleService) CreateFixedSchedule(ctx context.Context, principal Principal, input FixedScheduleInput) (result FixedScheduleResult, err error) {
	if s == nil || s.schedules == nil {
		err = fmt.Errorf("fixed schedule repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateFixedSchedule", "principal_id", principal.UserID, "room_id", input.RoomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create fixed schedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "fixed schedule created", "schedule_id", result.Schedule.ID, "warning_count", len(result.Warnings))
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	schedule, vErr := s.buildSchedule(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = ensureRoom(ctx, s.rooms, schedule.RoomID); err != nil {
		return
	}

	siblings, err := s.schedules.ListFixedSchedules(ctx, schedule.RoomID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	created := s.now().UTC()
	schedule.ID = s.idGenerator()
	schedule.CreatedBy = principal.UserID
	schedule.CreatedAt = created
	schedule.UpdatedAt = created

	if err = s.schedules.CreateFixedSchedule(ctx, schedule); err != nil {
		err = mapRepoError(err)
		return
	}
	s.warnings.Invalidate(schedule.RoomID)

	result.Schedule = schedule
	result.Warnings = overlapsWith(schedule, siblings)
	return
}

// UpdateFixedSchedule replaces the weekday, periods, window and description of
// a schedule. The room of a schedule cannot change.
func (s *FixedScheduleService) UpdateFixedSchedule(ctx context.Context, principal Principal, scheduleID string, input FixedScheduleInput) (result FixedScheduleResult, err error) {
	if s == nil || s.schedules == nil {
		err = fmt.Errorf("fixed schedule repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateFixedSchedule", "principal_id", principal.UserID, "schedule_id", scheduleID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update fixed schedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "fixed schedule updated", "warning_count", len(result.Warnings))
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	var existing persistence.FixedSchedule
	existing, err = s.schedules.GetFixedSchedule(ctx, scheduleID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if strings.TrimSpace(input.RoomID) == "" {
		input.RoomID = existing.RoomID
	}
	updated, vErr := s.buildSchedule(input)
	if input.RoomID != existing.RoomID {
		vErr.add("room_id", "room cannot be changed")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var siblings []persistence.FixedSchedule
	siblings, err = s.schedules.ListFixedSchedules(ctx, existing.RoomID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	updated.ID = existing.ID
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now().UTC()

	if err = s.schedules.UpdateFixedSchedule(ctx, updated); err != nil {
		err = mapRepoError(err)
		return
	}
	s.warnings.Invalidate(updated.RoomID)

	result.Schedule = updated
	result.Warnings = overlapsWith(updated, siblings)
	return
}

// DeleteFixedSchedule removes a schedule.
func (s *FixedScheduleService) DeleteFixedSchedule(ctx context.Context, principal Principal, scheduleID string) error {
	if s == nil || s.schedules == nil {
		return fmt.Errorf("fixed schedule repository not configured")
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteFixedSchedule", "principal_id", principal.UserID, "schedule_id", scheduleID)

	existing, err := s.schedules.GetFixedSchedule(ctx, scheduleID)
	if err == nil {
		err = s.schedules.DeleteFixedSchedule(ctx, scheduleID)
	}
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete fixed schedule", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	s.warnings.Invalidate(existing.RoomID)

	logger.InfoContext(ctx, "fixed schedule deleted")
	return nil
}

// ListFixedSchedules returns the schedules of a room together with every
// pairwise overlap among them.
func (s *FixedScheduleService) ListFixedSchedules(ctx context.Context, roomID string) ([]persistence.FixedSchedule, []OverlapWarning, error) {
	if s == nil || s.schedules == nil {
		return nil, nil, fmt.Errorf("fixed schedule repository not configured")
	}
	if err := ensureRoom(ctx, s.rooms, roomID); err != nil {
		return nil, nil, err
	}

	schedules, err := s.schedules.ListFixedSchedules(ctx, roomID)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}

	fingerprint := schedulesFingerprint(schedules)
	if cached, ok := s.warnings.Get(roomID, fingerprint); ok {
		return schedules, cached, nil
	}
	warnings := detectOverlaps(schedules)
	s.warnings.Store(roomID, fingerprint, warnings)
	return schedules, warnings, nil
}

func (s *FixedScheduleService) buildSchedule(input FixedScheduleInput) (persistence.FixedSchedule, *ValidationError) {
	vErr := &ValidationError{}

	roomID := requireText(vErr, "room_id", input.RoomID, "room is required")
	weekday := recurrence.Weekday(input.Weekday)
	if !weekday.Valid() {
		vErr.add("weekday", "weekday must be between 0 (Monday) and 6 (Sunday)")
	}
	periods := parsePeriodsField(vErr, s.resolver, input.Periods)
	from := parseDateField(vErr, "valid_from", input.ValidFrom)
	until := parseDateField(vErr, "valid_until", input.ValidUntil)
	if !from.IsZero() && !until.IsZero() && until.Before(from) {
		vErr.add("valid_until", "valid_until must not be before valid_from")
	}

	return persistence.FixedSchedule{
		RoomID:      roomID,
		Weekday:     weekday,
		Periods:     periods,
		ValidFrom:   from,
		ValidUntil:  until,
		Description: strings.TrimSpace(input.Description),
	}, vErr
}

// overlapsWith compares schedule against the room's schedules as read before
// the write. The stored copy of schedule itself is skipped.
func overlapsWith(schedule persistence.FixedSchedule, siblings []persistence.FixedSchedule) []OverlapWarning {
	var warnings []OverlapWarning
	candidate := schedule.Engine()
	for _, other := range siblings {
		if other.ID == schedule.ID {
			continue
		}
		if scheduler.FixedSchedulesOverlap(candidate, other.Engine()) {
			warnings = append(warnings, overlapWarning(schedule, other))
		}
	}
	return warnings
}

func detectOverlaps(schedules []persistence.FixedSchedule) []OverlapWarning {
	var warnings []OverlapWarning
	for i := range schedules {
		for j := i + 1; j < len(schedules); j++ {
			if scheduler.FixedSchedulesOverlap(schedules[i].Engine(), schedules[j].Engine()) {
				warnings = append(warnings, overlapWarning(schedules[i], schedules[j]))
			}
		}
	}
	return warnings
}

func overlapWarning(a, b persistence.FixedSchedule) OverlapWarning {
	return OverlapWarning{
		ScheduleID:      a.ID,
		OtherScheduleID: b.ID,
		Weekday:         a.Weekday,
		Periods:         a.Periods.Intersect(b.Periods),
	}
}
