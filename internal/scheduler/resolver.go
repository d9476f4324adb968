package scheduler

import "fmt"

// Availability is the outcome of checking proposed periods against a room's
// occupancy on one date.
type Availability struct {
	Available   bool
	Conflicting PeriodSet
	Occupied    PeriodSet
	Proposed    PeriodSet
}

// DuplicateCheck is the outcome of the duplicate-request guard.
type DuplicateCheck struct {
	Allowed  bool
	Existing *BookingRequest
}

// Resolver answers availability and duplicate questions over in-memory
// snapshots. It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	periods PeriodRange
}

// NewResolver returns a Resolver validating periods against r. A zero range
// falls back to DefaultPeriodRange.
func NewResolver(r PeriodRange) (*Resolver, error) {
	if r == (PeriodRange{}) {
		r = DefaultPeriodRange()
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{periods: r}, nil
}

// Periods returns the configured period range.
func (r *Resolver) Periods() PeriodRange {
	return r.periods
}

// Normalize validates proposed periods against the configured range.
func (r *Resolver) Normalize(periods []Period) (PeriodSet, error) {
	return r.periods.Normalize(periods)
}

// CheckAvailability reports which of the proposed periods are already taken
// in roomID on date by fixed schedules or approved bookings.
func (r *Resolver) CheckAvailability(schedules []FixedSchedule, bookings []BookingRequest, roomID string, date Date, proposed []Period) (Availability, error) {
	normalized, err := r.periods.Normalize(proposed)
	if err != nil {
		return Availability{}, err
	}

	occupied := OccupiedByFixedSchedules(schedules, roomID, date).
		Union(OccupiedByApprovedBookings(bookings, roomID, date))
	conflicting := normalized.Intersect(occupied)

	return Availability{
		Available:   conflicting.IsEmpty(),
		Conflicting: conflicting,
		Occupied:    occupied,
		Proposed:    normalized,
	}, nil
}

// GuardAgainstDuplicate normalizes the proposed periods and reports whether
// an identical pending request already exists.
func (r *Resolver) GuardAgainstDuplicate(bookings []BookingRequest, requesterID, roomID string, date Date, proposed []Period) (DuplicateCheck, error) {
	normalized, err := r.periods.Normalize(proposed)
	if err != nil {
		return DuplicateCheck{}, err
	}
	return GuardAgainstDuplicate(bookings, requesterID, roomID, date, normalized), nil
}

// GuardAgainstDuplicate reports whether a new pending request may be stored.
// It should run immediately before the insert; storage must still enforce
// uniqueness because two callers can pass the guard concurrently.
func GuardAgainstDuplicate(bookings []BookingRequest, requesterID, roomID string, date Date, periods PeriodSet) DuplicateCheck {
	existing, found := FindPendingDuplicate(bookings, requesterID, roomID, date, periods)
	if !found {
		return DuplicateCheck{Allowed: true}
	}
	return DuplicateCheck{Allowed: false, Existing: &existing}
}

// ValidateRange rejects ranges whose start is after their end.
func ValidateRange(from, to Date) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: both bounds are required", ErrInvalidRange)
	}
	if from.After(to) {
		return fmt.Errorf("%w: %s is after %s", ErrInvalidRange, from, to)
	}
	return nil
}
