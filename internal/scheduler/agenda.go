package scheduler

import "strings"

// Source identifies what produced an occupancy entry.
type Source string

const (
	// SourceFixed marks occupancy from a weekly fixed schedule.
	SourceFixed Source = "fixed"
	// SourceApproved marks occupancy from an approved booking request.
	SourceApproved Source = "approved"
)

// OccupancyEntry is one line of a room agenda. It is derived on every query and never stored.
type OccupancyEntry struct {
	Date        Date
	Source      Source
	Periods     PeriodSet
	Annotation  string
	ReferenceID string
	RequesterID string
}

// ProjectAgenda lists the occupancy of roomID for every date in [from, to].
//
// Entries are ordered by date; on the same date fixed entries precede approved
// ones. Overlaps are reported as they are, without conflict detection.
func ProjectAgenda(schedules []FixedSchedule, bookings []BookingRequest, roomID string, from, to Date) ([]OccupancyEntry, error) {
	if err := ValidateRange(from, to); err != nil {
		return nil, err
	}

	fixedByDate := make(map[string][]OccupancyEntry)
	for _, schedule := range schedules {
		if schedule.RoomID != roomID || len(schedule.Periods) == 0 {
			continue
		}
		for _, day := range schedule.OccurrencesWithin(from, to) {
			key := day.String()
			fixedByDate[key] = append(fixedByDate[key], OccupancyEntry{
				Date:        day,
				Source:      SourceFixed,
				Periods:     NewPeriodSet(schedule.Periods...),
				Annotation:  strings.TrimSpace(schedule.Description),
				ReferenceID: schedule.ID,
			})
		}
	}

	approvedByDate := make(map[string][]BookingRequest)
	for _, booking := range bookings {
		if booking.Status != StatusApproved || booking.RoomID != roomID {
			continue
		}
		if booking.Date.Before(from) || booking.Date.After(to) {
			continue
		}
		key := booking.Date.String()
		approvedByDate[key] = append(approvedByDate[key], booking)
	}

	entries := make([]OccupancyEntry, 0)
	for day := from; !day.After(to); day = day.AddDays(1) {
		entries = append(entries, fixedByDate[day.String()]...)
		for _, booking := range approvedByDate[day.String()] {
			annotation := strings.TrimSpace(booking.Description)
			if annotation == "" {
				annotation = booking.RequesterID
			}
			entries = append(entries, OccupancyEntry{
				Date:        day,
				Source:      SourceApproved,
				Periods:     NewPeriodSet(booking.Periods...),
				Annotation:  annotation,
				ReferenceID: booking.ID,
				RequesterID: booking.RequesterID,
			})
		}
	}
	return entries, nil
}
