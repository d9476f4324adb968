package scheduler

// OccupiedByApprovedBookings returns the union of periods of approved bookings
// for roomID on date.
func OccupiedByApprovedBookings(bookings []BookingRequest, roomID string, date Date) PeriodSet {
	occupied := NewPeriodSet()
	for _, booking := range bookings {
		if booking.Status != StatusApproved || booking.RoomID != roomID || !booking.Date.Equal(date) {
			continue
		}
		occupied = occupied.Union(booking.Periods)
	}
	return occupied
}

// FindPendingDuplicate returns the first pending booking from requesterID for
// roomID on date whose period set is exactly equal to periods.
//
// Overlapping but unequal sets are not duplicates: a pending {1,2} does not
// block a new request for {1,3}.
func FindPendingDuplicate(bookings []BookingRequest, requesterID, roomID string, date Date, periods PeriodSet) (BookingRequest, bool) {
	for _, booking := range bookings {
		if booking.Status != StatusPending {
			continue
		}
		if booking.RequesterID != requesterID || booking.RoomID != roomID || !booking.Date.Equal(date) {
			continue
		}
		if booking.Periods.Equal(periods) {
			return booking, true
		}
	}
	return BookingRequest{}, false
}
