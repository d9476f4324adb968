package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/lab-booking/internal/persistence"
	"github.com/example/lab-booking/internal/persistence/sqlstore"
)

// StoreHarness wraps a migrated SQLite store living in a temporary directory.
type StoreHarness struct {
	Store *sqlstore.Store
	Clock *Clock
}

// NewStoreHarness opens and migrates a fresh store. The store is closed when
// the test finishes.
func NewStoreHarness(tb testing.TB, clock *Clock) *StoreHarness {
	tb.Helper()

	if clock == nil {
		clock = NewClock(ReferenceTime())
	}
	path := filepath.Join(tb.TempDir(), "labbooking.db")
	store, err := sqlstore.Open(context.Background(), sqlstore.DialectSQLite, path, sqlstore.WithClock(clock.Now))
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate store: %v", err)
	}
	return &StoreHarness{Store: store, Clock: clock}
}

// SeedRooms inserts rooms or fails the test.
func (h *StoreHarness) SeedRooms(tb testing.TB, rooms ...persistence.Room) {
	tb.Helper()
	for _, room := range rooms {
		if err := h.Store.CreateRoom(context.Background(), room); err != nil {
			tb.Fatalf("seed room %s: %v", room.ID, err)
		}
	}
}

// SeedFixedSchedules inserts fixed schedules or fails the test.
func (h *StoreHarness) SeedFixedSchedules(tb testing.TB, schedules ...persistence.FixedSchedule) {
	tb.Helper()
	for _, schedule := range schedules {
		if err := h.Store.CreateFixedSchedule(context.Background(), schedule); err != nil {
			tb.Fatalf("seed fixed schedule %s: %v", schedule.ID, err)
		}
	}
}

// SeedBookings inserts bookings or fails the test.
func (h *StoreHarness) SeedBookings(tb testing.TB, bookings ...persistence.Booking) {
	tb.Helper()
	for _, booking := range bookings {
		if err := h.Store.CreateBooking(context.Background(), booking); err != nil {
			tb.Fatalf("seed booking %s: %v", booking.ID, err)
		}
	}
}
