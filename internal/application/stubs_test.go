package application

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/example/lab-booking/internal/lock"
	"github.com/example/lab-booking/internal/notify"
	"github.com/example/lab-booking/internal/persistence"
	"github.com/example/lab-booking/internal/scheduler"
)

var testNow = time.Date(2024, time.March, 1, 11, 0, 0, 0, time.UTC)

var (
	adminPrincipal   = Principal{UserID: "admin-1", Role: RoleAdmin}
	teacherPrincipal = Principal{UserID: "prof-a", Role: RoleTeacher}
	otherTeacher     = Principal{UserID: "prof-b", Role: RoleTeacher}
)

// memoryRepo is an in-memory implementation of the room, fixed schedule and
// booking repositories.
type memoryRepo struct {
	mu        sync.Mutex
	rooms     map[string]persistence.Room
	schedules map[string]persistence.FixedSchedule
	bookings  map[string]persistence.Booking

	listSchedulesErr error
	createBookingErr error
	listBookingsErr  error
	transitionErr    error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		rooms:     make(map[string]persistence.Room),
		schedules: make(map[string]persistence.FixedSchedule),
		bookings:  make(map[string]persistence.Booking),
	}
}

func (m *memoryRepo) withRoom(id string) *memoryRepo {
	m.rooms[id] = persistence.Room{ID: id, Name: "Lab " + id}
	return m
}

func (m *memoryRepo) CreateRoom(_ context.Context, room persistence.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rooms {
		if existing.Name == room.Name {
			return persistence.ErrDuplicate
		}
	}
	m.rooms[room.ID] = room
	return nil
}

func (m *memoryRepo) GetRoom(_ context.Context, id string) (persistence.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (m *memoryRepo) ListRooms(context.Context) ([]persistence.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]persistence.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryRepo) CreateFixedSchedule(_ context.Context, schedule persistence.FixedSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[schedule.ID] = schedule
	return nil
}

func (m *memoryRepo) UpdateFixedSchedule(_ context.Context, schedule persistence.FixedSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[schedule.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.schedules[schedule.ID] = schedule
	return nil
}

func (m *memoryRepo) GetFixedSchedule(_ context.Context, id string) (persistence.FixedSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	schedule, ok := m.schedules[id]
	if !ok {
		return persistence.FixedSchedule{}, persistence.ErrNotFound
	}
	return schedule, nil
}

func (m *memoryRepo) ListFixedSchedules(_ context.Context, roomID string) ([]persistence.FixedSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listSchedulesErr != nil {
		return nil, m.listSchedulesErr
	}
	out := make([]persistence.FixedSchedule, 0)
	for _, schedule := range m.schedules {
		if roomID == "" || schedule.RoomID == roomID {
			out = append(out, schedule)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepo) DeleteFixedSchedule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.schedules, id)
	return nil
}

func (m *memoryRepo) CreateBooking(_ context.Context, booking persistence.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createBookingErr != nil {
		return m.createBookingErr
	}
	m.bookings[booking.ID] = booking
	return nil
}

func (m *memoryRepo) GetBooking(_ context.Context, id string) (persistence.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return booking, nil
}

func (m *memoryRepo) ListBookings(_ context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listBookingsErr != nil {
		return nil, m.listBookingsErr
	}
	out := make([]persistence.Booking, 0)
	for _, b := range m.bookings {
		switch {
		case filter.RoomID != "" && b.RoomID != filter.RoomID,
			filter.RequesterID != "" && b.RequesterID != filter.RequesterID,
			!filter.Date.IsZero() && !b.Date.Equal(filter.Date),
			!filter.From.IsZero() && b.Date.Before(filter.From),
			!filter.To.IsZero() && b.Date.After(filter.To),
			filter.Status != "" && b.Status != filter.Status:
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryRepo) TransitionBooking(_ context.Context, t persistence.BookingTransition) (persistence.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transitionErr != nil {
		return persistence.Booking{}, m.transitionErr
	}
	booking, ok := m.bookings[t.ID]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	if booking.Status != t.From {
		return persistence.Booking{}, persistence.ErrStaleState
	}
	booking.Status = t.To
	booking.DecidedBy = t.DecidedBy
	decided := t.DecidedAt
	booking.DecidedAt = &decided
	m.bookings[t.ID] = booking
	return booking, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, event notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingNotifier) types() []notify.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string, time.Duration) (lock.Lease, error) {
	return nil, lock.ErrNotAcquired
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

func mondayBooking(id, requester string, status scheduler.Status, periods ...scheduler.Period) persistence.Booking {
	return persistence.Booking{
		ID:          id,
		RoomID:      "lab-1",
		RequesterID: requester,
		Date:        scheduler.MustParseDate("2024-03-04"),
		Periods:     scheduler.NewPeriodSet(periods...),
		Status:      status,
		Description: "aula",
	}
}

var errBoom = errors.New("boom")

// stallingNotifier blocks its first Notify call until unblock is closed.
type stallingNotifier struct {
	entered chan struct{}
	unblock chan struct{}
	once    sync.Once
}

func newStallingNotifier() *stallingNotifier {
	return &stallingNotifier{entered: make(chan struct{}), unblock: make(chan struct{})}
}

func (n *stallingNotifier) Notify(ctx context.Context, _ notify.Event) error {
	first := false
	n.once.Do(func() { first = true })
	if !first {
		return nil
	}
	close(n.entered)
	select {
	case <-n.unblock:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
