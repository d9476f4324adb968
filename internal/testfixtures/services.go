package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/example/lab-booking/internal/application"
	"github.com/example/lab-booking/internal/lock"
	"github.com/example/lab-booking/internal/notify"
	"github.com/example/lab-booking/internal/persistence/sqlstore"
	"github.com/example/lab-booking/internal/scheduler"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Location    *time.Location
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Location:    time.UTC,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLocation overrides the timezone deciding "today".
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = loc
	}
}

// Services bundles every application service wired to one store.
type Services struct {
	Rooms          *application.RoomService
	FixedSchedules *application.FixedScheduleService
	Availability   *application.AvailabilityService
	Bookings       *application.BookingService
	Notifier       *RecordingNotifier
}

// NewServices wires the application services to store with an in-process
// lock and a recording notifier.
func (f *ServiceFactory) NewServices(store *sqlstore.Store) Services {
	resolver, _ := scheduler.NewResolver(scheduler.DefaultPeriodRange())
	notifier := &RecordingNotifier{}
	now := f.Clock.NowFunc()

	return Services{
		Rooms:          application.NewRoomServiceWithLogger(store, f.IDGenerator.PrefixFunc("room"), now, f.Logger),
		FixedSchedules: application.NewFixedScheduleService(store, store, resolver, f.IDGenerator.PrefixFunc("fixed"), now, f.Logger),
		Availability:   application.NewAvailabilityService(store, store, store, resolver, f.Logger),
		Bookings: application.NewBookingService(application.BookingServiceConfig{
			Rooms:       store,
			Schedules:   store,
			Bookings:    store,
			Resolver:    resolver,
			Locker:      lock.NewLocal(),
			Notifier:    notifier,
			IDGenerator: f.IDGenerator.PrefixFunc("booking"),
			Now:         now,
			Location:    f.Location,
			LockTTL:     time.Second,
			Logger:      f.Logger,
		}),
		Notifier: notifier,
	}
}

// RecordingNotifier captures published events.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	Err    error
}

// Notify records event and returns the configured error.
func (r *RecordingNotifier) Notify(_ context.Context, event notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// Events returns a copy of the recorded events.
func (r *RecordingNotifier) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order.
func (r *RecordingNotifier) Types() []notify.EventType {
	events := r.Events()
	out := make([]notify.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
