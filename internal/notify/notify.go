// Package notify publishes booking lifecycle events.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/lab-booking/internal/logging"
)

// EventType names a booking lifecycle transition.
type EventType string

const (
	EventSubmitted EventType = "booking.submitted"
	EventApproved  EventType = "booking.approved"
	EventRejected  EventType = "booking.rejected"
	EventCancelled EventType = "booking.cancelled"
)

// DefaultQueue is the durable queue receiving booking events.
const DefaultQueue = "lab.booking.events"

// Event is the JSON payload published for every booking transition.
type Event struct {
	Type        EventType `json:"type"`
	BookingID   string    `json:"booking_id"`
	RoomID      string    `json:"room_id"`
	RequesterID string    `json:"requester_id"`
	Date        string    `json:"date"`
	Periods     []int     `json:"periods"`
	Status      string    `json:"status"`
	Actor       string    `json:"actor"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Notifier delivers events. Delivery failures are returned so callers can log
// them; booking state is never rolled back because of a failed notification.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier writes events to the context logger. It is used when no broker
// is configured.
type LogNotifier struct {
	base *slog.Logger
}

// NewLogNotifier returns a notifier that logs through the context logger,
// falling back to base.
func NewLogNotifier(base *slog.Logger) *LogNotifier {
	return &LogNotifier{base: base}
}

// Notify logs the event at info level.
func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	logging.FromContextOr(ctx, n.base).InfoContext(ctx, "booking event",
		"event_type", string(event.Type),
		"booking_id", event.BookingID,
		"room_id", event.RoomID,
		"requester_id", event.RequesterID,
		"date", event.Date,
		"periods", event.Periods,
		"status", event.Status,
		"actor", event.Actor,
	)
	return nil
}
