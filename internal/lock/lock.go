// Package lock provides short-lived exclusive locks that serialize the
// check-then-insert sequence of booking submissions for one room and date.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when the lock stays held by someone else until
// the caller's wait budget or context runs out.
var ErrNotAcquired = errors.New("lock: not acquired")

// Lease is a held lock. Release is safe to call more than once.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker acquires exclusive leases by key. The ttl bounds how long a lease
// survives a crashed holder.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// SlotKey builds the lock key shared by every submission for a room and date.
func SlotKey(roomID, date string) string {
	return "lab:booking:" + roomID + ":" + date
}
