package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Local is an in-process Locker used when no Redis address is configured.
// Leases are released explicitly or when their ttl elapses.
type Local struct {
	mu    sync.Mutex
	slots map[string]*localSlot
}

type localSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocal returns an empty in-process locker.
func NewLocal() *Local {
	return &Local{slots: make(map[string]*localSlot)}
}

// Acquire blocks until key is free or ctx is done.
func (l *Local) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	slot := l.ref(key)

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, slot)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
	}

	lease := &localLease{owner: l, key: key, slot: slot}
	if ttl > 0 {
		lease.timer = time.AfterFunc(ttl, lease.expire)
	}
	return lease, nil
}

func (l *Local) ref(key string) *localSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (l *Local) unref(key string, slot *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

type localLease struct {
	owner *Local
	key   string
	slot  *localSlot
	timer *time.Timer
	once  sync.Once
}

func (l *localLease) Release(context.Context) error {
	if l.timer != nil {
		l.timer.Stop()
	}
	l.free()
	return nil
}

func (l *localLease) expire() {
	l.free()
}

func (l *localLease) free() {
	l.once.Do(func() {
		<-l.slot.ch
		l.owner.unref(l.key, l.slot)
	})
}
