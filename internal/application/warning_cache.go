package application

import (
	"strconv"
	"sync"
	"time"

	"github.com/example/lab-booking/internal/persistence"
)

// warningCache keeps the overlap warnings computed for a room's fixed
// schedules until the schedules change or the entry expires. Entries carry a
// fingerprint of the schedules they were computed from, so a replica that
// missed an invalidation still recomputes once the stored rows differ.
type warningCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]warningCacheEntry
}

type warningCacheEntry struct {
	fingerprint string
	warnings    []OverlapWarning
	expiresAt   time.Time
}

func newWarningCache(ttl time.Duration, maxEntries int, now func() time.Time) *warningCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &warningCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]warningCacheEntry),
	}
}

func (c *warningCache) Get(roomID, fingerprint string) ([]OverlapWarning, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[roomID]
	c.mu.RUnlock()
	if !ok || entry.fingerprint != fingerprint {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, roomID)
		c.mu.Unlock()
		return nil, false
	}
	return cloneWarnings(entry.warnings), true
}

func (c *warningCache) Store(roomID, fingerprint string, warnings []OverlapWarning) {
	if c == nil {
		return
	}
	cloned := cloneWarnings(warnings)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if _, exists := c.entries[roomID]; !exists && len(c.entries) >= c.maxEntries {
		c.evictSoonestLocked()
	}
	c.entries[roomID] = warningCacheEntry{fingerprint: fingerprint, warnings: cloned, expiresAt: expiry}
}

// Invalidate drops the entry of roomID, or every entry when roomID is empty.
func (c *warningCache) Invalidate(roomID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if roomID == "" {
		c.entries = make(map[string]warningCacheEntry)
		return
	}
	delete(c.entries, roomID)
}

func (c *warningCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// evictSoonestLocked drops the room whose warnings would expire first.
func (c *warningCache) evictSoonestLocked() {
	var (
		victim string
		oldest time.Time
	)
	for roomID, entry := range c.entries {
		if victim == "" || entry.expiresAt.Before(oldest) || (entry.expiresAt.Equal(oldest) && roomID < victim) {
			victim, oldest = roomID, entry.expiresAt
		}
	}
	delete(c.entries, victim)
}

func cloneWarnings(warnings []OverlapWarning) []OverlapWarning {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]OverlapWarning, len(warnings))
	for i, w := range warnings {
		w.Periods = append(w.Periods[:0:0], w.Periods...)
		out[i] = w
	}
	return out
}

// schedulesFingerprint summarises a room's schedules by count and newest
// update, which changes on every create, update and delete.
func schedulesFingerprint(schedules []persistence.FixedSchedule) string {
	var newest time.Time
	for _, schedule := range schedules {
		if schedule.UpdatedAt.After(newest) {
			newest = schedule.UpdatedAt
		}
	}
	return strconv.Itoa(len(schedules)) + "@" + strconv.FormatInt(newest.UnixNano(), 10)
}
