package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator produces deterministic identifiers for tests. Each prefix keeps
// its own counter so rooms, schedules and bookings number independently.
type IDGenerator struct {
	mu       sync.Mutex
	prefix   string
	counters map[string]uint64
}

// NewIDGenerator constructs a generator that yields identifiers with the given
// prefix. When prefix is empty, "id" is used.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix, counters: make(map[string]uint64)}
}

// Next returns the next identifier for the default prefix.
func (g *IDGenerator) Next() string {
	return g.NextFor(g.currentPrefix())
}

// NextFor returns the next identifier for prefix.
func (g *IDGenerator) NextFor(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[prefix]++
	return fmt.Sprintf("%s-%d", prefix, g.counters[prefix])
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// PrefixFunc returns a generator function bound to prefix.
func (g *IDGenerator) PrefixFunc(prefix string) func() string {
	if g == nil {
		return func() string { return "" }
	}
	return func() string { return g.NextFor(prefix) }
}

// SetPrefix updates the default prefix.
func (g *IDGenerator) SetPrefix(prefix string) {
	g.mu.Lock()
	g.prefix = prefix
	g.mu.Unlock()
}

// Reset clears every counter.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.counters = make(map[string]uint64)
	g.mu.Unlock()
}

func (g *IDGenerator) currentPrefix() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prefix
}
