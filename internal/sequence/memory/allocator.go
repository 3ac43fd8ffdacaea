// Package memory provides an in-process sequence counter for tests and
// single-node use.
package memory

import (
	"context"
	"sync"
)

// Allocator counts per-day sequences in memory.
type Allocator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewAllocator creates an in-memory sequence allocator.
func NewAllocator() *Allocator {
	return &Allocator{
		counters: make(map[string]int64),
	}
}

// Next returns the next sequence number for the given day (YYYYMMDD).
func (a *Allocator) Next(_ context.Context, day string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.counters[day]++
	return a.counters[day], nil
}
