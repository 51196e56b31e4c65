// Package serial provides per-key serialization of scoring passes.
//
// A scoring pass is a read-compute-write cycle over one race's finish
// rows; two overlapping passes for the same race could interleave their
// writes inconsistently. The guard keeps at most one pass in flight per
// race while passes for different races proceed concurrently.
package serial

import (
	"context"
	"sync"
)

// Guard serializes critical sections per key.
type Guard interface {
	// Do runs fn while holding the lock for key, honoring ctx while
	// waiting for the lock.
	Do(ctx context.Context, key string, fn func() error) error
}

// InMemoryGuard implements Guard with one channel-based lock per key.
type InMemoryGuard struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewInMemoryGuard creates an empty guard.
func NewInMemoryGuard() *InMemoryGuard {
	return &InMemoryGuard{
		locks: make(map[string]chan struct{}),
	}
}

// Do runs fn while holding the per-key lock.
func (g *InMemoryGuard) Do(ctx context.Context, key string, fn func() error) error {
	lock := g.lockFor(key)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-lock }()
	return fn()
}

func (g *InMemoryGuard) lockFor(key string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[key]
	if !ok {
		lock = make(chan struct{}, 1)
		g.locks[key] = lock
	}
	return lock
}
