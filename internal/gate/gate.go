// Package gate bounds the number of simultaneously live editor instances.
//
// Loading a document builds a full in-memory XML tree, so editor construction
// is the single memory-heavy operation in the service. Every code path that
// creates an editor must hold the gate from before construction until the
// editor is destroyed.
package gate

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate is a counting semaphore with FIFO waiters.
type Gate struct {
	sem *semaphore.Weighted
}

// New returns a gate admitting at most maxConcurrent holders. Values below 1
// are clamped to 1.
func New(maxConcurrent int64) *Gate {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Gate{sem: semaphore.NewWeighted(maxConcurrent)}
}

// Acquire blocks until a slot is free or ctx is done. Waiters are served in
// FIFO order.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release frees a slot. Must be called exactly once per successful Acquire.
func (g *Gate) Release() {
	g.sem.Release(1)
}

// TryAcquire acquires a slot without blocking. Used by tests to observe
// capacity.
func (g *Gate) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}
