// Package lock provides the mutual-exclusion handles shared across
// conversation sessions. Handles are explicit values passed to the
// components that need them; nothing in this package is global.
package lock

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Lock serializes access to a shared resource. Acquire blocks until the lock
// is held or ctx is done; every successful Acquire must be paired with
// exactly one Release.
type Lock interface {
	Acquire(ctx context.Context) error
	Release()
}

type mutex struct {
	sem *semaphore.Weighted
}

// New returns a Lock admitting one holder at a time. Waiters are served in
// FIFO order and give up when their context is cancelled.
func New() Lock {
	return &mutex{sem: semaphore.NewWeighted(1)}
}

func (m *mutex) Acquire(ctx context.Context) error {
	return m.sem.Acquire(ctx, 1)
}

func (m *mutex) Release() {
	m.sem.Release(1)
}

// Noop is a Lock that never blocks. Tests use it for single-threaded
// determinism.
type Noop struct{}

func (Noop) Acquire(ctx context.Context) error { return ctx.Err() }
func (Noop) Release()                          {}

// Set groups the two process-wide locks of the workflow.
type Set struct {
	// Agent serializes every model gateway call issued by agent steps.
	Agent Lock
	// Summary serializes every summarizer call.
	Summary Lock
}

// NewSet returns a Set of two independent locks.
func NewSet() Set {
	return Set{Agent: New(), Summary: New()}
}

// NoopSet returns a Set whose locks never block.
func NoopSet() Set {
	return Set{Agent: Noop{}, Summary: Noop{}}
}
