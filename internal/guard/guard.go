// Package guard provides a lock whose acquisition gives up after a bounded
// wait. Callers decide what giving up means: the LED ticker skips a frame,
// mutations are dropped.
package guard

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// Guard serialises access to a value of type T.
type Guard[T any] struct {
	sem *semaphore.Weighted
	v   T
}

// New wraps v in a Guard.
func New[T any](v T) *Guard[T] {
	return &Guard[T]{
		sem: semaphore.NewWeighted(1),
		v:   v,
	}
}

// Do runs fn with exclusive access to the guarded value. It waits at most
// timeout for the lock and reports false, without calling fn, if the lock
// could not be taken in time. A non-positive timeout never waits.
func (g *Guard[T]) Do(timeout time.Duration, fn func(T)) bool {
	if !g.acquire(timeout) {
		return false
	}
	defer g.sem.Release(1)
	fn(g.v)
	return true
}

func (g *Guard[T]) acquire(timeout time.Duration) bool {
	if g.sem.TryAcquire(1) {
		return true
	}
	if timeout <= 0 {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return g.sem.Acquire(ctx, 1) == nil
}
