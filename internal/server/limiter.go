package server

import (
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds the number of pipelines running at once. Requests that
// find it full are turned away rather than queued.
type Limiter struct {
	semaphore *semaphore.Weighted
	active    atomic.Int64
}

// NewLimiter allows up to maxConcurrent pipelines.
func NewLimiter(maxConcurrent int64) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Limiter{semaphore: semaphore.NewWeighted(maxConcurrent)}
}

// TryAcquire takes a slot without waiting. The returned release func must
// be called exactly once when ok is true.
func (l *Limiter) TryAcquire() (release func(), ok bool) {
	if !l.semaphore.TryAcquire(1) {
		return nil, false
	}
	l.active.Add(1)
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			l.active.Add(-1)
			l.semaphore.Release(1)
		}
	}, true
}

// Active returns the number of pipelines currently running.
func (l *Limiter) Active() int64 {
	return l.active.Load()
}

// WaitIdle blocks until no pipelines are running, or the timeout expires.
// Returns true if idle, false if timed out.
func (l *Limiter) WaitIdle(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if l.active.Load() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(50 * time.Millisecond):
		}
	}
}
