package core

// limiter.go caps the number of parse passes running at once.
//
// Each pass holds one slot for as long as its records are being streamed.
// When all slots are taken, callers wait up to maxWait before failing with
// ErrTooManyPasses. WaitForDrain supports graceful shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyPasses is returned when no slot frees up within the wait timeout.
// Clients should retry after a short delay.
var ErrTooManyPasses = errors.New("too many concurrent parse requests, please try again later")

// DefaultMaxConcurrentPasses is the default limit for parallel passes.
const DefaultMaxConcurrentPasses = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// PassLimiter bounds concurrent parse passes with a weighted semaphore.
type PassLimiter struct {
	sem     *semaphore.Weighted
	max     int
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewPassLimiter creates a limiter for at most maxConcurrent passes.
func NewPassLimiter(maxConcurrent int, maxWait time.Duration) *PassLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentPasses
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &PassLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     maxConcurrent,
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. The caller must call Release when done.
func (l *PassLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyPasses
	}
	l.mu.Lock()
	l.active++
	l.mu.Unlock()
	return nil
}

// TryAcquire takes a slot without blocking.
func (l *PassLimiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.mu.Lock()
	l.active++
	l.mu.Unlock()
	return true
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *PassLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	l.sem.Release(1)
}

// ActiveCount returns the number of running passes.
func (l *PassLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *PassLimiter) MaxConcurrent() int {
	return l.max
}

// Available returns the number of free slots.
func (l *PassLimiter) Available() int {
	return l.max - l.ActiveCount()
}

// WaitForDrain blocks until no pass is running or ctx is done.
func (l *PassLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// PassLimiterStatus is a snapshot of the limiter state.
type PassLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *PassLimiter) Status() PassLimiterStatus {
	active := l.ActiveCount()
	return PassLimiterStatus{
		Active:        active,
		Available:     l.max - active,
		MaxConcurrent: l.max,
	}
}
