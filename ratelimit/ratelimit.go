package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateFunc supplies an effective rate at acquire time, allowing callers to
// throttle dynamically, e.g. slowing down under backpressure.
type RateFunc func() float64

// Limiter gates call frequency to at most N calls per second. Acquisition is
// serialized under a single lock per limiter; callers contend for the gate
// and never bypass it. The limiter never fails, it only delays.
type Limiter struct {
	mu   sync.Mutex
	last time.Time
}

func New() *Limiter {
	return &Limiter{}
}

// Acquire blocks until at least 1/callsPerSecond has elapsed since the
// previous successful acquire, records the new timestamp and returns. A rate
// of zero or less means unlimited. The only error condition is context
// cancellation during the wait.
func (l *Limiter) Acquire(ctx context.Context, callsPerSecond float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if callsPerSecond > 0 {
		minInterval := time.Duration(float64(time.Second) / callsPerSecond)
		if wait := minInterval - time.Since(l.last); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	l.last = time.Now()
	return nil
}

// AcquireFunc evaluates fn at acquire time and gates on the returned rate.
func (l *Limiter) AcquireFunc(ctx context.Context, fn RateFunc) error {
	return l.Acquire(ctx, fn())
}
