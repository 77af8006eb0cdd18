package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps per-key request timestamps in process. Best effort:
// quota is not shared across instances. Check never returns an error.
type MemoryLimiter struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	windows map[string][]time.Time

	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// NewMemoryLimiter creates an in-process limiter and starts its background
// sweep, which evicts keys whose entire window has aged out so idle keys do
// not accumulate.
func NewMemoryLimiter(policy Policy, sweepInterval time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		policy:        policy,
		now:           time.Now,
		windows:       make(map[string][]time.Time),
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Check prunes the key's window and admits the request if fewer than
// MaxRequests timestamps remain. A rejected attempt is not recorded, so
// rejections do not extend the lockout indefinitely.
func (l *MemoryLimiter) Check(_ context.Context, key string) (Result, error) {
	now := l.now()
	cutoff := now.Add(-l.policy.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	valid := pruneBefore(l.windows[key], cutoff)

	if len(valid) >= l.policy.MaxRequests {
		l.windows[key] = valid
		return Result{Allowed: false}, nil
	}

	l.windows[key] = append(valid, now)
	return Result{Allowed: true}, nil
}

// Close stops the background sweep.
func (l *MemoryLimiter) Close() error {
	l.stopOnce.Do(func() { close(l.stop) })
	return nil
}

func (l *MemoryLimiter) sweepLoop() {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *MemoryLimiter) sweep() {
	cutoff := l.now().Add(-l.policy.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, timestamps := range l.windows {
		valid := pruneBefore(timestamps, cutoff)
		if len(valid) == 0 {
			delete(l.windows, key)
		} else {
			l.windows[key] = valid
		}
	}
}

// pruneBefore drops timestamps at or before cutoff. Timestamps are appended
// in order, so the first in-window index bounds the valid suffix.
func pruneBefore(timestamps []time.Time, cutoff time.Time) []time.Time {
	for i, t := range timestamps {
		if t.After(cutoff) {
			return append([]time.Time(nil), timestamps[i:]...)
		}
	}
	return nil
}
