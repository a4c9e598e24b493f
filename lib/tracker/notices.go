package tracker

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// noticeLimiter spaces out "could not be checked" notices per job key.
type noticeLimiter struct {
	mu       sync.Mutex
	every    time.Duration
	limiters map[Key]*rate.Limiter
}

func newNoticeLimiter(every time.Duration) *noticeLimiter {
	return &noticeLimiter{
		every:    every,
		limiters: make(map[Key]*rate.Limiter),
	}
}

func (l *noticeLimiter) Allow(key Key) bool {
	if l.every <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.every), 1)
		l.limiters[key] = limiter
	}
	return limiter.Allow()
}

// Forget drops the limiter of a job that no longer exists.
func (l *noticeLimiter) Forget(key Key) {
	l.mu.Lock()
	delete(l.limiters, key)
	l.mu.Unlock()
}
