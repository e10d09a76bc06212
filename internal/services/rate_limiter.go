package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// GuessLimiter enforces the per-user message budget: a burst of `burst`
// messages refilled over `window`. Messages over the budget are dropped
// silently by the caller. Entries idle for longer than the window are
// swept out; their budget has fully refilled, so a fresh limiter is
// equivalent.
type GuessLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*userLimiter
	limit     rate.Limit
	burst     int
	window    time.Duration
	lastSweep time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewGuessLimiter allows at most burst messages per rolling window per
// user.
func NewGuessLimiter(burst int, window time.Duration) *GuessLimiter {
	return &GuessLimiter{
		limiters:  make(map[string]*userLimiter),
		limit:     rate.Every(window / time.Duration(burst)),
		burst:     burst,
		window:    window,
		lastSweep: time.Now(),
	}
}

func (l *GuessLimiter) Allow(userID string) bool {
	now := time.Now()

	l.mu.Lock()
	l.sweepLocked(now)
	entry, ok := l.limiters[userID]
	if !ok {
		entry = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.Allow()
}

func (l *GuessLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for id, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.window {
			delete(l.limiters, id)
		}
	}
}
