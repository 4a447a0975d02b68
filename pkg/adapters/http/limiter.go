package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// userLimiter keeps one token bucket per user.
type userLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*visitor
	idle     time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newUserLimiter(perSecond float64, burst int) *userLimiter {
	return &userLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*visitor),
		idle:     10 * time.Minute,
	}
}

// Allow reports whether user may send another message now.
func (l *userLimiter) Allow(user string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.limiters[user]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[user] = v
	}
	v.lastSeen = now

	// Forget idle users while we hold the lock anyway.
	if len(l.limiters) > 1024 {
		for id, other := range l.limiters {
			if now.Sub(other.lastSeen) > l.idle {
				delete(l.limiters, id)
			}
		}
	}
	return v.limiter.AllowN(now, 1)
}
