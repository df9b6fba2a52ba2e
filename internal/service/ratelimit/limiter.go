package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket per key (client IP for the retrain endpoint).
// Idle buckets are dropped once they would be full again.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*entry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	lastSwep time.Time
}

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// New allows burst requests at once, refilled at refillPerSec tokens per second.
func New(burst, refillPerSec float64) *Limiter {
	b := int(burst)
	if b < 1 {
		b = 1
	}
	idle := time.Hour
	if refillPerSec > 0 {
		idle = time.Duration(float64(b)/refillPerSec*float64(time.Second)) + time.Minute
	}
	return &Limiter{
		m:       make(map[string]*entry),
		limit:   rate.Limit(refillPerSec),
		burst:   b,
		idleTTL: idle,
		now:     time.Now,
	}
}

// Allow consumes one token for key if available.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.m[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = e
	}
	e.seen = now
	l.sweepLocked(now)
	return e.lim.AllowN(now, 1)
}

func (l *Limiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSwep) < l.idleTTL {
		return
	}
	l.lastSwep = now
	for k, e := range l.m {
		if now.Sub(e.seen) > l.idleTTL {
			delete(l.m, k)
		}
	}
}
