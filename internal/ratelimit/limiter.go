// Package ratelimit provides per-identity token bucket rate limiting.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// DefaultRetryAfter is reported when a limiter can never satisfy a request.
const DefaultRetryAfter = time.Second

// Config defines the rate limiting configuration.
type Config struct {
	RequestsPerSecond float64       // Sustained requests per second per key
	Burst             int           // Bucket size per key
	IdleTTL           time.Duration // Idle limiters are dropped after this long
}

// Limiter keeps one token bucket per key. Buckets that go unused for IdleTTL
// expire from the cache, so a returning key starts with a full bucket.
type Limiter struct {
	limiters *cache.Cache
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

// New creates a Limiter. The cache janitor runs every IdleTTL.
func New(cfg Config) *Limiter {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Limiter{
		limiters: cache.New(ttl, ttl),
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Allow consumes one token for key. When the bucket is empty it returns false
// and how long the caller should wait before retrying.
func (l *Limiter) Allow(key string) (allowed bool, retryAfter time.Duration) {
	limiter := l.limiterFor(key)
	now := l.now()

	reservation := limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, DefaultRetryAfter
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// limiterFor returns the bucket for key, creating it on first use and
// extending its expiry on every use.
func (l *Limiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cached, found := l.limiters.Get(key); found {
		limiter := cached.(*rate.Limiter)
		l.limiters.Set(key, limiter, l.ttl)
		return limiter
	}

	limiter := rate.NewLimiter(l.limit, l.burst)
	l.limiters.Set(key, limiter, l.ttl)
	return limiter
}

// Len returns the number of tracked keys, including expired ones the janitor
// has not removed yet.
func (l *Limiter) Len() int {
	return l.limiters.ItemCount()
}

// RetryAfterSeconds renders d as a Retry-After header value, rounded up and
// never below one second.
func RetryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
