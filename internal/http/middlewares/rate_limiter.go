package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const maxTrackedKeys = 10000

// RateLimiter is a fixed-window counter per key. One instance guards one
// group of routes, e.g. login attempts or chat sends.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	used int
	ends time.Time
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

func NewRateLimiter(limit int, per time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  per,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Allow spends one unit for key. A limit of zero or less disables limiting.
func (rl *RateLimiter) Allow(key string) Decision {
	if rl.limit <= 0 {
		return Decision{Allowed: true, Remaining: math.MaxInt32}
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.windows) >= maxTrackedKeys {
		rl.sweep(now)
	}

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.ends) {
		w = &window{ends: now.Add(rl.window)}
		rl.windows[key] = w
	}

	if w.used >= rl.limit {
		return Decision{RetryAfter: w.ends.Sub(now)}
	}
	w.used++
	return Decision{Allowed: true, Remaining: rl.limit - w.used}
}

// sweep drops finished windows. Caller holds rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, w := range rl.windows {
		if !now.Before(w.ends) {
			delete(rl.windows, k)
		}
	}
}

// RateLimiterMiddleware limits requests by keyFn, falling back to the client
// IP when keyFn yields nothing.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		d := rl.Allow(key)
		if rl.limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		}
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(retrySeconds(d.RetryAfter)))
			abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}
		c.Next()
	}
}

// retrySeconds rounds up so clients never retry inside the same window.
func retrySeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// KeyByIP is for the public auth routes.
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// KeyByUserOrIP keys authenticated writes (chat sends, connection requests)
// by the caller so users behind one NAT do not share a budget.
func KeyByUserOrIP(c *gin.Context) string {
	if id, ok := UserIDFromContext(c); ok && id != "" {
		return "user:" + id
	}
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}
	return ip
}
