package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ConnLimiter throttles connection attempts per client IP with a token
// bucket. Used on the WebSocket endpoint, where a fixed window is too coarse
// for reconnect bursts.
type ConnLimiter struct {
	// mu protects concurrent access to the limits map.
	mu sync.RWMutex

	// limits maps client IP to its token bucket.
	limits map[string]*rate.Limiter

	// r is the sustained rate of allowed connection attempts per second.
	r rate.Limit

	// b is the burst capacity.
	b int
}

// NewConnLimiter creates a connection limiter and starts a background cleanup
// of idle buckets.
func NewConnLimiter(r rate.Limit, b int) *ConnLimiter {
	c := &ConnLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go c.cleanupIdle()

	return c
}

// Allow reports whether the given IP may attempt a connection now.
func (c *ConnLimiter) Allow(ip string) bool {
	c.mu.RLock()
	limiter, exists := c.limits[ip]
	c.mu.RUnlock()

	if !exists {
		c.mu.Lock()
		limiter, exists = c.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(c.r, c.b)
			c.limits[ip] = limiter
		}
		c.mu.Unlock()
	}

	return limiter.Allow()
}

// cleanupIdle periodically drops buckets that refilled completely; an IP with
// a full bucket has been quiet long enough to forget.
func (c *ConnLimiter) cleanupIdle() {
	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		for ip, limiter := range c.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(c.limits, ip)
			}
		}
		c.mu.Unlock()
	}
}
