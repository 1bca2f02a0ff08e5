/*
Package limiter provides request rate limiting.

Two limiters live here: a fixed-window counter limiter guarding the
authentication endpoints, and a token-bucket limiter throttling WebSocket
connection attempts. The window limiter counts through a CounterStore so the
counters can live in process memory or in Redis.
*/
package limiter

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/resp"
)

// CounterStore is the keyed counter behind the window limiter. Incr atomically
// increments the counter for key, starting a fresh window of the given length
// when the key is absent or its window has elapsed.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Result reports the outcome of a window limiter check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait before retrying.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// WindowLimiter counts requests per key in fixed windows.
type WindowLimiter struct {
	store  CounterStore
	window time.Duration
	max    int
	scope  string
	now    func() time.Time
}

// NewWindowLimiter creates a window limiter allowing max requests per window.
// The scope separates counters of limiters sharing one store.
func NewWindowLimiter(store CounterStore, scope string, max int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		store:  store,
		window: window,
		max:    max,
		scope:  scope,
		now:    time.Now,
	}
}

// Check increments the counter for key and reports whether the request is
// within the window budget.
func (l *WindowLimiter) Check(ctx context.Context, key string) (Result, error) {
	count, resetAt, err := l.store.Incr(ctx, l.scope+":"+key, l.window)
	if err != nil {
		return Result{}, err
	}

	remaining := l.max - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= int64(l.max),
		Limit:     l.max,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Middleware enforces the window limit per client IP, decorating every
// response with X-RateLimit headers. Exhausted callers get 429 with a
// Retry-After header. Store failures let the request through: losing a count
// beats refusing all traffic.
func (l *WindowLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)

		result, err := l.Check(r.Context(), key)
		if err != nil {
			logx.Error(err, "Rate limit counter store failed, allowing request", "scope", l.scope)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(result.RetryAfter(l.now()).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			logx.Warn("Rate limit exceeded", "scope", l.scope, "key", key)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the caller's network address, falling back to the raw
// RemoteAddr when it carries no port.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if ip == "" {
		ip = "unknown_ip"
	}

	return ip
}
