package limiter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a controllable time source shared by the store and limiter.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(clock *fakeClock, max int, window time.Duration) *WindowLimiter {
	store := &MemoryStore{
		entries: make(map[string]*windowEntry),
		now:     clock.Now,
	}

	l := NewWindowLimiter(store, "test", max, window)
	l.now = clock.Now
	return l
}

func TestWindowLimiterAllowsUpToMax(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 5, 5*time.Minute)

	for i := 0; i < 5; i++ {
		result, err := l.Check(context.Background(), "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5-(i+1), result.Remaining)
	}

	result, err := l.Check(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, result.Allowed, "request beyond max must be throttled")
	assert.Equal(t, 0, result.Remaining)
}

func TestWindowLimiterResetsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 2, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := l.Check(context.Background(), "1.2.3.4")
		require.NoError(t, err)
	}

	clock.Advance(time.Minute + time.Second)

	result, err := l.Check(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 1, result.Remaining)
}

func TestWindowLimiterKeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 1, time.Minute)

	first, err := l.Check(context.Background(), "1.1.1.1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	second, err := l.Check(context.Background(), "2.2.2.2")
	require.NoError(t, err)
	assert.True(t, second.Allowed)
}

func TestWindowLimiterMiddlewareHeaders(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 2, time.Minute)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := l.Middleware(next)

	doRequest := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = "10.0.0.1:51234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	w := doRequest()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	doRequest()

	w = doRequest()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

// failingStore always errors, simulating a dead Redis.
type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, errors.New("counter store down")
}

func TestWindowLimiterMiddlewareAllowsOnStoreFailure(t *testing.T) {
	l := NewWindowLimiter(failingStore{}, "test", 1, time.Minute)

	called := false
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.True(t, called, "store failure must not block the request")
}
