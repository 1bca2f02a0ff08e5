package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client), mr
}

func TestRedisStoreIncrCounts(t *testing.T) {
	store, _ := newRedisTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, resetAt, err := store.Incr(ctx, "login:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
		assert.False(t, resetAt.IsZero())
	}
}

func TestRedisStoreWindowElapses(t *testing.T) {
	store, mr := newRedisTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := store.Incr(ctx, "login:1.2.3.4", time.Minute)
		require.NoError(t, err)
	}

	mr.FastForward(time.Minute + time.Second)

	count, _, err := store.Incr(ctx, "login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "a fresh window must start after expiry")
}

func TestRedisStoreKeysAreIndependent(t *testing.T) {
	store, _ := newRedisTestStore(t)
	ctx := context.Background()

	_, _, err := store.Incr(ctx, "login:1.1.1.1", time.Minute)
	require.NoError(t, err)

	count, _, err := store.Incr(ctx, "register:1.1.1.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRedisStoreRepairsMissingExpiry(t *testing.T) {
	store, mr := newRedisTestStore(t)
	ctx := context.Background()

	// Counter left behind without a TTL.
	require.NoError(t, mr.Set("login:1.2.3.4", "7"))

	count, resetAt, err := store.Incr(ctx, "login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(8), count)
	assert.False(t, resetAt.IsZero())

	ttl := mr.TTL("login:1.2.3.4")
	assert.Greater(t, ttl, time.Duration(0), "expiry must be restored")
}
