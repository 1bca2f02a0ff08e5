package limiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a CounterStore backed by Redis, letting multiple server
// instances share one set of rate-limit windows.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client as a counter store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Incr implements CounterStore with INCR + PEXPIRE. The expiry is only set
// when the increment opened the window, so later hits inside the window keep
// the original reset time.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	if count == 1 {
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		return count, time.Now().Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	if ttl < 0 {
		// Key exists without expiry (e.g. PEXPIRE lost to a crash); repair it.
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		ttl = window
	}

	return count, time.Now().Add(ttl), nil
}
