package throttle

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "throttle:"

// RedisStore implements Store on Redis so registration throttling holds
// across processes. The fixed window is expressed with INCR plus a TTL set
// when the counter is created; the TTL is never refreshed, so an active
// window is never extended.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed store, verifying connectivity with
// a ping before returning.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client, prefix: redisKeyPrefix}, nil
}

func (rs *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	redisKey := rs.prefix + key

	count, err := rs.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := rs.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	return rs.client.Del(ctx, rs.prefix+key).Err()
}
