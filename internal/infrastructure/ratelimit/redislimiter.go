package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a Redis-backed fixed-window counter. All instances of the
// service share the same counters, so the limit holds across replicas.
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) Limiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if window < time.Second {
		window = time.Second
	}
	bucket := time.Now().Unix() / int64(window.Seconds())
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate counter: %w", err)
	}
	if count == 1 {
		l.client.Expire(ctx, redisKey, window+time.Second)
	}

	return count <= int64(limit), nil
}
