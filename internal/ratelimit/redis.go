package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:login:"

// RedisLimiter implements the sliding window on a Redis sorted set so that all
// processes behind a load balancer share one counter. Attempt timestamps are
// scores; pruning is a ZRemRangeByScore over everything older than the window.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	now    Clock
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window, now: time.Now}
}

func (l *RedisLimiter) CheckAndRecord(ctx context.Context, addr string) (bool, error) {
	key := keyPrefix + addr
	now := l.now()
	cutoff := now.Add(-l.window)

	// Unique member per attempt so simultaneous attempts don't collapse.
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", cutoff.UnixNano()))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ratelimit: redis: %w", err)
	}

	return card.Val() <= int64(l.limit), nil
}
