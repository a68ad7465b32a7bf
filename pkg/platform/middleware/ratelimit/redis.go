package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindow keeps one counter per key and window start, expiring with
// the window.
type RedisWindow struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewRedisWindow(client redis.Cmdable) *RedisWindow {
	return &RedisWindow{client: client, prefix: "civic:ratelimit", now: time.Now}
}

func (w *RedisWindow) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	start := w.now().Truncate(window)
	k := fmt.Sprintf("%s:%s:%d", w.prefix, key, start.Unix())

	pipe := w.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("count rate limit hit: %w", err)
	}
	return incr.Val(), nil
}
