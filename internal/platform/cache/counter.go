package cache

import (
	"context"
	"fmt"
	"time"
)

// IncrWindow increments the counter at key and returns the new value. The
// first increment starts the window: the key expires after window.
func (c *RedisCache) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	full := c.prefix + key

	n, err := c.client.Incr(ctx, full).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: incr: %v", ErrUnavailable, err)
	}
	if n == 1 {
		if err := c.client.Expire(ctx, full, window).Err(); err != nil {
			return 0, fmt.Errorf("%w: expire: %v", ErrUnavailable, err)
		}
	}
	return n, nil
}
