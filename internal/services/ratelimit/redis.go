package ratelimit

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/tourneygate/internal/model"
	redisstorage "github.com/mcoot/tourneygate/internal/storage/redis"
)

// incrWindow counts a call and starts the window expiry on the first one.
// Both steps run in one script so a counter never exists without a TTL.
var incrWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RedisLimiter is a fixed-window limiter shared by every process using the same Redis
type RedisLimiter struct {
	client *redis.Client
}

// Ensure RedisLimiter implements Limiter
var _ Limiter = (*RedisLimiter)(nil)

// NewRedis creates a limiter backed by client
func NewRedis(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// Allow has the same window semantics as MemoryLimiter; the window starts at the first call
func (l *RedisLimiter) Allow(ctx context.Context, userID model.UserID, limit int) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	n, err := incrWindow.Run(ctx, l.client, []string{redisstorage.RateLimitKey(userID)}, Window.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n <= limit, nil
}
