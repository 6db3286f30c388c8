package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "storefront:ratelimit:"

// fixedWindowLua counts a request and starts the window on the first one.
// Returns the count so far and the milliseconds left in the window.
const fixedWindowLua = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`

// RedisFixedWindowLimiter shares its windows across every API instance that
// talks to the same redis.
type RedisFixedWindowLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	script *redis.Script
}

func NewRedisFixedWindowLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisFixedWindowLimiter {
	return &RedisFixedWindowLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		script: redis.NewScript(fixedWindowLua),
	}
}

func (rl *RedisFixedWindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := rl.script.Run(ctx, rl.rdb, []string{redisKeyPrefix + key}, rl.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit eval: %w", err)
	}
	if len(res) < 2 {
		return false, 0, fmt.Errorf("ratelimit invalid result")
	}

	if res[0] <= int64(rl.limit) {
		return true, 0, nil
	}
	return false, time.Duration(res[1]) * time.Millisecond, nil
}

func (rl *RedisFixedWindowLimiter) Stop() {}
