// Package throttle limits login attempts per key with a Redis fixed window.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "login_attempts:"

var attemptScript = redis.NewScript(`
-- KEYS[1] = counter key
-- ARGV[1] = limit (int)
-- ARGV[2] = window_ms (int)
--
-- Returns:
--  1 if the attempt is allowed
--  0 if the window is exhausted
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
else
  -- Ensure TTL exists even if key already existed without TTL
  if redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
  end
end

if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

// RedisLimiter allows at most limit attempts per key per window.
// Safety properties:
// - Atomic count-and-expire using Lua.
// - TTL bounds the lockout even if Reset is never called.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) (*RedisLimiter, error) {
	if rdb == nil {
		return nil, errors.New("throttle: redis client is nil")
	}
	if limit <= 0 {
		return nil, errors.New("throttle: limit must be > 0")
	}
	if window <= 0 {
		return nil, errors.New("throttle: window must be > 0")
	}
	return &RedisLimiter{rdb: rdb, limit: limit, window: window}, nil
}

// Allow counts one attempt for key and reports whether it is within the limit.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("throttle: key is required")
	}
	res, err := attemptScript.Run(ctx, l.rdb, []string{keyPrefix + key}, l.limit, l.window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("throttle: allow: %w", err)
	}
	return res == 1, nil
}

// Reset clears the counter for key, typically after a successful login.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("throttle: key is required")
	}
	if err := l.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("throttle: reset: %w", err)
	}
	return nil
}
