package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const counterKeyPrefix = "ratelimit:"

// bumpScript performs the windowed check-and-increment atomically on the
// Redis side. Window rollover rides on key expiry, set from the first
// attempt. A negative reply means the budget was already exhausted.
var bumpScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
if count >= tonumber(ARGV[1]) then
  return -count
end
count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return count
`)

// RedisCounterStore backs the limiter with Redis so multiple API instances
// share one attempt budget per caller.
type RedisCounterStore struct {
	rdb *redis.Client
}

// NewRedisCounterStore creates a Redis-backed counter store.
func NewRedisCounterStore(rdb *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{rdb: rdb}
}

// Bump implements CounterStore.
func (s *RedisCounterStore) Bump(ctx context.Context, key string, max int, window time.Duration) (int, bool, error) {
	result, err := bumpScript.Run(ctx, s.rdb,
		[]string{counterKeyPrefix + key},
		max, window.Milliseconds(),
	).Int()
	if err != nil {
		return 0, false, fmt.Errorf("rate limit bump failed: %w", err)
	}

	if result < 0 {
		return -result, false, nil
	}
	return result, true, nil
}
