package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const redisKeyPrefix = "rate_limit:"

// slidingWindowScript trims, counts and appends atomically so concurrent
// checks from multiple instances cannot both claim the last slot.
const slidingWindowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

local current_count = redis.call('ZCARD', key)

if current_count < limit then
    redis.call('ZADD', key, now, now .. '-' .. ARGV[4])
    redis.call('PEXPIRE', key, tonumber(ARGV[5]))
    return 1
end
return 0
`

// Scripter is the slice of the Redis client the limiter needs.
type Scripter interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// RedisLimiter shares one sliding-window quota across server instances by
// keeping per-key timestamp sets in Redis. Fail-closed: any store error is
// reported and the request denied.
type RedisLimiter struct {
	client Scripter
	policy Policy
	now    func() time.Time
	seq    atomic.Int64
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client Scripter, policy Policy) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		policy: policy,
		now:    time.Now,
	}
}

// Check runs the sliding-window script for the key. The member carries a
// sequence suffix so same-millisecond requests do not collapse into one
// sorted-set entry.
func (l *RedisLimiter) Check(ctx context.Context, key string) (Result, error) {
	nowMs := l.now().UnixMilli()
	windowStart := nowMs - l.policy.Window.Milliseconds()

	result, err := l.client.Eval(ctx, slidingWindowScript,
		[]string{redisKeyPrefix + key},
		nowMs, windowStart, l.policy.MaxRequests, l.seq.Add(1), l.policy.Window.Milliseconds())
	if err != nil {
		return Result{Allowed: false}, fmt.Errorf("sliding window check: %w", err)
	}

	allowed, ok := result.(int64)
	if !ok {
		return Result{Allowed: false}, fmt.Errorf("unexpected script result type %T", result)
	}

	return Result{Allowed: allowed == 1}, nil
}

// Close is a no-op; the shared Redis client is owned by the factory.
func (l *RedisLimiter) Close() error {
	return nil
}
