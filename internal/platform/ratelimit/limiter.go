// Package ratelimit 是基于 Redis 有序集合的滑动窗口限流。
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// KEYS[1]  限流 key
// ARGV     now(ms) window(ms) limit member
// 返回 {allowed, retryAfterMs}
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
redis.call("ZADD", key, now, member)
local count = redis.call("ZCARD", key)
redis.call("PEXPIRE", key, window)

if count <= limit then
  return {1, 0}
end

redis.call("ZREM", key, member)

local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] == nil then
  return {0, window}
end
local retryAfter = (tonumber(oldest[2]) + window) - now
if retryAfter < 0 then retryAfter = 0 end
return {0, retryAfter}
`)

type Limiter struct {
	client redis.Scripter
	now    func() time.Time
}

func NewLimiter(client redis.Scripter) *Limiter {
	return &Limiter{
		client: client,
		now:    time.Now,
	}
}

// Allow 返回：allowed、retryAfter（仅当超限时有意义）。
// 脚本先走 EVALSHA，Redis 里没有缓存时自动回退到 EVAL。
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration, member string) (bool, time.Duration, error) {
	if limit <= 0 || window <= 0 {
		return false, 0, fmt.Errorf("ratelimit: invalid policy limit=%d window=%v", limit, window)
	}

	res, err := slidingWindow.Run(ctx, l.client, []string{key},
		l.now().UnixMilli(), window.Milliseconds(), limit, member).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit: eval %s: %w", key, err)
	}

	arr, ok := res.([]any)
	if !ok || len(arr) < 2 {
		return false, 0, fmt.Errorf("ratelimit: unexpected eval result: %T %v", res, res)
	}

	allowed, _ := arr[0].(int64)
	var retryAfterMs int64
	switch v := arr[1].(type) {
	case int64:
		retryAfterMs = v
	case string:
		retryAfterMs, _ = strconv.ParseInt(v, 10, 64)
	}

	return allowed == 1, time.Duration(retryAfterMs) * time.Millisecond, nil
}
