package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReplayGuard 记住最近见过的 webhook 签名。
// L1 是进程内 ristretto；配置了 Redis 时再用 SET NX 在多实例之间去重。
type ReplayGuard struct {
	client *redis.Client // 可以为 nil
	local  *LocalCache
	ttl    time.Duration
}

func NewReplayGuard(client *redis.Client, local *LocalCache, ttl time.Duration) *ReplayGuard {
	return &ReplayGuard{
		client: client,
		local:  local,
		ttl:    ttl,
	}
}

// Seen 在 key 第一次出现时返回 false，TTL 内再次出现返回 true。
// Redis 出错时只看本地结果：签名已经校验过，这里放行比拒绝合法请求更合适。
func (g *ReplayGuard) Seen(ctx context.Context, key string) bool {
	// L1: 本地缓存
	if g.local != nil && g.local.SeenOrAdd(key, g.ttl) {
		return true
	}
	if g.client == nil {
		return false
	}

	// L2: Redis
	ok, err := g.client.SetNX(ctx, "replay:"+key, 1, g.ttl).Result()
	if err != nil {
		slog.WarnContext(ctx, "replay guard: redis setnx failed", "err", err)
		return false
	}
	return !ok
}

// Close 关闭本地缓存
func (g *ReplayGuard) Close() {
	if g.local != nil {
		g.local.Close()
		slog.Info("本地缓存已关闭")
	}
}
