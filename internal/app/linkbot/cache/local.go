package cache

import (
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

// LocalCache 基于 ristretto 的本地内存缓存，只记录"某个 key 在 TTL 内出现过"。
type LocalCache struct {
	mu    sync.Mutex // Get 和 Set 之间不能插入别的请求
	cache *ristretto.Cache
}

// NewLocalCache 创建本地缓存
// maxItems: 最大缓存条目数
// maxCost: 最大占用（cost=1 按条目数计）
func NewLocalCache(maxItems int64, maxCost int64) (*LocalCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // 计数器数量，建议为 maxItems 的 10 倍
		MaxCost:     maxCost,
		BufferItems: 64, // 每个 Get 缓冲区大小
	})
	if err != nil {
		return nil, err
	}
	return &LocalCache{cache: cache}, nil
}

// SeenOrAdd 返回 key 是否已经存在；不存在时写入并带上 ttl。
func (l *LocalCache) SeenOrAdd(key string, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.cache.Get(key); ok {
		return true
	}
	// ristretto 的写入是异步的，Wait 之后下一次 Get 才能看到
	l.cache.SetWithTTL(key, struct{}{}, 1, ttl)
	l.cache.Wait()
	return false
}

func (l *LocalCache) Close() {
	l.cache.Close()
}
