package stats

import (
	"sync"
	"time"

	"linkbot.local/internal/platform/metrics"
)

// 命令使用事件。不记录用户 id，只保留统计需要的字段。
type CommandEvent struct {
	Command   string    `json:"command"`
	GuildID   string    `json:"guild_id,omitempty"`
	Site      string    `json:"site,omitempty"`    // 只有链接类命令才有
	Outcome   string    `json:"outcome,omitempty"` // resolved / rewritten / passthrough / rejected
	HandledAt time.Time `json:"handled_at"`
}

// Collector 收集器接口（channel / Kafka 可以互换，也可以用 Multi 组合）
type Collector interface {
	Collect(event CommandEvent)
	Close()
}

// ChannelCollector 基于 channel 的收集器
// Collect 和 Close 可能来自不同 goroutine，closed 标志需要加锁，否则向已关闭的 channel 发送会 panic。
type ChannelCollector struct {
	mu     sync.RWMutex
	ch     chan CommandEvent
	closed bool
}

func NewChannelCollector(bufferSize int) *ChannelCollector {
	return &ChannelCollector{
		ch: make(chan CommandEvent, bufferSize),
	}
}

// Collect 永不阻塞：通道满了或者已经关闭就丢弃。
func (c *ChannelCollector) Collect(event CommandEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		metrics.UsageEventsDropped.Inc()
		return
	}
	select {
	case c.ch <- event:
	default:
		// 通道满了，丢弃
		metrics.UsageEventsDropped.Inc()
	}
}

func (c *ChannelCollector) Events() <-chan CommandEvent {
	return c.ch
}

// Close 可以重复调用。
func (c *ChannelCollector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// Multi 把同一个事件交给多个收集器。
type Multi []Collector

func (m Multi) Collect(event CommandEvent) {
	for _, c := range m {
		c.Collect(event)
	}
}

func (m Multi) Close() {
	for _, c := range m {
		c.Close()
	}
}

// Discard 在不需要统计时使用（测试、命令行工具）。
type Discard struct{}

func (Discard) Collect(CommandEvent) {}
func (Discard) Close()               {}
