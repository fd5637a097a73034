package stats

import (
	"context"
	"log/slog"
	"time"

	"linkbot.local/internal/platform/metrics"
)

// Summary 是一批事件按命令聚合后的计数。
type Summary struct {
	Events   int
	Commands map[string]int
}

// 消费命令事件：打到 Prometheus 计数器上，并按批输出一条汇总日志
type Consumer struct {
	collector *ChannelCollector
	batchSize int
	interval  time.Duration
	onFlush   func(Summary)
}

func NewConsumer(collector *ChannelCollector) *Consumer {
	return &Consumer{
		collector: collector,
		batchSize: 100,         //批量大小
		interval:  time.Second, //最大等待时间
		onFlush:   logSummary,
	}
}

// OnFlush 替换默认的汇总日志（测试里用来拿到每一批的结果）。
func (c *Consumer) OnFlush(fn func(Summary)) *Consumer {
	c.onFlush = fn
	return c
}

// 阻塞 消费循环
func (c *Consumer) Run(ctx context.Context) {
	batch := make([]CommandEvent, 0, c.batchSize)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.flush(batch) //清理剩余事件
			return
		case event, ok := <-c.collector.Events():
			if !ok {
				c.flush(batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= c.batchSize {
				c.flush(batch)
				batch = batch[:0] //清空切片，但保留容量不变，避免反复分配内存
			}
		case <-ticker.C:
			if len(batch) > 0 {
				c.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (c *Consumer) flush(batch []CommandEvent) {
	if len(batch) == 0 {
		return
	}

	sum := Summary{Events: len(batch), Commands: make(map[string]int)}
	for _, e := range batch {
		metrics.BotCommands.WithLabelValues(e.Command).Inc()
		if e.Site != "" {
			metrics.LinkResolutions.WithLabelValues(e.Site, e.Outcome).Inc()
		}
		sum.Commands[e.Command]++
	}

	if c.onFlush != nil {
		c.onFlush(sum)
	}
}

func logSummary(sum Summary) {
	slog.Debug("command stats: flushed", "count", sum.Events, "commands", sum.Commands)
}
