package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Prometheus 的 registry 不允许重复注册同名指标，否则直接 panic。
	once sync.Once

	// labels：method、route（路由模板，不要用真实 path，避免高基数）、status
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "HTTP请求的总数",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// LinkResolutions 按来源站点和结果类别统计解析次数。
	// outcome: resolved / rewritten / passthrough / rejected
	LinkResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_resolutions_total",
			Help: "Link resolutions by source site and outcome.",
		},
		[]string{"site", "outcome"},
	)

	BotCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Slash commands handled, by command name.",
		},
		[]string{"command"},
	)

	// reason: missing / invalid / stale / replay
	SignatureRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signature_rejections_total",
			Help: "Interaction webhooks rejected before dispatch.",
		},
		[]string{"reason"},
	)

	UsageEventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "usage_events_dropped_total",
			Help: "Usage events dropped because the collector buffer was full or closed.",
		},
	)
)

// Init 注册指标：只允许注册一次（否则 panic: duplicate metrics collector registration）
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			LinkResolutions,
			BotCommands,
			SignatureRejections,
			UsageEventsDropped,
		)
	})
}
