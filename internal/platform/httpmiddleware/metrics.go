package httpmiddleware

import (
	"strconv"
	"time"

	"linkbot.local/gee"
	"linkbot.local/internal/platform/metrics"
)

// Metrics 用路由模板做 route 标签；没命中路由的请求统一记成 "unmatched"，避免扫描器打出高基数。
func Metrics() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()
		metrics.HTTPInflightRequests.Inc()
		defer metrics.HTTPInflightRequests.Dec()

		ctx.Next()

		route := ctx.RoutePattern
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(ctx.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(ctx.Method, route, status).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(ctx.Method, route).Observe(time.Since(start).Seconds())
	}
}
