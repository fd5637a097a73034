package httpmiddleware

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"linkbot.local/gee"
)

// TraceName 把 otelhttp 建的 span 改名为 "METHOD /route/:pattern"。
// 没有开启 tracing 时 SpanFromContext 返回 noop span，调用无副作用。
func TraceName() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		route := ctx.RoutePattern
		if route == "" {
			route = "unmatched"
		}
		span := trace.SpanFromContext(ctx.Req.Context())
		span.SetName(ctx.Method + " " + route)
		span.SetAttributes(attribute.String("http.route", route))
		if id := ctx.RequestID(); id != "" {
			span.SetAttributes(attribute.String("request.id", id))
		}
		ctx.Next()
	}
}
