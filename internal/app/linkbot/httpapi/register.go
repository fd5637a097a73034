// Package httpapi 是 linkbot 的传输层：Discord webhook 和公开的 JSON API。
// 领域逻辑在 resolve / currency / interactions，这里只做 HTTP <-> 领域的翻译。
package httpapi

import (
	"net/http"
	"time"

	"linkbot.local/gee"
	"linkbot.local/internal/app/linkbot/currency"
	"linkbot.local/internal/app/linkbot/interactions"
	"linkbot.local/internal/app/linkbot/resolve"
	"linkbot.local/internal/platform/httpmiddleware"
)

// RegisterWebhookRoutes 挂载 POST /interactions（Discord 的 Interactions Endpoint URL）。
// Discord 是唯一调用方，不限流；签名校验不通过直接 401。
func RegisterWebhookRoutes(engine *gee.Engine, d *interactions.Dispatcher, sig httpmiddleware.SignatureOptions) {
	engine.POST("/interactions", httpmiddleware.DiscordSignature(sig), NewInteractionHandler(d))
}

// RegisterAPIRoutes 挂载 /api/v1 下的 JSON 接口，按客户端 IP 限流 60 次/分钟。
func RegisterAPIRoutes(api *gee.RouterGroup, r *resolve.Resolver, conv currency.Converter, limiter httpmiddleware.Allower) {
	api.Use(httpmiddleware.RateLimit(limiter, httpmiddleware.Policy{Prefix: "api", Limit: 60, Window: time.Minute}))

	api.POST("/decode", NewDecodeHandler(r))
	api.POST("/convert", NewConvertHandler(r))
	api.POST("/yupoo", NewYupooHandler())
	api.GET("/yuan", NewYuanHandler(conv))
}

// RegisterHealthRoutes 给负载均衡探活用，不依赖任何外部组件。
func RegisterHealthRoutes(engine *gee.Engine) {
	engine.GET("/healthz", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "ok")
	})
}
