package middleware

import (
	"github.com/google/uuid"

	"linkbot.local/gee"
)

// ReqID 透传上游的 X-Request-ID，没有就生成一个 UUIDv4。
// 写回请求头，后面的中间件通过 ctx.RequestID() 读取。
func ReqID() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id := ctx.RequestID()
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
			ctx.Req.Header.Set(gee.RequestIDHeader, id)
		}
		ctx.SetHeader(gee.RequestIDHeader, id)

		ctx.Next()
	}
}
