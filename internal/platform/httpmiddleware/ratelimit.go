package httpmiddleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"linkbot.local/gee"
)

// ClientIP 获取真实客户端 IP（用于限流和日志）。
//
// 只有直连方是可信代理（同机 Caddy、内网、docker bridge）时才看转发头，
// 否则客户端可以伪造 X-Forwarded-For 绕过按 IP 的限流。
func ClientIP(req *http.Request) string {
	remoteHost, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		remoteHost = req.RemoteAddr
	}
	if ip := net.ParseIP(remoteHost); ip == nil || !isTrustedProxy(ip) {
		return remoteHost
	}

	// Cloudflare 注入的 CF-Connecting-IP 优先；XFF 取第一个（原始客户端）
	candidates := []string{
		req.Header.Get("CF-Connecting-IP"),
		firstForwarded(req.Header.Get("X-Forwarded-For")),
		req.Header.Get("X-Real-IP"),
	}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c != "" && net.ParseIP(c) != nil {
			return c
		}
	}
	return remoteHost
}

func firstForwarded(xff string) string {
	if i := strings.IndexByte(xff, ','); i >= 0 {
		return xff[:i]
	}
	return xff
}

// 回环地址和 RFC1918 / fc00::/7 私网
func isTrustedProxy(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate()
}

// Allower 由 ratelimit.Limiter 实现；测试里可以换成假的
type Allower interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, member string) (bool, time.Duration, error)
}

// Policy 描述一条限流规则：同一个 key 在 Window 内最多 Limit 次
type Policy struct {
	Prefix string
	Limit  int
	Window time.Duration
}

// RateLimit 按客户端 IP 限流。limiter 为 nil 时直接放行（未开启限流或 Redis 不可用）。
func RateLimit(limiter Allower, policy Policy) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if limiter == nil {
			ctx.Next()
			return
		}
		key := "rl:" + policy.Prefix + ":" + ClientIP(ctx.Req)

		// member 必须每次请求唯一，否则 ZADD 会覆盖同一个 member
		member := uuid.NewString()
		rlCtx, cancel := context.WithTimeout(ctx.Req.Context(), 50*time.Millisecond)
		defer cancel()
		allowed, retryAfter, err := limiter.Allow(rlCtx, key, policy.Limit, policy.Window, member)
		if err != nil {
			slog.WarnContext(ctx.Req.Context(), "rate limit check failed", "err", err, "request_id", ctx.RequestID())
			ctx.Next() // Redis 故障时放行
			return
		}
		if !allowed {
			if retryAfter > 0 {
				// Retry-After 单位是秒，向上取整
				secs := int64((retryAfter + time.Second - 1) / time.Second)
				ctx.SetHeader("Retry-After", strconv.FormatInt(secs, 10))
			}
			ctx.AbortWithError(http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		ctx.Next()
	}
}
