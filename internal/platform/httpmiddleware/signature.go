package httpmiddleware

import (
	"context"
	"crypto/ed25519"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"linkbot.local/gee"
	"linkbot.local/internal/platform/metrics"
)

const (
	signatureHeader = "X-Signature-Ed25519"
	timestampHeader = "X-Signature-Timestamp"

	maxInteractionBody = 1 << 20
)

// ReplayGuard 记住见过的签名；cache.ReplayGuard 实现了它
type ReplayGuard interface {
	Seen(ctx context.Context, key string) bool
}

type SignatureOptions struct {
	PublicKey ed25519.PublicKey
	// MaxSkew 为 0 时不检查时间戳
	MaxSkew time.Duration
	// Replay 为 nil 时不做重放检测
	Replay ReplayGuard
	Now    func() time.Time
}

// DiscordSignature 校验 Discord 的 ed25519 签名（签名内容是 timestamp + body）。
// 校验通过后 body 会被还原，后面的 handler 可以照常读取。
// 时间戳只有在签名通过后才可信，所以先验签再看时间。
func DiscordSignature(opts SignatureOptions) gee.HandlerFunc {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return func(ctx *gee.Context) {
		sig := ctx.Req.Header.Get(signatureHeader)
		ts := ctx.Req.Header.Get(timestampHeader)
		if sig == "" || ts == "" {
			rejectSignature(ctx, "missing", "missing signature or timestamp")
			return
		}

		ctx.Req.Body = http.MaxBytesReader(ctx.Writer, ctx.Req.Body, maxInteractionBody)
		if !discordgo.VerifyInteraction(ctx.Req, opts.PublicKey) {
			rejectSignature(ctx, "invalid", "invalid signature")
			return
		}

		if opts.MaxSkew > 0 && !freshTimestamp(ts, opts.Now(), opts.MaxSkew) {
			rejectSignature(ctx, "stale", "stale request")
			return
		}

		// hex 大小写不同但签名相同，统一成小写再去重
		if opts.Replay != nil && opts.Replay.Seen(ctx.Req.Context(), strings.ToLower(sig)) {
			rejectSignature(ctx, "replay", "replayed request")
			return
		}

		ctx.Next()
	}
}

func freshTimestamp(ts string, now time.Time, maxSkew time.Duration) bool {
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	skew := now.Sub(time.Unix(secs, 0))
	if skew < 0 {
		skew = -skew
	}
	return skew <= maxSkew
}

func rejectSignature(ctx *gee.Context, reason, message string) {
	metrics.SignatureRejections.WithLabelValues(reason).Inc()
	ctx.AbortWithError(http.StatusUnauthorized, message)
}
