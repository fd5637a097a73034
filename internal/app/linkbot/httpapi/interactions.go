package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"linkbot.local/gee"
	"linkbot.local/internal/app/linkbot/interactions"
)

// NewInteractionHandler 解析 interaction 并交给 Dispatcher。
// 不用 BindJSON：Discord 的 payload 字段很多，严格模式会拒绝未知字段。
func NewInteractionHandler(d *interactions.Dispatcher) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		body, err := io.ReadAll(ctx.Req.Body)
		if err != nil {
			ctx.AbortWithError(http.StatusBadRequest, "unreadable body")
			return
		}

		var i discordgo.Interaction
		if err := json.Unmarshal(body, &i); err != nil {
			ctx.AbortWithError(http.StatusBadRequest, "invalid json")
			return
		}

		resp, err := d.Handle(ctx.Req.Context(), &i)
		if err != nil {
			if errors.Is(err, interactions.ErrUnsupportedType) {
				ctx.AbortWithError(http.StatusBadRequest, "unsupported interaction type")
				return
			}
			slog.ErrorContext(ctx.Req.Context(), "interaction dispatch failed",
				"err", err, "request_id", ctx.RequestID(), "interaction_id", i.ID)
			ctx.AbortWithError(http.StatusInternalServerError, "dispatch failed")
			return
		}

		ctx.JSON(http.StatusOK, resp)
	}
}
