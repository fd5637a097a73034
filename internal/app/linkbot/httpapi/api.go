package httpapi

import (
	"net/http"

	"linkbot.local/gee"
	"linkbot.local/internal/app/linkbot/currency"
	"linkbot.local/internal/app/linkbot/resolve"
	"linkbot.local/internal/platform/metrics"
)

type LinkRequest struct {
	Link string `json:"link"`
}

type DecodeResponse struct {
	Site     string `json:"site"`
	Platform string `json:"platform"`
	OK       bool   `json:"ok"`
	Result   string `json:"result"`
}

type ResultResponse struct {
	Result string `json:"result"`
}

// 金额都用字符串，避免 float 精度问题
type YuanResponse struct {
	Yuan string `json:"yuan"`
	Euro string `json:"euro"`
	Rate string `json:"rate"`
	Text string `json:"text"`
}

// bindLink 解析并校验请求体，失败时已写入 400
func bindLink(ctx *gee.Context) (string, bool) {
	var req LinkRequest
	if err := ctx.BindJSON(&req); err != nil {
		return "", false
	}
	link, err := ValidateLink(req.Link)
	if err != nil {
		ctx.AbortWithError(http.StatusBadRequest, err.Error())
		return "", false
	}
	return link, true
}

func observe(res resolve.Result) {
	metrics.LinkResolutions.WithLabelValues(res.Site.String(), res.Outcome.String()).Inc()
}

func NewDecodeHandler(r *resolve.Resolver) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		link, ok := bindLink(ctx)
		if !ok {
			return
		}
		res := r.Resolve(link)
		observe(res)

		ctx.JSON(http.StatusOK, DecodeResponse{
			Site:     res.Site.String(),
			Platform: res.Platform.String(),
			OK:       res.OK(),
			Result:   res.Text,
		})
	}
}

func NewConvertHandler(r *resolve.Resolver) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		link, ok := bindLink(ctx)
		if !ok {
			return
		}
		res := r.ConvertTaobaoResult(link)
		observe(res)
		ctx.JSON(http.StatusOK, ResultResponse{Result: res.Text})
	}
}

func NewYupooHandler() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		link, ok := bindLink(ctx)
		if !ok {
			return
		}
		res := resolve.ConvertYupooResult(link)
		observe(res)
		ctx.JSON(http.StatusOK, ResultResponse{Result: res.Text})
	}
}

// NewYuanHandler GET /yuan?amount=12.5
func NewYuanHandler(conv currency.Converter) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		amount, err := currency.ParseAmount(ctx.Query("amount"))
		if err != nil {
			ctx.AbortWithError(http.StatusBadRequest, "amount must be a number")
			return
		}
		ctx.JSON(http.StatusOK, YuanResponse{
			Yuan: amount.StringFixed(2),
			Euro: conv.YuanToEuro(amount).StringFixed(2),
			Rate: conv.Rate().String(),
			Text: conv.Format(amount),
		})
	}
}
