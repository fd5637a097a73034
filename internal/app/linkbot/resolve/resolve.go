// Package resolve 把代购站链接还原成淘宝/微店/1688 的原始商品链接，并规范化淘宝/天猫链接。
//
// 所有函数都是纯函数：没有共享可变状态，没有 I/O，可以被任意多个请求并发调用。
// 失败不会返回 error，而是返回一段可以直接回复给用户的提示文本。
package resolve

import (
	"regexp"
	"strings"
)

// Outcome 描述一次解析的结果类别，主要用于指标打点。
type Outcome int

const (
	// OutcomeResolved 得到了带数字 id 的规范链接。
	OutcomeResolved Outcome = iota
	// OutcomeRewritten 只做了域名层面的改写（淘宝店铺首页、移动端域名等）。
	OutcomeRewritten
	// OutcomePassthrough 所有策略都失败，原样返回输入。
	OutcomePassthrough
	// OutcomeRejected 返回的是诊断提示。
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeRewritten:
		return "rewritten"
	case OutcomePassthrough:
		return "passthrough"
	}
	return "rejected"
}

// Result 是一次解析的结构化结果。Text 永远非空。
type Result struct {
	Site     Site
	Platform Platform
	ID       string
	Text     string
	Outcome  Outcome
}

func (r Result) OK() bool {
	return r.Outcome == OutcomeResolved
}

const (
	msgUnsupported     = "Please provide a valid agent site link (CSSBuy, CNFans, Oopbuy, JoyaBuy, Hoobuy) or Taobao/Tmall link."
	msgCSSBuyFormat    = "Could not decode the CSSBuy link. Please check the format."
	msgOopbuyFormat    = "Could not decode the Oopbuy link. Please check the format."
	msgHoobuyFormat    = "Could not decode the Hoobuy link. Please check the format."
	msgJoyaBuyNoID     = "Could not find product ID in JoyaBuy link."
	msgJoyaBuyShopType = "Could not determine the shop type in JoyaBuy link."
	msgCNFansNoID      = "Could not find product ID in CNFans link."
	msgCNFansPlatform  = "Could not determine the platform type in CNFans link."
	msgInvalidMarket   = "Invalid link. Please provide a valid Taobao or Tmall link."
	msgInvalidYupoo    = "Please provide a valid Yupoo link."
)

const cnfansMinTaobaoIDLen = 10

// idRule 用正则的第一个捕获组取 id，平台由规则本身决定。
type idRule struct {
	re       *regexp.Regexp
	platform Platform
}

// markerRule 用查询参数标记决定平台，id 另行提取。
type markerRule struct {
	marker   string
	platform Platform
}

var (
	// 更具体的规则必须排在通用的 item-(\d+) 之前。
	cssbuyRules = []idRule{
		{regexp.MustCompile(`item-micro-(\d+)\.html`), PlatformWeidian},
		{regexp.MustCompile(`item-1688-(\d+)\.html`), Platform1688},
		{regexp.MustCompile(`item-(\d+)\.html`), PlatformTaobao},
	}

	// 移动端 query 形式在路径形式之前；channelId=1 是 channelId=1688 的前缀，顺序不能换。
	oopbuyRules = []idRule{
		{regexp.MustCompile(`channelId=weidian.*spuNo=(\d+)`), PlatformWeidian},
		{regexp.MustCompile(`channelId=1688.*spuNo=(\d+)`), Platform1688},
		{regexp.MustCompile(`channelId=1.*spuNo=(\d+)`), PlatformTaobao},
		{regexp.MustCompile(`product/weidian/(\d+)`), PlatformWeidian},
		{regexp.MustCompile(`product/1688/(\d+)`), Platform1688},
		{regexp.MustCompile(`product/1/(\d+)`), PlatformTaobao},
	}

	hoobuyRules = []idRule{
		{regexp.MustCompile(`product/2/(\d+)`), PlatformWeidian},
		{regexp.MustCompile(`product/0/(\d+)`), Platform1688},
		{regexp.MustCompile(`product/1/(\d+)`), PlatformTaobao},
	}

	joyabuyShopTypes = []markerRule{
		{"shop_type=weidian", PlatformWeidian},
		{"shop_type=taobao", PlatformTaobao},
		{"shop_type=ali_1688", Platform1688},
	}

	// 比较前会把链接转成小写。
	cnfansPlatforms = []markerRule{
		{"platform=weidian", PlatformWeidian},
		{"platform=taobao", PlatformTaobao},
		{"platform=ali_1688", Platform1688},
	}

	productIDRe = regexp.MustCompile(`id=(\d+)`)
)

// Resolver 持有一份不可变的模板配置。零值不可用，请用 New 或 Default。
type Resolver struct {
	tpl Templates
}

func New(tpl Templates) *Resolver {
	return &Resolver{tpl: tpl}
}

// Default 使用 DefaultTemplates。
func Default() *Resolver {
	return New(DefaultTemplates())
}

func (r *Resolver) Templates() Templates {
	return r.tpl
}

// Decode 把代购站链接还原成原始链接；淘宝/天猫链接交给 ConvertTaobao。
func (r *Resolver) Decode(link string) string {
	return r.Resolve(link).Text
}

// Resolve 是 Decode 的结构化版本。
func (r *Resolver) Resolve(link string) Result {
	switch site := Classify(link); site {
	case SiteCSSBuy:
		return r.matchRules(site, link, cssbuyRules, msgCSSBuyFormat)
	case SiteOopbuy:
		return r.matchRules(site, link, oopbuyRules, msgOopbuyFormat)
	case SiteJoyaBuy:
		return r.decodeJoyaBuy(link)
	case SiteCNFans:
		return r.decodeCNFans(link)
	case SiteHoobuy:
		return r.matchRules(site, link, hoobuyRules, msgHoobuyFormat)
	case SiteTaobaoLike:
		return r.ConvertTaobaoResult(link)
	}
	return rejected(SiteUnknown, msgUnsupported)
}

func (r *Resolver) matchRules(site Site, link string, rules []idRule, failure string) Result {
	for _, rule := range rules {
		if id := firstGroup(rule.re, link); id != "" {
			return r.resolved(site, rule.platform, id)
		}
	}
	return rejected(site, failure)
}

func (r *Resolver) decodeJoyaBuy(link string) Result {
	id := firstGroup(productIDRe, link)
	if id == "" {
		return rejected(SiteJoyaBuy, msgJoyaBuyNoID)
	}
	if p, ok := matchMarker(link, joyabuyShopTypes); ok {
		return r.resolved(SiteJoyaBuy, p, id)
	}
	return rejected(SiteJoyaBuy, msgJoyaBuyShopType)
}

func (r *Resolver) decodeCNFans(link string) Result {
	id := firstGroup(productIDRe, link)
	if id == "" {
		return rejected(SiteCNFans, msgCNFansNoID)
	}
	if p, ok := matchMarker(strings.ToLower(link), cnfansPlatforms); ok {
		return r.resolved(SiteCNFans, p, id)
	}
	// 没有 platform 参数时，10 位以上的 id 基本都是淘宝商品
	if len(id) >= cnfansMinTaobaoIDLen {
		return r.resolved(SiteCNFans, PlatformTaobao, id)
	}
	return rejected(SiteCNFans, msgCNFansPlatform)
}

func (r *Resolver) resolved(site Site, p Platform, id string) Result {
	return Result{
		Site:     site,
		Platform: p,
		ID:       id,
		Text:     r.tpl.Format(p, id),
		Outcome:  OutcomeResolved,
	}
}

func rejected(site Site, msg string) Result {
	return Result{Site: site, Text: msg, Outcome: OutcomeRejected}
}

func matchMarker(link string, rules []markerRule) (Platform, bool) {
	for _, rule := range rules {
		if strings.Contains(link, rule.marker) {
			return rule.platform, true
		}
	}
	return PlatformUnknown, false
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
