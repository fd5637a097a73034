package resolve

import (
	"regexp"
	"strings"
)

const (
	hostMobileIntl = "m.intl.taobao.com"
	hostH5         = "h5.m.taobao.com"
	hostWorld      = "world.taobao.com"
	hostShopMobile = "shop.m.taobao.com"
	taobaoDomain   = "taobao.com"

	markerItemID = "id="
	markerShopID = "shop_id="

	storeSearchPage  = "search.htm"
	storeSearchQuery = "search.htm?search=y&orderType=newOn_desc"
)

var (
	itemIDQueryRe = regexp.MustCompile(`[?&]id=(\d+)`)
	shopIDRe      = regexp.MustCompile(`shop_id=(\d+)`)
)

// ConvertTaobao 把淘宝/天猫链接规范成桌面端商品链接。
//
// 与代购站解码不同，这里失败时尽力而为：原样返回输入，而不是诊断文本。
func (r *Resolver) ConvertTaobao(link string) string {
	return r.ConvertTaobaoResult(link).Text
}

func (r *Resolver) ConvertTaobaoResult(link string) Result {
	switch {
	case strings.Contains(link, taobaoDomain):
		return r.buildTaobao(link)
	case strings.Contains(link, "tmall.com"):
		return r.buildTmall(link)
	}
	return rejected(SiteUnknown, msgInvalidMarket)
}

func (r *Resolver) buildTaobao(link string) Result {
	// 绝大多数链接都带 ?id=，优先走这条路
	if id := firstGroup(itemIDQueryRe, link); id != "" {
		return r.resolved(SiteTaobaoLike, PlatformTaobao, id)
	}

	switch {
	case strings.Contains(link, hostMobileIntl) || strings.Contains(link, hostH5):
		// 详情页也只认 [?&]id=，上面已经试过；itemid=/xid= 之类不算商品 id
		out := strings.Replace(link, hostMobileIntl, taobaoDomain, 1)
		out = strings.Replace(out, hostH5, taobaoDomain, 1)
		return rewritten(out)

	case strings.Contains(link, hostWorld):
		if !strings.Contains(link, "item") {
			return rewritten(cleanStoreURL(strings.Replace(link, hostWorld, taobaoDomain, 1)))
		}
		if id := scanOrMatch(link, markerItemID, itemIDQueryRe); id != "" {
			return r.resolved(SiteTaobaoLike, PlatformTaobao, id)
		}

	case strings.Contains(link, hostShopMobile):
		if id := scanOrMatch(link, markerShopID, shopIDRe); id != "" {
			return r.resolved(SiteTaobaoLike, PlatformTaobaoShop, id)
		}

	default:
		if id := scanOrMatch(link, markerItemID, itemIDQueryRe); id != "" {
			return r.resolved(SiteTaobaoLike, PlatformTaobao, id)
		}
	}

	return passthrough(link)
}

func (r *Resolver) buildTmall(link string) Result {
	if id := firstGroup(itemIDQueryRe, link); id != "" {
		return r.resolved(SiteTaobaoLike, PlatformTmall, id)
	}
	if id := scanDigitsAfter(link, markerItemID); id != "" {
		return r.resolved(SiteTaobaoLike, PlatformTmall, id)
	}
	return passthrough(link)
}

// scanOrMatch 先在 marker 之后向前扫描数字，扫不到再退回正则。
func scanOrMatch(link, marker string, fallback *regexp.Regexp) string {
	if id := scanDigitsAfter(link, marker); id != "" {
		return id
	}
	return firstGroup(fallback, link)
}

// scanDigitsAfter 返回 marker 第一次出现之后紧跟的连续数字；marker 不存在或后面没有数字时返回空串。
func scanDigitsAfter(link, marker string) string {
	i := strings.Index(link, marker)
	if i < 0 {
		return ""
	}
	start := i + len(marker)
	end := start
	for end < len(link) && link[end] >= '0' && link[end] <= '9' {
		end++
	}
	return link[start:end]
}

// cleanStoreURL 把店铺链接截到域名根（含结尾的 /）；搜索页换成固定的"按新品排序"查询。
func cleanStoreURL(link string) string {
	root := taobaoDomain + "/"
	i := strings.Index(link, root)
	if i < 0 {
		return link
	}
	base := link[:i+len(root)]
	if strings.Contains(link, storeSearchPage) {
		return base + storeSearchQuery
	}
	return base
}

func rewritten(link string) Result {
	return Result{Site: SiteTaobaoLike, Platform: PlatformTaobao, Text: link, Outcome: OutcomeRewritten}
}

func passthrough(link string) Result {
	return Result{Site: SiteTaobaoLike, Text: link, Outcome: OutcomePassthrough}
}
