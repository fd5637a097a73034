package resolve

import "strings"

// Platform 是链接最终指向的电商平台。
type Platform int

const (
	PlatformUnknown Platform = iota
	PlatformTaobao
	PlatformTmall
	PlatformWeidian
	Platform1688
	PlatformTaobaoShop
)

func (p Platform) String() string {
	switch p {
	case PlatformTaobao:
		return "taobao"
	case PlatformTmall:
		return "tmall"
	case PlatformWeidian:
		return "weidian"
	case Platform1688:
		return "1688"
	case PlatformTaobaoShop:
		return "taobao_shop"
	}
	return "unknown"
}

// shopPlaceholder 是店铺模板里唯一的替换点。
const shopPlaceholder = "{}"

// Templates 保存规范 URL 模板。值类型，构造后不再修改，可以安全地在多个 goroutine 间共享。
//
// 除 Offer1688 与 TaobaoShop 外，模板都是"前缀 + id"的形式：
// - Offer1688：前缀 + id + ".html"
// - TaobaoShop：包含一个 {} 占位符
type Templates struct {
	TaobaoItem  string
	TmallItem   string
	WeidianItem string
	Offer1688   string
	TaobaoShop  string
}

func DefaultTemplates() Templates {
	return Templates{
		TaobaoItem:  "https://item.taobao.com/item.htm?id=",
		TmallItem:   "https://detail.tmall.com/item.htm?id=",
		WeidianItem: "https://weidian.com/item.html?itemID=",
		Offer1688:   "https://detail.1688.com/offer/",
		TaobaoShop:  "https://shop{}.taobao.com/",
	}
}

// Format 把 id 填进平台对应的模板。未知平台返回空串。
func (t Templates) Format(p Platform, id string) string {
	switch p {
	case PlatformTaobao:
		return t.TaobaoItem + id
	case PlatformTmall:
		return t.TmallItem + id
	case PlatformWeidian:
		return t.WeidianItem + id
	case Platform1688:
		return t.Offer1688 + id + ".html"
	case PlatformTaobaoShop:
		return strings.Replace(t.TaobaoShop, shopPlaceholder, id, 1)
	}
	return ""
}
