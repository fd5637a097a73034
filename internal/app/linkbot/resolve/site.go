package resolve

import "strings"

// Site 是输入链接被归类到的来源站点。集合是封闭的。
type Site int

const (
	SiteUnknown Site = iota
	SiteCSSBuy
	SiteOopbuy
	SiteJoyaBuy
	SiteCNFans
	SiteHoobuy
	SiteTaobaoLike
	SiteYupoo // 只用于 ConvertYupooResult，Classify 不会返回
)

// String returns the metrics label for the site.
func (s Site) String() string {
	switch s {
	case SiteCSSBuy:
		return "cssbuy"
	case SiteOopbuy:
		return "oopbuy"
	case SiteJoyaBuy:
		return "joyabuy"
	case SiteCNFans:
		return "cnfans"
	case SiteHoobuy:
		return "hoobuy"
	case SiteTaobaoLike:
		return "taobao"
	case SiteYupoo:
		return "yupoo"
	}
	return "unknown"
}

type siteMatcher struct {
	site  Site
	match func(link string) bool
}

func containsAll(subs ...string) func(string) bool {
	return func(link string) bool {
		for _, s := range subs {
			if !strings.Contains(link, s) {
				return false
			}
		}
		return true
	}
}

func containsAny(subs ...string) func(string) bool {
	return func(link string) bool {
		for _, s := range subs {
			if strings.Contains(link, s) {
				return true
			}
		}
		return false
	}
}

// 顺序即优先级：第一个命中的规则胜出。
var siteMatchers = []siteMatcher{
	{SiteCSSBuy, containsAll("cssbuy.com/item")},
	{SiteOopbuy, containsAll("oopbuy.com/product/")},
	{SiteJoyaBuy, containsAll("joyabuy.com", "product")},
	{SiteCNFans, containsAll("cnfans.com/product")},
	{SiteHoobuy, containsAll("hoobuy.com/product/")},
	{SiteTaobaoLike, containsAny("taobao.com", "tmall.com")},
}

// Classify 按子串规则给链接归类，大小写敏感。
func Classify(link string) Site {
	for _, m := range siteMatchers {
		if m.match(link) {
			return m.site
		}
	}
	return SiteUnknown
}
