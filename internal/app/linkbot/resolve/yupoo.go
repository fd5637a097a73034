package resolve

import "strings"

const (
	yupooDomain = "yupoo.com"
	yupooMirror = "zhidian-inc.cn"
)

// ConvertYupoo 把 Yupoo 相册链接换成国内可访问的镜像域名。只替换第一次出现，不解析 host。
func ConvertYupoo(link string) string {
	return ConvertYupooResult(link).Text
}

func ConvertYupooResult(link string) Result {
	if strings.Contains(link, yupooDomain) {
		return Result{
			Site:    SiteYupoo,
			Text:    strings.Replace(link, yupooDomain, yupooMirror, 1),
			Outcome: OutcomeRewritten,
		}
	}
	return rejected(SiteYupoo, msgInvalidYupoo)
}
