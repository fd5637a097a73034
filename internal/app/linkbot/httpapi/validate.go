package httpapi

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptyLink   = errors.New("link is required")
	ErrLinkTooLong = errors.New("link is too long")
)

// Discord 的字符串选项最多 6000 字符，浏览器地址栏一般不超过 2048。
const maxLinkLength = 2048

// ValidateLink 只挡空值和超长输入；内容是否是可识别的链接由 resolve 决定，
// 识别不了会得到和机器人一样的提示文本。
func ValidateLink(raw string) (string, error) {
	link := strings.TrimSpace(raw)
	if link == "" {
		return "", ErrEmptyLink
	}
	if utf8.RuneCountInString(link) > maxLinkLength {
		return "", ErrLinkTooLong
	}
	return link, nil
}
