package domain

import (
	"strings"
	"unicode"
)

// ReleaseKey 是一个 release（通常对应一个专辑目录）的唯一主键。
//
// 约束：要么得到唯一可用的 ReleaseKey，要么失败；宁可 unmatched，也不允许
// 把无意义的目录名当成 release。
type ReleaseKey string

// ParseReleaseKey 校验并解析规范化后的 release 名称。
// 输入必须已经做过空白折叠（见 internal/release 的规范化规则）。
func ParseReleaseKey(s string) (ReleaseKey, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." {
		return "", false
	}
	if strings.ContainsAny(s, `/\`) {
		return "", false
	}
	// 至少要有一个字母或数字，排除 "---"、"..." 这类噪音目录名。
	hasWord := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			hasWord = true
			break
		}
	}
	if !hasWord {
		return "", false
	}
	return ReleaseKey(s), true
}
