package release

import (
	"path/filepath"
	"strings"

	"github.com/John-Robertt/ACAT/internal/domain"
)

// UnmatchedError 表示该文件无法归入任何 release。
type UnmatchedError struct {
	// Kind: "no_release" 或 "invalid_name"
	Kind string
	// Name 是触发失败的原始目录名（便于用户定位）。
	Name string
}

func (e *UnmatchedError) Error() string {
	switch e.Kind {
	case "no_release":
		return "文件位于库根目录，没有可用的 release 目录"
	case "invalid_name":
		return "目录名不可用作 release：" + e.Name
	default:
		return "unmatched"
	}
}

// Extract 从 AudioFile 的父目录名推导 release 主键。
//
// 规则：
// - release = 直接父目录的名字（空白折叠后）；库根目录下的散文件算 no_release
// - 规范化后通不过 ParseReleaseKey 的目录名算 invalid_name
func Extract(f domain.AudioFile) (domain.ReleaseKey, error) {
	rel := filepath.Dir(f.RelPath)
	if rel == "." || rel == "" {
		return "", &UnmatchedError{Kind: "no_release"}
	}

	name := Normalize(filepath.Base(rel))
	key, ok := domain.ParseReleaseKey(name)
	if !ok {
		return "", &UnmatchedError{Kind: "invalid_name", Name: filepath.Base(rel)}
	}
	return key, nil
}

// Normalize 折叠目录名里的空白（制表符、连续空格等统一成单个空格）。
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
