package provider

import "github.com/John-Robertt/ACAT/internal/coverart"

// Provider 是一种本地封面来源：给定一个专辑目录，产出它能提供的封面图片。
//
// 约束：
// - 实现只读文件系统，不做网络请求
// - 返回的图片必须已填好尺寸/格式信息（FindImages 内部负责识别）
// - 同一目录重复调用必须产出相同结果（确定性）
type Provider interface {
	Name() string
	FindImages(dir string) ([]*coverart.Image, error)
}
