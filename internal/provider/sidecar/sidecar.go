package sidecar

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/John-Robertt/ACAT/internal/coverart"
	"github.com/John-Robertt/ACAT/internal/infra/imgx"
)

// Provider 从专辑目录里的 sidecar 图片文件（cover.jpg / booklet.png 等）
// 产出封面图片。这是唯一内置的封面来源：纯本地、零网络。
type Provider struct{}

func (Provider) Name() string { return "sidecar" }

// 已知的 sidecar 基名到类型标签的映射（大小写不敏感）。
var typesByBase = map[string][]string{
	"cover":   {coverart.TypeFront},
	"folder":  {coverart.TypeFront},
	"front":   {coverart.TypeFront},
	"back":    {coverart.TypeBack},
	"booklet": {coverart.TypeBooklet},
	"medium":  {coverart.TypeMedium},
	"disc":    {coverart.TypeMedium},
}

func isImageExt(ext string) bool {
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return true
	default:
		return false
	}
}

// FindImages 枚举 dir 下的已知 sidecar 图片。
//
// 规则：
// - 只认一层目录（不递归）；文件名排序后处理，保证确定性
// - 无法识别的图片字节跳过并记 warn（单个坏文件不拖垮整个目录）
// - 目录不存在视作"没有图片"，不报错
func (Provider) FindImages(dir string) ([]*coverart.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	images := make([]*coverart.Image, 0, 2)
	for _, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		if !isImageExt(ext) {
			continue
		}
		base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		types, ok := typesByBase[base]
		if !ok {
			continue
		}

		abs := filepath.Join(dir, name)
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, err
		}
		info, err := imgx.Identify(data)
		if err != nil {
			log.Warn().Str("path", abs).Err(err).Msg("跳过无法识别的 sidecar 图片")
			continue
		}

		im := coverart.NewImage("file://"+abs, data, true, types)
		im.Width = info.Width
		im.Height = info.Height
		im.Mime = info.Mime
		im.Extension = info.Extension
		images = append(images, im)
	}
	return images, nil
}
