package imgx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // 注册 GIF 解码器
	_ "image/jpeg" // 注册 JPEG 解码器
	_ "image/png"  // 注册 PNG 解码器

	_ "golang.org/x/image/webp" // 注册 WebP 解码器（sidecar 里偶尔会出现）
)

// Info 是识别一段图片字节得到的基本信息。
type Info struct {
	Width     int
	Height    int
	Mime      string
	Extension string // ".png"
	DataLen   int64
}

// ErrUnidentified 表示输入字节不是可识别的图片格式。
var ErrUnidentified = errors.New("imgx: 无法识别的图片格式")

// 格式名（image.DecodeConfig 的第二个返回值）到 mime/扩展名的映射。
var formatInfo = map[string]struct {
	mime string
	ext  string
}{
	"png":  {"image/png", ".png"},
	"jpeg": {"image/jpeg", ".jpg"},
	"gif":  {"image/gif", ".gif"},
	"webp": {"image/webp", ".webp"},
}

// Identify 识别图片字节的尺寸与格式（只解析 header，不做完整解码）。
func Identify(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrUnidentified
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w：%v", ErrUnidentified, err)
	}
	fi, ok := formatInfo[format]
	if !ok {
		return Info{}, fmt.Errorf("%w：%q", ErrUnidentified, format)
	}
	return Info{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Mime:      fi.mime,
		Extension: fi.ext,
		DataLen:   int64(len(data)),
	}, nil
}
