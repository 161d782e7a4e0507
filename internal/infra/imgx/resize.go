package imgx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	"github.com/nfnt/resize"
)

// ResizeMode 是封面缩放模式（配置里按数值存储，数值即契约，不可重排）。
type ResizeMode int

const (
	ResizeMaintainAspectRatio ResizeMode = 0
	ResizeScaleToWidth        ResizeMode = 1
	ResizeScaleToHeight       ResizeMode = 2
	ResizeCropToFit           ResizeMode = 3
	ResizeStretchToFit        ResizeMode = 4
)

// ValidResizeMode 判断配置里的数值是否是已知模式。
func ValidResizeMode(m int) bool {
	return m >= int(ResizeMaintainAspectRatio) && m <= int(ResizeStretchToFit)
}

// ResizeOptions 描述一次封面缩放。
type ResizeOptions struct {
	Mode         ResizeMode
	TargetWidth  int
	TargetHeight int
	// ScaleUp：允许把小图放大到目标尺寸；默认只缩不放。
	ScaleUp bool
}

// ResizeCover 按模式缩放封面并重编码为 JPEG。
//
// 规则：
// - 缩放因子为 1、或需要放大但未允许放大时，原样返回输入字节（不重编码）
// - crop 模式先按 max 因子缩放，再居中裁切到目标尺寸
// - stretch 模式按两个维度各自的因子拉伸（可能变形）
func ResizeCover(data []byte, opt ResizeOptions) ([]byte, Info, error) {
	if opt.TargetWidth <= 0 || opt.TargetHeight <= 0 {
		return nil, Info{}, errors.New("imgx: 目标尺寸必须为正")
	}
	info, err := Identify(data)
	if err != nil {
		return nil, Info{}, err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, Info{}, errors.New("imgx: 图片尺寸无效")
	}

	widthFactor := float64(opt.TargetWidth) / float64(info.Width)
	heightFactor := float64(opt.TargetHeight) / float64(info.Height)

	var factor float64
	switch opt.Mode {
	case ResizeMaintainAspectRatio:
		factor = min(widthFactor, heightFactor)
	case ResizeScaleToWidth:
		factor = widthFactor
	case ResizeScaleToHeight:
		factor = heightFactor
	case ResizeCropToFit, ResizeStretchToFit:
		factor = max(widthFactor, heightFactor)
	default:
		return nil, Info{}, fmt.Errorf("imgx: 未知的缩放模式 %d", opt.Mode)
	}
	if factor == 1 || (factor > 1 && !opt.ScaleUp) {
		// 不需要缩放：保持原始字节，避免无谓的重编码劣化。
		return data, info, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Info{}, err
	}

	newWidth := float64(info.Width) * factor
	newHeight := float64(info.Height) * factor
	if opt.Mode == ResizeStretchToFit {
		newWidth = float64(info.Width) * widthFactor
		newHeight = float64(info.Height) * heightFactor
	}
	scaled := resize.Resize(uint(newWidth), uint(newHeight), img, resize.Lanczos3)

	if opt.Mode == ResizeCropToFit {
		scaled = centerCrop(scaled, opt.TargetWidth, opt.TargetHeight)
	}

	out, err := encodeJPEG(scaled)
	if err != nil {
		return nil, Info{}, err
	}
	b := scaled.Bounds()
	return out, Info{
		Width:     b.Dx(),
		Height:    b.Dy(),
		Mime:      "image/jpeg",
		Extension: ".jpg",
		DataLen:   int64(len(out)),
	}, nil
}

// centerCrop 居中裁切到目标尺寸（超出部分对半裁掉）。
func centerCrop(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	x0 := b.Min.X + (b.Dx()-width)/2
	y0 := b.Min.Y + (b.Dy()-height)/2
	srcRect := image.Rect(x0, y0, x0+width, y0+height)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), img, srcRect.Min, draw.Src)
	return dst
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var out bytes.Buffer
	// 质量：不需要太"讲究"，但要稳定可用；95 在体积与质量之间比较均衡。
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
