package coverart

import "github.com/rs/zerolog/log"

// FilterSettings 控制封面筛选（对应配置里的 filter_cover_by_size 一组键）。
// MinWidth/MinHeight 为 -1 时该维度不参与判断。
type FilterSettings struct {
	FilterBySize bool
	MinWidth     int
	MinHeight    int
}

// PassesSizeThreshold 判断尺寸是否达到配置的下限。
// 未启用筛选时恒为 true。
func PassesSizeThreshold(s FilterSettings, width, height int) bool {
	if !s.FilterBySize {
		return true
	}
	minWidth := s.MinWidth
	if width == -1 {
		minWidth = -1
	}
	minHeight := s.MinHeight
	if height == -1 {
		minHeight = -1
	}
	if width < minWidth || height < minHeight {
		log.Debug().
			Int("width", width).
			Int("height", height).
			Int("min_width", minWidth).
			Int("min_height", minHeight).
			Msg("丢弃封面：尺寸低于下限")
		return false
	}
	return true
}

// SizeFilter 是 PassesSizeThreshold 的图片级包装。
func SizeFilter(s FilterSettings, im *Image) bool {
	return PassesSizeThreshold(s, im.Width, im.Height)
}

// NotSmallerThanPrevious 判断 im 是否不小于 previous 里同类型的代表图片。
// previous 中没有同类型图片时恒为 true（没有可比较对象就不拦截）。
func NotSmallerThanPrevious(previous *List, im *Image) bool {
	if previous == nil {
		return true
	}
	dict := previous.TypesDict()
	prev, ok := dict[im.typesKey()]
	if !ok {
		return true
	}
	if im.Width < prev.Width || im.Height < prev.Height {
		log.Debug().
			Str("source", im.Source).
			Msg("丢弃封面：已存在同类型的更大图片")
		return false
	}
	return true
}
