package coverart

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// TypeFront 等是封面类型的固定词表（与常见 tag 规范对齐）。
const (
	TypeFront   = "front"
	TypeBack    = "back"
	TypeBooklet = "booklet"
	TypeMedium  = "medium"
	TypeOther   = "other"
)

// Image 是一张内容寻址的封面图片。
//
// 身份约束：两张图片相等，当且仅当来源定位符与内容字节都相同；
// Key() 即该身份的规范键，任何集合语义都只看 Key()。
type Image struct {
	// Source 是图片的来源定位符（file:// 形式的 sidecar 路径等）。
	Source string
	// Data 是原始图片字节。图片在节点之间共享，不做深拷贝。
	Data []byte

	// SupportsTypes 表示来源是否携带类型信息；不携带时按 front 处理。
	SupportsTypes bool

	// CanBeEmbedded 表示该图片是否允许被嵌入 tag（缩略图等来源应设为 false）。
	CanBeEmbedded bool

	// 尺寸与格式信息由 imgx.Identify 识别后回填（构造方负责）。
	Width     int
	Height    int
	Mime      string
	Extension string // ".png"

	types []string
	hash  string
}

// NewImage 构造封面图片；types 保持输入顺序但去重。
func NewImage(source string, data []byte, supportsTypes bool, types []string) *Image {
	sum := sha256.Sum256(data)
	return &Image{
		Source:        source,
		Data:          data,
		SupportsTypes: supportsTypes,
		CanBeEmbedded: true,
		types:         dedupTypes(types),
		hash:          hex.EncodeToString(sum[:]),
	}
}

func dedupTypes(types []string) []string {
	out := make([]string, 0, len(types))
	seen := make(map[string]struct{}, len(types))
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Key 返回身份键：内容 hash + 来源。
func (im *Image) Key() string {
	return im.hash + "|" + im.Source
}

// Hash 返回内容 hash（hex），用于 cache 文件名等内容寻址场景。
func (im *Image) Hash() string { return im.hash }

// Types 返回类型标签（顺序保持、已去重）。返回副本，调用方可随意持有。
func (im *Image) Types() []string {
	return append([]string(nil), im.types...)
}

// IsFront 判断是否为正面封面：
// - 类型里带 front；或
// - 来源不支持类型；或
// - 没有任何类型标签。
func (im *Image) IsFront() bool {
	if !im.SupportsTypes || len(im.types) == 0 {
		return true
	}
	for _, t := range im.types {
		if t == TypeFront {
			return true
		}
	}
	return false
}

// NormalizedTypes 返回排序后的类型标签；没有类型时用 front/"-" 占位，
// 保证 TypesDict 的键稳定。
func (im *Image) NormalizedTypes() []string {
	if len(im.types) > 0 {
		out := im.Types()
		sort.Strings(out)
		return out
	}
	if im.IsFront() {
		return []string{TypeFront}
	}
	return []string{"-"}
}

func (im *Image) typesKey() string {
	return strings.Join(im.NormalizedTypes(), ",")
}
