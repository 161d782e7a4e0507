package coverart

import "fmt"

// List 是有序的封面图片集合。
//
// 语义约束：
// - 插入顺序保持；位置允许重复的 Key（append 不去重）
// - 集合相等只看 Key 的集合：顺序无关、重复次数无关
// - 图片对象在集合之间共享：Copy 只做浅拷贝
type List struct {
	images []*Image
}

// NewList 构造集合（保持传入顺序）。
func NewList(images ...*Image) *List {
	return &List{images: append([]*Image(nil), images...)}
}

// IndexError 表示越界的位置访问。
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("下标越界：%d（长度 %d）", e.Index, e.Len)
}

func (l *List) Len() int { return len(l.images) }

// At 返回位置 index 上的图片。
func (l *List) At(index int) (*Image, error) {
	if index < 0 || index >= len(l.images) {
		return nil, &IndexError{Index: index, Len: len(l.images)}
	}
	return l.images[index], nil
}

// Append 追加到末尾。
func (l *List) Append(images ...*Image) {
	l.images = append(l.images, images...)
}

// Insert 在位置 index 插入（标准序列插入语义：index ≥ 长度时等价 append，
// index < 0 按 0 处理）。
func (l *List) Insert(index int, im *Image) {
	if index < 0 {
		index = 0
	}
	if index >= len(l.images) {
		l.images = append(l.images, im)
		return
	}
	l.images = append(l.images, nil)
	copy(l.images[index+1:], l.images[index:])
	l.images[index] = im
}

// RemoveAt 删除位置 index 上的图片；越界返回 *IndexError。
func (l *List) RemoveAt(index int) error {
	if index < 0 || index >= len(l.images) {
		return &IndexError{Index: index, Len: len(l.images)}
	}
	l.images = append(l.images[:index], l.images[index+1:]...)
	return nil
}

// Clear 清空集合。
func (l *List) Clear() {
	l.images = l.images[:0]
}

// Copy 返回新集合（浅拷贝：序列独立，图片对象共享）。
func (l *List) Copy() *List {
	return NewList(l.images...)
}

// Images 返回序列的副本（图片对象共享），供调用方迭代。
func (l *List) Images() []*Image {
	return append([]*Image(nil), l.images...)
}

// Contains 按身份键判断成员关系。
func (l *List) Contains(im *Image) bool {
	key := im.Key()
	for _, x := range l.images {
		if x.Key() == key {
			return true
		}
	}
	return false
}

func (l *List) keySet() map[string]struct{} {
	set := make(map[string]struct{}, len(l.images))
	for _, im := range l.images {
		set[im.Key()] = struct{}{}
	}
	return set
}

// Equal 是集合相等：双方的 Key 集合完全一致（顺序、重复次数都不参与比较）。
func (l *List) Equal(other *List) bool {
	if l == nil {
		return other == nil || len(other.images) == 0
	}
	if other == nil {
		return len(l.images) == 0
	}
	a := l.keySet()
	b := other.keySet()
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// FrontImage 返回**最后**一张 front 图片（插入顺序的 last-wins），没有则返回 nil。
func (l *List) FrontImage() *Image {
	for i := len(l.images) - 1; i >= 0; i-- {
		if l.images[i].IsFront() {
			return l.images[i]
		}
	}
	return nil
}

// TagSettings 是嵌入策略的显式配置。
// 两个字段都是必填：缺失的校验发生在 config 装载层，而不是消费时。
type TagSettings struct {
	SaveImagesToTags       bool
	EmbedOnlyOneFrontImage bool
}

// ToBeSavedToTags 按策略选出要嵌入 tag 的图片：
// - SaveImagesToTags=false：什么都不嵌
// - EmbedOnlyOneFrontImage=false：全部可嵌入图片，按原顺序
// - EmbedOnlyOneFrontImage=true：只嵌 FrontImage() 选出的那一张（last-wins），
//   非 front 图片一律不嵌
func (l *List) ToBeSavedToTags(s TagSettings) []*Image {
	if !s.SaveImagesToTags {
		return nil
	}
	if s.EmbedOnlyOneFrontImage {
		// 与 FrontImage 相同的 last-wins 规则，但跳过不可嵌入的图片。
		for i := len(l.images) - 1; i >= 0; i-- {
			im := l.images[i]
			if im.CanBeEmbedded && im.IsFront() {
				return []*Image{im}
			}
		}
		return nil
	}
	out := make([]*Image, 0, len(l.images))
	for _, im := range l.images {
		if !im.CanBeEmbedded {
			continue
		}
		out = append(out, im)
	}
	return out
}

// StripFrontImages 原地删掉所有 front 图片，其余保持顺序。
func (l *List) StripFrontImages() {
	kept := l.images[:0]
	for _, im := range l.images {
		if im.IsFront() {
			continue
		}
		kept = append(kept, im)
	}
	l.images = kept
}

// TypesDict 按规范化类型集合索引图片；同类型多张时保留先出现且不更大的那张
// （historical 行为：新图任一边更大则不替换）。
func (l *List) TypesDict() map[string]*Image {
	dict := make(map[string]*Image, len(l.images))
	for _, im := range l.images {
		key := im.typesKey()
		if prev, ok := dict[key]; ok {
			if im.Width > prev.Width || im.Height > prev.Height {
				continue
			}
		}
		dict[key] = im
	}
	return dict
}
