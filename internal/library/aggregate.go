package library

import "github.com/John-Robertt/ACAT/internal/coverart"

// imageSource 是聚合的孩子视图：对外只暴露"当前这份图片集合"。
// File 暴露自己的集合；Track/Cluster 作为 Album 的孩子时暴露已聚合的集合。
type imageSource interface {
	imageView() *coverart.List
}

func (f *File) imageView() *coverart.List    { return f.Metadata.Images }
func (c *Cluster) imageView() *coverart.List { return c.Metadata.Images }
func (t *Track) imageView() *coverart.List   { return t.Metadata.Images }

// recompute 对孩子视图做一次全量计算：
// - union：全体孩子图片的并集，按"孩子顺序 + 首次出现"保序去重
// - common：所有孩子的集合两两相同（等价于都等于第一个孩子的集合）；零孩子时空真
func recompute(children []imageSource) (union *coverart.List, common bool) {
	union = coverart.NewList()
	common = true
	seen := make(map[string]struct{})
	var first *coverart.List
	for i, child := range children {
		view := child.imageView()
		if i == 0 {
			first = view
		} else if common && !view.Equal(first) {
			common = false
		}
		for _, im := range view.Images() {
			if _, ok := seen[im.Key()]; ok {
				continue
			}
			seen[im.Key()] = struct{}{}
			union.Append(im)
		}
	}
	return union, common
}

// replace 用重算结果替换节点状态，返回"用户可见状态是否变化"
// （集合按集合语义比较，标志按布尔比较）。
func replace(meta *Metadata, union *coverart.List, common bool) bool {
	changed := !meta.Images.Equal(union) || meta.HasCommonImages != common
	meta.Images = union
	meta.HasCommonImages = common
	return changed
}

// addFromChildren 是"孩子集合追加后"的增量路径：
// - 新增孩子带来的新图片 append 到现有集合末尾（成员与全量重算一致）
// - 公共标志必须按**全量**孩子重新判定：追加可能打破原有的公共性
// - 空的 added 是 no-op，返回 false
func addFromChildren(meta *Metadata, all, added []imageSource) bool {
	if len(added) == 0 {
		return false
	}
	changed := false
	for _, child := range added {
		for _, im := range child.imageView().Images() {
			if meta.Images.Contains(im) {
				continue
			}
			meta.Images.Append(im)
			changed = true
		}
	}
	_, common := recompute(all)
	if meta.HasCommonImages != common {
		meta.HasCommonImages = common
		changed = true
	}
	return changed
}

// fileSources 把文件孩子转成聚合视图。
func fileSources(files []*File) []imageSource {
	out := make([]imageSource, len(files))
	for i, f := range files {
		out[i] = f
	}
	return out
}

// UpdateImagesFromChildren 全量重算 cluster 的聚合集合与公共标志。
// 返回 true 当且仅当集合（按集合语义）或标志发生了变化。
func (c *Cluster) UpdateImagesFromChildren() bool {
	union, common := recompute(fileSources(c.Files))
	return replace(&c.Metadata, union, common)
}

// AddImagesFromChildren 在 added 已追加进 c.Files 之后调用。
// 最终状态与全量重算一致；added 为空时不做任何事，返回 false。
func (c *Cluster) AddImagesFromChildren(added []*File) bool {
	return addFromChildren(&c.Metadata, fileSources(c.Files), fileSources(added))
}

// RemoveImagesFromChildren 在 removed 已从 c.Files 移除之后调用；
// 按剩余孩子全量重算（removed 参数只表达调用意图，结果只取决于剩余孩子）。
func (c *Cluster) RemoveImagesFromChildren(removed []*File) bool {
	_ = removed
	return c.UpdateImagesFromChildren()
}

// UpdateImagesFromChildren 全量重算 track 的聚合集合与公共标志。
func (t *Track) UpdateImagesFromChildren() bool {
	union, common := recompute(fileSources(t.Files))
	return replace(&t.Metadata, union, common)
}

// AddImagesFromChildren 在 added 已追加进 t.Files 之后调用。
func (t *Track) AddImagesFromChildren(added []*File) bool {
	return addFromChildren(&t.Metadata, fileSources(t.Files), fileSources(added))
}

// RemoveImagesFromChildren 在 removed 已从 t.Files 移除之后调用。
func (t *Track) RemoveImagesFromChildren(removed []*File) bool {
	_ = removed
	return t.UpdateImagesFromChildren()
}

// children 返回专辑的聚合孩子：有文件的 track + 非空的 unmatched 桶。
// 没有文件的孩子不贡献任何图片，也不参与公共性判定（与"只有文件会
// 贡献图片"的源头语义一致）。
func (a *Album) children() []imageSource {
	kids := make([]imageSource, 0, len(a.Tracks)+1)
	for _, t := range a.Tracks {
		if len(t.Files) > 0 {
			kids = append(kids, t)
		}
	}
	if a.UnmatchedFiles != nil && len(a.UnmatchedFiles.Files) > 0 {
		kids = append(kids, a.UnmatchedFiles)
	}
	return kids
}

// UpdateImagesFromChildren 全量重算专辑的聚合集合与公共标志。
//
// 前置条件：孩子的聚合视图必须是新鲜的（track 与 unmatched 桶先各自
// Update）。调用方要么自己保证顺序，要么用 RefreshAlbumImages。
func (a *Album) UpdateImagesFromChildren() bool {
	union, common := recompute(a.children())
	return replace(&a.Metadata, union, common)
}

// AddImagesFromChildren 在 added 已追加进 a.Tracks 之后调用（同样要求
// added 各自的聚合视图已新鲜）。
func (a *Album) AddImagesFromChildren(added []*Track) bool {
	srcs := make([]imageSource, 0, len(added))
	for _, t := range added {
		if len(t.Files) > 0 {
			srcs = append(srcs, t)
		}
	}
	return addFromChildren(&a.Metadata, a.children(), srcs)
}

// RemoveImagesFromChildren 在 removed 已从 a.Tracks 移除之后调用。
func (a *Album) RemoveImagesFromChildren(removed []*Track) bool {
	_ = removed
	return a.UpdateImagesFromChildren()
}

// RefreshAlbumImages 自底向上重算整棵专辑树：先所有 track，再 unmatched
// 桶，最后专辑本身。消除"先算专辑再算曲目"的脏读隐患。
// 返回 true 当且仅当任一节点的用户可见状态发生了变化。
func RefreshAlbumImages(a *Album) bool {
	changed := false
	for _, t := range a.Tracks {
		if t.UpdateImagesFromChildren() {
			changed = true
		}
	}
	if a.UnmatchedFiles != nil {
		if a.UnmatchedFiles.UpdateImagesFromChildren() {
			changed = true
		}
	}
	if a.UpdateImagesFromChildren() {
		changed = true
	}
	return changed
}
