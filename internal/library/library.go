// Package library 描述音频库的树形结构（File / Cluster / Track / Album），
// 并在孩子集合变化后按需重算各节点聚合出的封面集合。
//
// 约束：
// - 聚合从不自动响应孩子变化；调用方先改孩子集合、再调 Update/Add/Remove
// - 所有节点假定被同一个逻辑线程独占（与桌面应用的事件循环一致）
package library

import (
	"github.com/google/uuid"

	"github.com/John-Robertt/ACAT/internal/coverart"
	"github.com/John-Robertt/ACAT/internal/domain"
)

// Metadata 是节点上与封面相关的派生状态。
//
// Images 在叶子（File）上由外部的封面来源填充；在聚合节点上只能由
// Update/Add/Remove 重算，调用方不得直接改写。
type Metadata struct {
	Images *coverart.List

	// HasCommonImages：所有孩子贡献的图片集合两两相同（零孩子时空真）。
	HasCommonImages bool
}

// NewMetadata 返回初始状态：空集合 + 空真的公共标志。
func NewMetadata() Metadata {
	return Metadata{
		Images:          coverart.NewList(),
		HasCommonImages: true,
	}
}

// File 是叶子节点：一首音频文件与它自己的封面集合。
type File struct {
	Info     domain.AudioFile
	Metadata Metadata
}

// NewFile 构造叶子节点。
func NewFile(info domain.AudioFile) *File {
	return &File{Info: info, Metadata: NewMetadata()}
}

// Cluster 是一组尚未匹配到曲目的文件（也充当 Album 的 unmatched 桶）。
type Cluster struct {
	Release  domain.ReleaseKey
	Files    []*File
	Metadata Metadata
}

// NewCluster 构造空 cluster。
func NewCluster(release domain.ReleaseKey) *Cluster {
	return &Cluster{Release: release, Metadata: NewMetadata()}
}

// Track 是专辑里的一条曲目，可能匹配了多个文件。
type Track struct {
	ID       uuid.UUID
	Files    []*File
	Metadata Metadata
}

// NewTrack 构造空 track。
func NewTrack(id uuid.UUID) *Track {
	return &Track{ID: id, Metadata: NewMetadata()}
}

// Album 是组合节点：聚合对象是 Track 的**已聚合视图**加上 unmatched 桶的
// 已聚合视图，从不直接看单个文件。
type Album struct {
	ID             uuid.UUID
	Tracks         []*Track
	UnmatchedFiles *Cluster
	Metadata       Metadata
}

// NewAlbum 构造空专辑（自带一个空的 unmatched 桶）。
func NewAlbum(id uuid.UUID) *Album {
	return &Album{
		ID:             id,
		UnmatchedFiles: NewCluster(""),
		Metadata:       NewMetadata(),
	}
}
