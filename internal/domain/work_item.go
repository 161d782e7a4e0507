package domain

// WorkItem 是按 release 聚合后的工作单元（一个 cluster 的原料）。
// 为了数据局部性，WorkItem 只保存文件下标（指向 []AudioFile），避免复制大结构体。
type WorkItem struct {
	Release ReleaseKey
	FileIdx []int
}
