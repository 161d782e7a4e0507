package domain

// ExportTarget 规划一张封面图片的导出（只描述 key/dst；真正写入必须遵守"不覆盖"契约）。
type ExportTarget struct {
	ImageKey string // 图片的内容键（hash+source），指回聚合集合里的成员
	DstName  string // out/<release>/ 下的目标文件名
}

// ItemPlan 是对某个 release 的最小导出计划。
type ItemPlan struct {
	Release ReleaseKey

	Exports []ExportTarget
}
