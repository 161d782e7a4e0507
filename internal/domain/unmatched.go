package domain

// Unmatched 描述无法归入任何 release 的输入文件。
// 用于 report 的 unmatched 条目（目录名不可用等）。
type Unmatched struct {
	File AudioFile
	Kind string // "no_release" | "invalid_name"
}
