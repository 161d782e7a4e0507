package app

import (
	"errors"
	"sort"

	"github.com/John-Robertt/ACAT/internal/domain"
	"github.com/John-Robertt/ACAT/internal/release"
)

// GroupByRelease 把音频文件按 release（专辑目录）分组为 WorkItem（只存 file index）。
//
// - items 稳定排序：按 Release 字典序
// - item 内 FileIdx 稳定排序：按 RelPath 字典序
func GroupByRelease(files []domain.AudioFile) (items []domain.WorkItem, unmatched []domain.Unmatched, err error) {
	index := make(map[domain.ReleaseKey]int, 128)
	items = make([]domain.WorkItem, 0, 128)
	unmatched = make([]domain.Unmatched, 0, 32)

	for i := range files {
		key, e := release.Extract(files[i])
		if e != nil {
			var ue *release.UnmatchedError
			if errors.As(e, &ue) {
				unmatched = append(unmatched, domain.Unmatched{
					File: files[i],
					Kind: ue.Kind,
				})
				continue
			}
			return nil, nil, e
		}

		if idx, ok := index[key]; ok {
			items[idx].FileIdx = append(items[idx].FileIdx, i)
			continue
		}
		index[key] = len(items)
		items = append(items, domain.WorkItem{
			Release: key,
			FileIdx: []int{i},
		})
	}

	sort.Slice(items, func(i, j int) bool { return string(items[i].Release) < string(items[j].Release) })
	for i := range items {
		sort.Slice(items[i].FileIdx, func(a, b int) bool {
			ia := items[i].FileIdx[a]
			ib := items[i].FileIdx[b]
			return files[ia].RelPath < files[ib].RelPath
		})
	}
	return items, unmatched, nil
}
