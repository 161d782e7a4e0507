package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/ACAT/internal/coverart"
	"github.com/John-Robertt/ACAT/internal/domain"
)

// ReadOutState 读取 out/<release>/ 的现状（只做 ReadDir，不读文件内容）。
// 若 outDir 不存在，返回空状态且不报错。
func ReadOutState(root string, release domain.ReleaseKey) (domain.OutState, error) {
	outDir := filepath.Join(root, "out", string(release))
	st := domain.OutState{
		OutDir:        outDir,
		ExistingNames: map[string]struct{}{},
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return domain.OutState{}, err
	}

	for _, e := range entries {
		st.ExistingNames[e.Name()] = struct{}{}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if strings.EqualFold(base, "cover") {
			st.HasCover = true
		}
	}

	return st, nil
}

// PlanItem 基于已选出的图片 + OutState 生成确定性的导出计划（不做任何写入）。
// 目标名已存在的图片被跳过：导出遵守"不覆盖"契约，重复运行不产生副本。
func PlanItem(release domain.ReleaseKey, images []*coverart.Image, st domain.OutState) (domain.ItemPlan, error) {
	used := make(map[string]struct{}, len(st.ExistingNames)+len(images))
	for n := range st.ExistingNames {
		used[n] = struct{}{}
	}

	exports := make([]domain.ExportTarget, 0, len(images))
	for _, im := range images {
		if im == nil {
			return domain.ItemPlan{}, fmt.Errorf("非法图片：nil")
		}
		if im.Extension == "" {
			return domain.ItemPlan{}, fmt.Errorf("图片缺少扩展名：%s", im.Source)
		}

		name := exportBase(im) + im.Extension
		if _, ok := st.ExistingNames[name]; ok {
			continue
		}
		dstName := allocName(name, used)
		used[dstName] = struct{}{}

		exports = append(exports, domain.ExportTarget{
			ImageKey: im.Key(),
			DstName:  dstName,
		})
	}

	return domain.ItemPlan{
		Release: release,
		Exports: exports,
	}, nil
}

// exportBase 给图片选导出基名：正面统一叫 cover，其余按首个类型命名。
func exportBase(im *coverart.Image) string {
	if im.IsFront() {
		return "cover"
	}
	types := im.NormalizedTypes()
	if len(types) == 0 {
		return "image"
	}
	return types[0]
}

func allocName(name string, used map[string]struct{}) string {
	if _, ok := used[name]; !ok {
		return name
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for n := 2; ; n++ {
		cand := fmt.Sprintf("%s__%d%s", base, n, ext)
		if _, ok := used[cand]; !ok {
			return cand
		}
	}
}

// SortPlans 让上层在需要时可显式保证稳定顺序（而不是依赖 map 遍历顺序）。
func SortPlans(plans []domain.ItemPlan) {
	sort.Slice(plans, func(i, j int) bool { return string(plans[i].Release) < string(plans[j].Release) })
}
