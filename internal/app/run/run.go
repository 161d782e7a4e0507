package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/John-Robertt/ACAT/internal/app"
	"github.com/John-Robertt/ACAT/internal/app/planner"
	"github.com/John-Robertt/ACAT/internal/config"
	"github.com/John-Robertt/ACAT/internal/coverart"
	"github.com/John-Robertt/ACAT/internal/domain"
	"github.com/John-Robertt/ACAT/internal/infra/cache"
	"github.com/John-Robertt/ACAT/internal/infra/fsx"
	"github.com/John-Robertt/ACAT/internal/infra/imgx"
	"github.com/John-Robertt/ACAT/internal/library"
	"github.com/John-Robertt/ACAT/internal/provider"
	"github.com/John-Robertt/ACAT/internal/scan"
)

// Execute 执行一次 run（dry-run/apply），并返回对外稳定的 RunReport。
// 该函数尽量把错误"降级"为 item 级失败（单条失败不影响其他）。
func Execute(ctx context.Context, eff config.EffectiveConfig, reg provider.Registry) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, reg, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, reg provider.Registry, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		Path:      eff.Path,
		DryRun:    !eff.Apply,
		StartedAt: started,
		Items:     make([]domain.ItemResult, 0, 128),
	}

	store := cache.New(eff.Path, !eff.Apply)

	scanStarted := time.Now()
	files, err := scan.ScanAudio(eff.Path, eff.ExcludeDirs)
	if err != nil {
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("扫描失败：%v", err)))
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}
	scanDur := time.Since(scanStarted)

	groupStarted := time.Now()
	items, unmatched, err := app.GroupByRelease(files)
	if err != nil {
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("分组失败：%v", err)))
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}
	groupDur := time.Since(groupStarted)

	if obs != nil {
		// 输出按文档约定：scan 行同时展示 files + unmatched（unmatched 来自分组阶段）。
		obs.OnPhaseDone("scan", map[string]any{
			"files":     len(files),
			"unmatched": len(unmatched),
		}, scanDur)
		obs.OnPhaseDone("group", map[string]any{
			"releases": len(items),
		}, groupDur)
	}

	// unmatched：每个输入文件单独形成一条 item（更可解释，便于用户逐个修复）。
	for _, u := range unmatched {
		rr.Items = append(rr.Items, unmatchedItem(u))
	}

	// 执行阶段：按 release 串行（本地 I/O 为主，顺序执行保证输出与写入确定性）。
	for i, it := range items {
		oneStarted := time.Now()

		var res domain.ItemResult
		if ctx.Err() != nil {
			res = failedItem(it, files, domain.ErrCodeIOFailed, fmt.Sprintf("运行被取消：%v", ctx.Err()))
		} else {
			res = execOne(eff, reg, store, files, it)
		}
		rr.Items = append(rr.Items, res)

		if obs != nil {
			obs.OnItemDone(i+1, len(items), it.Release, res, time.Since(oneStarted))
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func unmatchedItem(u domain.Unmatched) domain.ItemResult {
	item := domain.ItemResult{
		Release:   "",
		Status:    domain.StatusUnmatched,
		ErrorCode: domain.ErrCodeInvalidName,
		Files:     []string{u.File.RelPath},
	}

	switch u.Kind {
	case "invalid_name":
		item.ErrorMsg = "父目录名无法作为 release 名称；请重命名目录（不能为空/点号/纯分隔符）"
	default:
		item.ErrorMsg = "文件位于库根目录，没有可作为 release 的父目录；请把文件放进专辑目录"
	}
	return item
}

func failedItem(it domain.WorkItem, files []domain.AudioFile, code, msg string) domain.ItemResult {
	out := domain.ItemResult{
		Release:   string(it.Release),
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
		Files:     make([]string, 0, len(it.FileIdx)),
	}
	for _, idx := range it.FileIdx {
		if idx < 0 || idx >= len(files) {
			continue
		}
		out.Files = append(out.Files, files[idx].RelPath)
	}
	return out
}

func syntheticFailed(code, msg string) domain.ItemResult {
	return domain.ItemResult{
		Release:   "",
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
		Files:     []string{},
	}
}

// execOne 处理单个 release：聚合封面 → 选择 → 筛选 → 缩放 → 规划 → 导出。
func execOne(eff config.EffectiveConfig, reg provider.Registry, store cache.Store, files []domain.AudioFile, it domain.WorkItem) domain.ItemResult {
	item := domain.ItemResult{
		Release: string(it.Release),
		Status:  domain.StatusProcessed, // 失败时覆盖
		Files:   make([]string, 0, len(it.FileIdx)),
	}
	for _, idx := range it.FileIdx {
		if idx < 0 || idx >= len(files) {
			item.Status = domain.StatusFailed
			item.ErrorCode = domain.ErrCodeIOFailed
			item.ErrorMsg = fmt.Sprintf("非法 file index：%d", idx)
			return item
		}
		item.Files = append(item.Files, files[idx].RelPath)
	}
	if len(it.FileIdx) == 0 {
		item.Status = domain.StatusSkipped
		return item
	}

	// 同一 release 的文件共享父目录（分组即按目录），封面来源也按该目录查找。
	dir := filepath.Dir(files[it.FileIdx[0]].AbsPath)
	found := make([]*coverart.Image, 0, 4)
	for _, p := range reg.All() {
		ims, err := p.FindImages(dir)
		if err != nil {
			item.Status = domain.StatusFailed
			item.ErrorCode = domain.ErrCodeIOFailed
			item.ErrorMsg = fmt.Sprintf("provider %s 查找封面失败：%v", p.Name(), err)
			return item
		}
		found = append(found, ims...)
	}

	// 构建专辑树并自底向上聚合：每个音频文件一条 track，目录里的封面挂到每个文件上。
	album := library.NewAlbum(uuid.New())
	for _, idx := range it.FileIdx {
		f := library.NewFile(files[idx])
		f.Metadata.Images.Append(found...)
		t := library.NewTrack(uuid.New())
		t.Files = append(t.Files, f)
		album.Tracks = append(album.Tracks, t)
	}
	library.RefreshAlbumImages(album)

	item.Cover.Images = album.Metadata.Images.Len()
	item.Cover.HasCommonImages = album.Metadata.HasCommonImages
	if front := album.Metadata.Images.FrontImage(); front != nil {
		item.Cover.FrontSource = front.Source
	}

	// 选择 + 尺寸筛选 + 缩放。缩放产物按内容 hash 进缓存，apply 时写回。
	selected := album.Metadata.Images.ToBeSavedToTags(eff.Tags)
	exportImages := make([]*coverart.Image, 0, len(selected))
	payload := make(map[string][]byte, len(selected))
	for _, im := range selected {
		if !coverart.SizeFilter(eff.Filter, im) {
			continue
		}

		data := im.Data
		ext := im.Extension
		if eff.Resize {
			out, resized, err := resizeWithCache(store, eff, im)
			if err != nil {
				item.Status = domain.StatusFailed
				item.ErrorCode = domain.ErrCodeImageInvalid
				item.ErrorMsg = fmt.Sprintf("缩放封面失败（%s）：%v", im.Source, err)
				return item
			}
			data = out
			if resized {
				ext = ".jpg"
			}
		}

		// 浅拷贝：hash/Source 不变（Key 稳定），只换导出用的字节与扩展名。
		cp := *im
		cp.Data = data
		cp.Extension = ext
		exportImages = append(exportImages, &cp)
		payload[cp.Key()] = data
	}

	st, err := planner.ReadOutState(eff.Path, it.Release)
	if err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeIOFailed
		item.ErrorMsg = fmt.Sprintf("读取 out 状态失败：%v", err)
		return item
	}
	plan, err := planner.PlanItem(it.Release, exportImages, st)
	if err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeImageInvalid
		item.ErrorMsg = fmt.Sprintf("规划导出失败：%v", err)
		return item
	}

	if len(plan.Exports) == 0 {
		item.Status = domain.StatusSkipped
		return item
	}

	exported := make([]string, 0, len(plan.Exports))
	for _, e := range plan.Exports {
		exported = append(exported, e.DstName)
	}
	item.Cover.Exported = exported

	// dry-run：到此为止，不落盘。
	if !eff.Apply {
		return item
	}

	// apply：原子 + 不覆盖。已存在视为满足（规划阶段已按现名跳过，这里只兜底竞态）。
	for _, e := range plan.Exports {
		b, ok := payload[e.ImageKey]
		if !ok {
			item.Status = domain.StatusFailed
			item.ErrorCode = domain.ErrCodeImageInvalid
			item.ErrorMsg = fmt.Sprintf("导出计划引用了未知图片：%s", e.ImageKey)
			return item
		}
		if err := fsx.WriteFileAtomicNoOverwrite(st.OutDir, e.DstName, b); err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			item.Status = domain.StatusFailed
			if fsx.IsPathTypeConflict(err) {
				item.ErrorCode = domain.ErrCodeExportConflict
			} else {
				item.ErrorCode = domain.ErrCodeIOFailed
			}
			item.ErrorMsg = fmt.Sprintf("写入 %s 失败：%v", e.DstName, err)
			return item
		}
	}

	return item
}

// resizeWithCache 返回待导出的字节，以及是否发生了缩放（resized=true 时产物是 JPEG）。
// 缓存命中直接复用；未命中才解码缩放，apply 时写回缓存。
func resizeWithCache(store cache.Store, eff config.EffectiveConfig, im *coverart.Image) ([]byte, bool, error) {
	if b, ok, err := store.ReadImage(im.Hash()); err == nil && ok {
		return b, true, nil
	}

	out, _, err := imgx.ResizeCover(im.Data, eff.ResizeOptions)
	if err != nil {
		return nil, false, err
	}
	if bytes.Equal(out, im.Data) {
		// 未触发缩放：保持原始字节与扩展名。
		return im.Data, false, nil
	}

	if !store.ReadOnly {
		if err := store.WriteImage(im.Hash(), out); err != nil {
			// 缓存写失败不致命：产物仍然可用，下次重算。
			log.Warn().Err(err).Str("source", im.Source).Msg("写入图片缓存失败")
		}
	}
	return out, true, nil
}
