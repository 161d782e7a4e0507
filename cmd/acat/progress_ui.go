package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/ACAT/internal/app/run"
	"github.com/John-Robertt/ACAT/internal/config"
	"github.com/John-Robertt/ACAT/internal/domain"
)

var _ run.Observer = (*progressObserver)(nil)

// progressObserver 把 run 层的事件渲染成交互终端的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
type progressObserver struct {
	w   io.Writer
	log zerolog.Logger

	mu        sync.Mutex
	startedAt time.Time
}

func newProgressObserver(w io.Writer) *progressObserver {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return &progressObserver{
		w:   w,
		log: zerolog.New(cw).With().Timestamp().Logger(),
	}
}

func (p *progressObserver) OnStart(eff config.EffectiveConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startedAt.IsZero() {
		p.startedAt = time.Now()
	}

	mode := "dry-run"
	if eff.Apply {
		mode = "apply"
	}

	p.log.Info().
		Str("mode", mode).
		Str("path", eff.Path).
		Bool("save_images_to_tags", eff.Tags.SaveImagesToTags).
		Bool("embed_only_one_front_image", eff.Tags.EmbedOnlyOneFrontImage).
		Bool("filter_cover_by_size", eff.Filter.FilterBySize).
		Bool("cover_resize", eff.Resize).
		Strs("exclude_dirs", eff.ExcludeDirs).
		Msg("acat run")
}

func (p *progressObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ev := p.log.Info().Str("phase", name).Str("dur", formatShortDuration(dur))
	for k := range fields {
		ev = ev.Int(k, intField(fields, k))
	}
	ev.Msg("阶段完成")
}

func (p *progressObserver) OnItemDone(idx, total int, release domain.ReleaseKey, res domain.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	progress := fmt.Sprintf("%d/%d", idx, total)

	switch res.Status {
	case domain.StatusFailed:
		p.log.Error().
			Str("progress", progress).
			Str("release", string(release)).
			Str("error_code", res.ErrorCode).
			Str("dur", formatShortDuration(dur)).
			Msg(truncate(res.ErrorMsg, 160))
	case domain.StatusSkipped:
		p.log.Info().
			Str("progress", progress).
			Str("release", string(release)).
			Str("dur", formatShortDuration(dur)).
			Msg("跳过（无需导出）")
	default:
		ev := p.log.Info().
			Str("progress", progress).
			Str("release", string(release)).
			Int("images", res.Cover.Images).
			Bool("common", res.Cover.HasCommonImages).
			Int("exported", len(res.Cover.Exported)).
			Str("dur", formatShortDuration(dur))
		if res.Cover.FrontSource != "" {
			ev = ev.Str("front", truncate(res.Cover.FrontSource, 80))
		}
		ev.Msg("完成")
	}
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}
