package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/ACAT/internal/config"
	"github.com/John-Robertt/ACAT/internal/domain"
)

func TestProgressObserver_RendersLifecycle(t *testing.T) {
	var buf bytes.Buffer
	obs := newProgressObserver(&buf)

	obs.OnStart(config.EffectiveConfig{Path: "/music", Apply: false})
	obs.OnPhaseDone("scan", map[string]any{"files": 3, "unmatched": 1}, 12*time.Millisecond)
	obs.OnItemDone(1, 2, "Album A", domain.ItemResult{
		Release: "Album A",
		Status:  domain.StatusProcessed,
		Cover:   domain.CoverSummary{Images: 2, HasCommonImages: true, Exported: []string{"cover.png"}},
	}, 5*time.Millisecond)
	obs.OnItemDone(2, 2, "Album B", domain.ItemResult{
		Release:   "Album B",
		Status:    domain.StatusFailed,
		ErrorCode: domain.ErrCodeIOFailed,
		ErrorMsg:  "写入失败",
	}, 5*time.Millisecond)

	out := buf.String()
	for _, want := range []string{"dry-run", "scan", "Album A", "Album B", "io_failed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
}

func TestParseRunArgs(t *testing.T) {
	ra, err := parseRunArgs([]string{"--path", "/music", "--apply=false"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ra.Path != "/music" || ra.Apply || !ra.ApplySet {
		t.Fatalf("解析结果不一致：%+v", ra)
	}

	ra, err = parseRunArgs([]string{"/music", "--apply"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ra.Path != "/music" || !ra.Apply {
		t.Fatalf("位置参数解析失败：%+v", ra)
	}

	for _, bad := range [][]string{
		{"--path"},
		{"--apply=maybe"},
		{"a", "b"},
		{"--path", "a", "b"},
		{"--unknown"},
	} {
		if _, err := parseRunArgs(bad); err == nil {
			t.Fatalf("期望解析失败：%v", bad)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello world", 8); got != "hello..." {
		t.Fatalf("截断结果不一致：%q", got)
	}
	if got := truncate("short", 80); got != "short" {
		t.Fatalf("不应截断：%q", got)
	}
}
