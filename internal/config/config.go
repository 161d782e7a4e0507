package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/John-Robertt/ACAT/internal/coverart"
	"github.com/John-Robertt/ACAT/internal/infra/imgx"
)

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 acat.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = "config_missing_path"
	// ErrCodeMissingKey 表示嵌入策略的必填键缺失。
	// save_images_to_tags 与 embed_only_one_front_image 没有默认值：
	// 策略必须显式声明，缺失即失败。
	ErrCodeMissingKey = "config_missing_key"
)

const (
	// DefaultCoverMinimumWidth/Height 是尺寸筛选的内置下限（仅在启用筛选时生效）。
	DefaultCoverMinimumWidth  = 100
	DefaultCoverMinimumHeight = 100
	// DefaultCoverResizeWidth/Height 是缩放的内置目标尺寸。
	DefaultCoverResizeWidth  = 500
	DefaultCoverResizeHeight = 500
)

// 环境变量覆盖键（可来自进程环境或 <cwd>/.env）。
const (
	EnvPath  = "ACAT_PATH"
	EnvApply = "ACAT_APPLY"
)

// CLIArgs 只包含 CLI 暴露的两项入口（path/apply），并保留"是否显式指定"的信息。
// 这能保证覆盖优先级可实现：例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	Path string

	Apply    bool
	ApplySet bool
}

// FileConfig 对应 acat.json 的解析结构。
// 嵌入策略键用指针类型，以区分"显式 false"与"缺失"。
type FileConfig struct {
	Path  string `json:"path"`
	Apply *bool  `json:"apply"`

	SaveImagesToTags       *bool `json:"save_images_to_tags"`
	EmbedOnlyOneFrontImage *bool `json:"embed_only_one_front_image"`

	FilterCoverBySize  bool `json:"filter_cover_by_size"`
	CoverMinimumWidth  *int `json:"cover_minimum_width"`
	CoverMinimumHeight *int `json:"cover_minimum_height"`

	CoverResize       bool `json:"cover_resize"`
	CoverResizeMode   int  `json:"cover_resize_mode"`
	CoverResizeWidth  int  `json:"cover_resize_width"`
	CoverResizeHeight int  `json:"cover_resize_height"`
	CoverEnlarge      bool `json:"cover_enlarge"`

	ExcludeDirs []string `json:"exclude_dirs"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path  string
	Apply bool

	Tags   coverart.TagSettings
	Filter coverart.FilterSettings

	Resize        bool
	ResizeOptions imgx.ResizeOptions

	ExcludeDirs []string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Key  string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeMissingKey:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填键 %s", e.Code, e.Path, e.Key)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 按文档约定发现并读取配置文件，然后与 CLI/环境变量合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 或环境提供 path：尝试读取 <path>/acat.json（可选）
// 2) 都未提供 path：必须读取 <cwd>/acat.json（必选），且其中必须包含 path
//
// 覆盖优先级（固定）：
// - path：CLI --path > ACAT_PATH > config path
// - apply：CLI --apply/--apply=false > ACAT_APPLY > config > 默认 false
// - 嵌入策略键：仅由 config 控制，且必填
// - 其他字段：仅由 config 控制（CLI 不暴露）
//
// 环境变量来自进程环境，其次 <cwd>/.env（进程环境优先）。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	env := readEnv(cwdAbs)

	// path：CLI > 环境。
	inPath := strings.TrimSpace(cli.Path)
	if inPath == "" {
		inPath = strings.TrimSpace(env[EnvPath])
	}

	if inPath != "" {
		// 给了 path：配置文件可选，位置固定在 <path>/acat.json。
		absPath := absCleanFrom(cwdAbs, inPath)
		cfgPath := filepath.Join(absPath, "acat.json")

		fc, _, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		// 不存在也不报错，但策略键依旧必填。
		return merge(absPath, cli, env, fc, cfgPath)
	}

	// 没给 path：必须读取 <cwd>/acat.json，且其中必须包含 path。
	cfgPath := filepath.Join(cwdAbs, "acat.json")
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	absPath := absCleanFrom(cwdAbs, fc.Path)
	return merge(absPath, cli, env, fc, cfgPath)
}

func merge(absPath string, cli CLIArgs, env map[string]string, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	// apply：CLI > 环境 > config > 默认 false
	apply := false
	switch {
	case cli.ApplySet:
		apply = cli.Apply
	case strings.TrimSpace(env[EnvApply]) != "":
		v, err := strconv.ParseBool(strings.TrimSpace(env[EnvApply]))
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("%s 无效：%q", EnvApply, env[EnvApply])}
		}
		apply = v
	case fc.Apply != nil:
		apply = *fc.Apply
	}

	// 嵌入策略：必填，缺失即失败。
	if fc.SaveImagesToTags == nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingKey, Path: cfgPath, Key: "save_images_to_tags"}
	}
	if fc.EmbedOnlyOneFrontImage == nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingKey, Path: cfgPath, Key: "embed_only_one_front_image"}
	}

	minWidth := DefaultCoverMinimumWidth
	if fc.CoverMinimumWidth != nil {
		minWidth = *fc.CoverMinimumWidth
	}
	minHeight := DefaultCoverMinimumHeight
	if fc.CoverMinimumHeight != nil {
		minHeight = *fc.CoverMinimumHeight
	}
	// -1 表示该维度不参与判断；其余负值不合法。
	if minWidth < -1 || minHeight < -1 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("cover_minimum_width/height 不能小于 -1")}
	}

	if !imgx.ValidResizeMode(fc.CoverResizeMode) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("cover_resize_mode 无效：%d", fc.CoverResizeMode)}
	}
	resizeWidth := fc.CoverResizeWidth
	if resizeWidth == 0 {
		resizeWidth = DefaultCoverResizeWidth
	}
	resizeHeight := fc.CoverResizeHeight
	if resizeHeight == 0 {
		resizeHeight = DefaultCoverResizeHeight
	}
	if resizeWidth < 1 || resizeHeight < 1 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("cover_resize_width/height 必须是正数")}
	}

	return EffectiveConfig{
		Path:  absPath,
		Apply: apply,
		Tags: coverart.TagSettings{
			SaveImagesToTags:       *fc.SaveImagesToTags,
			EmbedOnlyOneFrontImage: *fc.EmbedOnlyOneFrontImage,
		},
		Filter: coverart.FilterSettings{
			FilterBySize: fc.FilterCoverBySize,
			MinWidth:     minWidth,
			MinHeight:    minHeight,
		},
		Resize: fc.CoverResize,
		ResizeOptions: imgx.ResizeOptions{
			Mode:         imgx.ResizeMode(fc.CoverResizeMode),
			TargetWidth:  resizeWidth,
			TargetHeight: resizeHeight,
			ScaleUp:      fc.CoverEnlarge,
		},
		ExcludeDirs: append([]string(nil), fc.ExcludeDirs...),
	}, nil
}

// readEnv 合并进程环境与 <cwd>/.env（进程环境优先）。
// .env 不存在或无法解析时按无覆盖处理：它只是可选的便利层。
func readEnv(cwdAbs string) map[string]string {
	out := map[string]string{}
	if dot, err := godotenv.Read(filepath.Join(cwdAbs, ".env")); err == nil {
		for _, k := range []string{EnvPath, EnvApply} {
			if v, ok := dot[k]; ok {
				out[k] = v
			}
		}
	}
	for _, k := range []string{EnvPath, EnvApply} {
		if v := os.Getenv(k); v != "" {
			out[k] = v
		}
	}
	return out
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
