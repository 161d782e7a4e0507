package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/ACAT/internal/infra/fsx"
)

// Store 提供 <path>/cache/ 下处理后图片的读写（按内容 hash 寻址）。
//
// 约束：
// - dry-run：只允许读（ReadOnly=true）
// - apply：允许写（ReadOnly=false）
type Store struct {
	Root     string // <path>（扫描根目录）
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// ImagePath 返回处理后图片缓存的绝对路径。
// hash 是原始图片的内容散列；处理后的产物统一是 JPEG。
func (s Store) ImagePath(hash string) (string, error) {
	h, err := cleanHash(hash)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, "cache", "images", h+".jpg"), nil
}

func (s Store) ReadImage(hash string) ([]byte, bool, error) {
	path, err := s.ImagePath(hash)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s Store) WriteImage(hash string, data []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	h, err := cleanHash(hash)
	if err != nil {
		return err
	}
	dir := filepath.Join(s.Root, "cache", "images")
	return fsx.WriteFileAtomicReplace(dir, h+".jpg", data)
}

var hashRE = regexp.MustCompile(`^[a-f0-9]+$`)

func cleanHash(h string) (string, error) {
	h = strings.ToLower(strings.TrimSpace(h))
	if h == "" {
		return "", fmt.Errorf("hash 不能为空")
	}
	// 最小约束：避免路径穿越；hash 本身来自 sha256 十六进制，这里不做更多“聪明”处理。
	if !hashRE.MatchString(h) {
		return "", fmt.Errorf("非法 hash：%q", h)
	}
	return h, nil
}
