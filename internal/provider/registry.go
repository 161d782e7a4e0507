package provider

import (
	"fmt"
	"strings"
)

// Registry 是封面来源的只读注册表（保持注册顺序；顺序即优先级）。
// provider 数量极小，线性查找足够，保持简单即可。
type Registry struct {
	providers []Provider
	byName    map[string]Provider
}

func NewRegistry(providers ...Provider) (Registry, error) {
	ordered := make([]Provider, 0, len(providers))
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			return Registry{}, fmt.Errorf("provider 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(p.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("provider.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 provider：%q", name)
		}
		byName[name] = p
		ordered = append(ordered, p)
	}
	return Registry{providers: ordered, byName: byName}, nil
}

// Get 按名字查找 provider。
func (r Registry) Get(name string) (Provider, bool) {
	if r.byName == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	p, ok := r.byName[name]
	return p, ok
}

// All 按注册顺序返回全部 provider。
func (r Registry) All() []Provider {
	return append([]Provider(nil), r.providers...)
}
