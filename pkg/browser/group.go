package browser

import "sync"

// TabGroup 一次发布运行中打开的标签页集合，以创建时刻命名。
// 并发的发布运行各自持有独立的组，标签页加入顺序即平台处理顺序。
type TabGroup struct {
	Label string

	mu   sync.Mutex
	tabs []Tab
}

// NewTabGroup 创建标签组
func NewTabGroup(label string) *TabGroup {
	return &TabGroup{Label: label}
}

// Add 将标签页加入组
func (g *TabGroup) Add(t Tab) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tabs = append(g.tabs, t)
}

// Tabs 返回组内标签页快照
func (g *TabGroup) Tabs() []Tab {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Tab, len(g.tabs))
	copy(out, g.tabs)
	return out
}

// Size 组内标签页数量
func (g *TabGroup) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tabs)
}
