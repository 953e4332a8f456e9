// Package dispatch 实现发布调度：按输入顺序为每个目标平台打开标签页、
// 等待加载完成、执行该平台的发布函数，并把标签页归入同一分组。
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mpkit/multipost-cli/pkg/browser"
	"github.com/mpkit/multipost-cli/pkg/models"
	"github.com/mpkit/multipost-cli/pkg/platform"
	"github.com/mpkit/multipost-cli/pkg/utils"
)

// DefaultInterval 平台间的节流间隔，给页面留出稳定时间，
// 也避免触发平台的反自动化策略
const DefaultInterval = 3 * time.Second

// Browser 抽象打开标签页的宿主，会话层和测试替身都实现它
type Browser interface {
	OpenTab(ctx context.Context, url string) (browser.Tab, error)
}

// 标签组归属在并发调度间串行化
var groupMu sync.Mutex

// Dispatcher 发布调度器
type Dispatcher struct {
	browser  Browser
	registry *platform.Registry
	interval time.Duration
	stats    *utils.ErrorStats
}

// Option 调度器配置项
type Option func(*Dispatcher)

// WithInterval 覆盖平台间的节流间隔
func WithInterval(d time.Duration) Option {
	return func(dp *Dispatcher) {
		dp.interval = d
	}
}

// NewDispatcher 创建调度器
func NewDispatcher(b Browser, registry *platform.Registry, opts ...Option) *Dispatcher {
	dp := &Dispatcher{
		browser:  b,
		registry: registry,
		interval: DefaultInterval,
		stats:    utils.NewErrorStats(),
	}
	for _, opt := range opts {
		opt(dp)
	}
	return dp
}

// Stats 返回本调度器累计的错误统计
func (dp *Dispatcher) Stats() *utils.ErrorStats {
	return dp.stats
}

// Dispatch 按输入顺序依次处理所有目标平台。
// 单个平台的失败只记录，不影响后续平台。
func (dp *Dispatcher) Dispatch(ctx context.Context, data *models.SyncData) error {
	if data == nil || len(data.Platforms) == 0 {
		return utils.NewError("没有目标平台", nil)
	}

	runID := uuid.New().String()
	utils.Info("开始发布任务 %s，共 %d 个平台", runID, len(data.Platforms))

	var group *browser.TabGroup

	for _, entry := range data.Platforms {
		if err := ctx.Err(); err != nil {
			return err
		}

		info, ok := dp.registry.Lookup(entry.Name)
		if !ok {
			utils.Error("未知平台: %s", entry.Name)
			dp.stats.Record(entry.Name, utils.NewError("未知平台", nil))
			continue
		}

		extra := mergeExtraConfig(entry.ExtraConfig, info.ExtraConfig)
		applyWeixinOptions(data, extra)

		// Beta 功能：配置了自定义注入地址时走降级路径，
		// 只逐个打开页面，不分组也不注入
		if extra != nil && len(extra.CustomInjectURLs) > 0 {
			dp.openCustomTabs(ctx, entry.Name, extra.CustomInjectURLs)
			continue
		}

		injectURL := entry.InjectURL
		if injectURL == "" {
			injectURL = info.InjectURL
		}

		tab, err := dp.browser.OpenTab(ctx, injectURL)
		if err != nil {
			utils.Error("平台 %s 打开标签页失败: %v", entry.Name, err)
			dp.stats.Record(entry.Name, err)
			continue
		}

		if err := tab.WaitReady(ctx); err != nil {
			utils.Error("平台 %s 页面加载失败: %v", entry.Name, err)
			dp.stats.Record(entry.Name, err)
			continue
		}

		// 第一个正常标签页建组，后续都加入同一组
		groupMu.Lock()
		if group == nil {
			group = browser.NewTabGroup(utils.GroupLabel(time.Now()))
			utils.Info("创建标签组: %s", group.Label)
		}
		group.Add(tab)
		groupMu.Unlock()

		if info.Inject != nil {
			if err := info.Inject(ctx, tab, data); err != nil {
				utils.Error("平台 %s 发布失败: %v", entry.Name, err)
				dp.stats.Record(entry.Name, err)
			} else {
				utils.Info("平台 %s 发布完成", entry.Name)
			}
		}

		if err := tab.Activate(); err != nil {
			utils.Warn("激活标签页失败: %v", err)
		}

		if err := dp.throttle(ctx); err != nil {
			return err
		}
	}

	utils.Info("发布任务 %s 处理结束，失败 %d 次", runID, dp.stats.Total())
	return nil
}

// openCustomTabs 逐个打开自定义注入地址，每个都等待加载完成
func (dp *Dispatcher) openCustomTabs(ctx context.Context, name string, urls []string) {
	for _, customURL := range urls {
		tab, err := dp.browser.OpenTab(ctx, customURL)
		if err != nil {
			utils.Error("平台 %s 打开自定义页面失败: %v", name, err)
			dp.stats.Record(name, err)
			continue
		}
		if err := tab.WaitReady(ctx); err != nil {
			utils.Error("平台 %s 自定义页面加载失败: %v", name, err)
			dp.stats.Record(name, err)
		}
	}
}

func (dp *Dispatcher) throttle(ctx context.Context) error {
	if dp.interval <= 0 {
		return nil
	}

	timer := time.NewTimer(dp.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// mergeExtraConfig 平台条目上的配置优先于本地存储中的配置
func mergeExtraConfig(entry, stored *models.ExtraConfig) *models.ExtraConfig {
	if entry == nil {
		return stored
	}
	if stored == nil {
		return entry
	}

	merged := *entry
	if merged.CustomInjectURLs == nil {
		merged.CustomInjectURLs = stored.CustomInjectURLs
	}
	if merged.WeixinOptions == nil {
		merged.WeixinOptions = stored.WeixinOptions
	}
	return &merged
}

// applyWeixinOptions 文章本身未携带公众号配置时，
// 补上平台附加配置里的默认值
func applyWeixinOptions(data *models.SyncData, extra *models.ExtraConfig) {
	if extra == nil || extra.WeixinOptions == nil {
		return
	}
	if data.Article != nil && data.Article.WeixinOptions == nil {
		data.Article.WeixinOptions = extra.WeixinOptions
	}
}
