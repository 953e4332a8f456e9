// Package platform 维护平台注册表：平台名到主页地址、注入地址、
// 发布函数等元数据的静态映射，按内容类型分组构建。
package platform

import (
	"context"
	"sort"

	"github.com/mpkit/multipost-cli/pkg/browser"
	"github.com/mpkit/multipost-cli/pkg/models"
	"github.com/mpkit/multipost-cli/pkg/store"
	"github.com/mpkit/multipost-cli/pkg/weixin"
)

// InjectFunc 平台发布函数：在已加载完成的标签页里执行发布流程
type InjectFunc func(ctx context.Context, tab browser.Tab, data *models.SyncData) error

// Info 单个平台的注册信息
type Info struct {
	Type       models.PlatformType
	Name       string
	HomeURL    string
	InjectURL  string
	Inject     InjectFunc
	Tags       []string
	AccountKey string

	// 以下两项按请求从本地存储附加，不回写注册表
	AccountInfo *models.AccountInfo
	ExtraConfig *models.ExtraConfig
}

// Registry 平台注册表，启动时构建一次，查找O(1)
type Registry struct {
	infos map[string]Info
	store *store.Store
}

// NewRegistry 合并各内容类型的平台列表构建注册表。
// st 可为 nil，此时查找结果不附加账号信息与附加配置。
func NewRegistry(st *store.Store) *Registry {
	r := &Registry{
		infos: make(map[string]Info),
		store: st,
	}

	for _, group := range [][]Info{
		dynamicPlatforms(),
		articlePlatforms(),
		videoPlatforms(),
		podcastPlatforms(),
	} {
		for _, info := range group {
			r.infos[info.Name] = info
		}
	}

	return r
}

func articlePlatforms() []Info {
	return []Info{
		{
			Type:       models.PlatformArticle,
			Name:       "ARTICLE_WEIXIN",
			HomeURL:    weixin.DefaultBaseURL,
			InjectURL:  weixin.DefaultBaseURL + "/",
			Inject:     weixin.PublishArticle,
			Tags:       []string{"CN"},
			AccountKey: "weixin",
		},
	}
}

// 其余内容类型暂无内置平台，接入时在此登记
func dynamicPlatforms() []Info { return nil }
func videoPlatforms() []Info   { return nil }
func podcastPlatforms() []Info { return nil }

// WithPlatforms 返回附加了额外平台的新注册表，原注册表不变。
// 调度层的测试用它替换内置平台。
func (r *Registry) WithPlatforms(infos []Info) *Registry {
	next := &Registry{
		infos: make(map[string]Info, len(r.infos)+len(infos)),
		store: r.store,
	}
	for name, info := range r.infos {
		next.infos[name] = info
	}
	for _, info := range infos {
		next.infos[info.Name] = info
	}
	return next
}

// Lookup 按平台名查找注册信息，并附加本地存储中的
// 账号信息与附加配置。返回的是副本，调用方修改不影响注册表。
func (r *Registry) Lookup(name string) (Info, bool) {
	info, ok := r.infos[name]
	if !ok {
		return Info{}, false
	}

	return r.withExtraConfig(r.withAccountInfo(info)), true
}

// 附加流水线：两步都只改副本，静态注册表保持不变

func (r *Registry) withAccountInfo(info Info) Info {
	if r.store != nil {
		info.AccountInfo = r.store.AccountInfo(info.Name)
	}
	return info
}

func (r *Registry) withExtraConfig(info Info) Info {
	if r.store != nil {
		info.ExtraConfig = r.store.ExtraConfig(info.Name)
	}
	return info
}

// Names 返回所有已注册平台名，排序保证输出稳定
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.infos))
	for name := range r.infos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
