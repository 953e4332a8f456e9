package dispatch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpkit/multipost-cli/pkg/browser"
	"github.com/mpkit/multipost-cli/pkg/models"
	"github.com/mpkit/multipost-cli/pkg/platform"
)

// fakeTab 测试替身，记录每个动作
type fakeTab struct {
	url       string
	events    *[]string
	mu        *sync.Mutex
	readyErr  error
	activated bool
}

func (t *fakeTab) record(event string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	*t.events = append(*t.events, event)
}

func (t *fakeTab) URL() string { return t.url }

func (t *fakeTab) WaitReady(ctx context.Context) error {
	t.record("ready:" + t.url)
	return t.readyErr
}

func (t *fakeTab) Activate() error {
	t.activated = true
	t.record("activate:" + t.url)
	return nil
}

func (t *fakeTab) Navigate(url string) error              { return nil }
func (t *fakeTab) Client() (*http.Client, error)          { return http.DefaultClient, nil }
func (t *fakeTab) ShowBanner(text string) error           { return nil }
func (t *fakeTab) UpdateBanner(text string, f bool) error { return nil }
func (t *fakeTab) RemoveBannerAfter(d time.Duration)      {}
func (t *fakeTab) Close() error                           { return nil }

// fakeBrowser 按打开顺序记录标签页
type fakeBrowser struct {
	mu      sync.Mutex
	events  []string
	tabs    []*fakeTab
	openErr map[string]error
}

func (b *fakeBrowser) OpenTab(ctx context.Context, url string) (browser.Tab, error) {
	b.mu.Lock()
	b.events = append(b.events, "open:"+url)
	b.mu.Unlock()

	if err, ok := b.openErr[url]; ok {
		return nil, err
	}

	tab := &fakeTab{url: url, events: &b.events, mu: &b.mu}
	b.tabs = append(b.tabs, tab)
	return tab, nil
}

// testRegistry 注册三个测试平台，注入函数记录调用顺序
func testRegistry(b *fakeBrowser, injected *[]string) *platform.Registry {
	reg := platform.NewRegistry(nil)
	return reg.WithPlatforms([]platform.Info{
		testPlatform("P1", "https://p1.example/", injected, b),
		testPlatform("P2", "https://p2.example/", injected, b),
		testPlatform("P3", "https://p3.example/", injected, b),
	})
}

func testPlatform(name, injectURL string, injected *[]string, b *fakeBrowser) platform.Info {
	return platform.Info{
		Type:      models.PlatformArticle,
		Name:      name,
		InjectURL: injectURL,
		Inject: func(ctx context.Context, tab browser.Tab, data *models.SyncData) error {
			b.mu.Lock()
			defer b.mu.Unlock()
			*injected = append(*injected, name)
			b.events = append(b.events, "inject:"+name)
			return nil
		},
	}
}

func syncDataFor(names ...string) *models.SyncData {
	entries := make([]models.SyncDataPlatform, 0, len(names))
	for _, name := range names {
		entries = append(entries, models.SyncDataPlatform{Name: name})
	}
	return &models.SyncData{Platforms: entries}
}

func TestDispatchStrictOrder(t *testing.T) {
	b := &fakeBrowser{}
	var injected []string
	dp := NewDispatcher(b, testRegistry(b, &injected), WithInterval(0))

	err := dp.Dispatch(context.Background(), syncDataFor("P1", "P2", "P3"))
	assert.NoError(t, err)

	// 平台严格按输入顺序处理：第二个标签页在第一个加载完成后才打开
	assert.Equal(t, []string{
		"open:https://p1.example/", "ready:https://p1.example/", "inject:P1", "activate:https://p1.example/",
		"open:https://p2.example/", "ready:https://p2.example/", "inject:P2", "activate:https://p2.example/",
		"open:https://p3.example/", "ready:https://p3.example/", "inject:P3", "activate:https://p3.example/",
	}, b.events)
	assert.Equal(t, []string{"P1", "P2", "P3"}, injected)
}

func TestDispatchErrorIsolation(t *testing.T) {
	// 单个平台打不开标签页不影响后续平台
	b := &fakeBrowser{openErr: map[string]error{"https://p2.example/": errors.New("no tab")}}
	var injected []string
	dp := NewDispatcher(b, testRegistry(b, &injected), WithInterval(0))

	err := dp.Dispatch(context.Background(), syncDataFor("P1", "P2", "P3"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"P1", "P3"}, injected)
	assert.Equal(t, 1, dp.Stats().Total())
}

func TestDispatchUnknownPlatform(t *testing.T) {
	b := &fakeBrowser{}
	var injected []string
	dp := NewDispatcher(b, testRegistry(b, &injected), WithInterval(0))

	err := dp.Dispatch(context.Background(), syncDataFor("P1", "NOPE", "P3"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"P1", "P3"}, injected)
	assert.Equal(t, 1, dp.Stats().Total())
}

func TestDispatchEmptyPlatforms(t *testing.T) {
	b := &fakeBrowser{}
	var injected []string
	dp := NewDispatcher(b, testRegistry(b, &injected), WithInterval(0))

	assert.Error(t, dp.Dispatch(context.Background(), &models.SyncData{}))
	assert.Error(t, dp.Dispatch(context.Background(), nil))
}

func TestDispatchCustomInjectURLs(t *testing.T) {
	// 自定义注入地址走降级路径：逐个打开页面，不注入
	b := &fakeBrowser{}
	var injected []string
	dp := NewDispatcher(b, testRegistry(b, &injected), WithInterval(0))

	data := &models.SyncData{
		Platforms: []models.SyncDataPlatform{
			{
				Name: "P1",
				ExtraConfig: &models.ExtraConfig{
					CustomInjectURLs: []string{"https://custom.example/a", "https://custom.example/b"},
				},
			},
		},
	}

	err := dp.Dispatch(context.Background(), data)
	assert.NoError(t, err)

	assert.Equal(t, []string{
		"open:https://custom.example/a", "ready:https://custom.example/a",
		"open:https://custom.example/b", "ready:https://custom.example/b",
	}, b.events)
	assert.Empty(t, injected)
}

func TestDispatchInjectURLOverride(t *testing.T) {
	b := &fakeBrowser{}
	var injected []string
	dp := NewDispatcher(b, testRegistry(b, &injected), WithInterval(0))

	data := &models.SyncData{
		Platforms: []models.SyncDataPlatform{
			{Name: "P1", InjectURL: "https://override.example/"},
		},
	}

	err := dp.Dispatch(context.Background(), data)
	assert.NoError(t, err)
	assert.Equal(t, "open:https://override.example/", b.events[0])
	assert.Equal(t, []string{"P1"}, injected)
}

func TestMergeExtraConfig(t *testing.T) {
	stored := &models.ExtraConfig{
		CustomInjectURLs: []string{"https://stored.example/"},
		WeixinOptions:    &models.WeixinArticleOptions{ClaimSourceType: 1},
	}
	entry := &models.ExtraConfig{
		WeixinOptions: &models.WeixinArticleOptions{ClaimSourceType: 4},
	}

	// 条目配置优先，缺失的字段由存储配置补齐
	merged := mergeExtraConfig(entry, stored)
	assert.Equal(t, 4, merged.WeixinOptions.ClaimSourceType)
	assert.Equal(t, []string{"https://stored.example/"}, merged.CustomInjectURLs)

	assert.Equal(t, stored, mergeExtraConfig(nil, stored))
	assert.Equal(t, entry, mergeExtraConfig(entry, nil))
}

func TestApplyWeixinOptions(t *testing.T) {
	// 文章未携带公众号配置时补上平台默认值
	data := &models.SyncData{Article: &models.ArticleData{}}
	extra := &models.ExtraConfig{WeixinOptions: &models.WeixinArticleOptions{ClaimSourceType: 1}}

	applyWeixinOptions(data, extra)
	assert.Equal(t, 1, data.Article.WeixinOptions.ClaimSourceType)

	// 文章自带配置时不覆盖
	own := &models.WeixinArticleOptions{ClaimSourceType: 4}
	data.Article.WeixinOptions = own
	applyWeixinOptions(data, extra)
	assert.Equal(t, own, data.Article.WeixinOptions)
}
