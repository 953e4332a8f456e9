package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Tab 一个已打开的浏览器标签页。
// 平台发布函数在标签页加载完成后拿到它，通过 Client 获得携带该页
// 登录cookie的HTTP客户端来直接调用平台接口，通过 Navigate 完成
// 发布成功后的跳转。
type Tab interface {
	// URL 当前页面地址
	URL() string
	// WaitReady 等待页面加载完成事件
	WaitReady(ctx context.Context) error
	// Activate 激活（前置）标签页
	Activate() error
	// Navigate 跳转当前标签页
	Navigate(url string) error
	// Client 返回携带当前页面会话cookie的HTTP客户端
	Client() (*http.Client, error)
	// ShowBanner 在页面右下角显示漂浮提示
	ShowBanner(text string) error
	// UpdateBanner 更新漂浮提示文字，failed 为真时显示为错误样式
	UpdateBanner(text string, failed bool) error
	// RemoveBannerAfter 延迟移除漂浮提示
	RemoveBannerAfter(d time.Duration)
	// Close 关闭标签页
	Close() error
}

type pageTab struct {
	page playwright.Page
}

func (t *pageTab) URL() string {
	return t.page.URL()
}

func (t *pageTab) WaitReady(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- t.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State: playwright.LoadStateLoad,
		})
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("等待页面加载失败: %w", err)
		}
		return nil
	}
}

func (t *pageTab) Activate() error {
	return t.page.BringToFront()
}

func (t *pageTab) Navigate(url string) error {
	_, err := t.page.Goto(url)
	return err
}

// Client 把页面上下文中的cookie装进cookie jar，
// 后续对平台接口的请求与页面内fetch等价。
func (t *pageTab) Client() (*http.Client, error) {
	cookies, err := t.page.Context().Cookies()
	if err != nil {
		return nil, fmt.Errorf("读取页面cookie失败: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	byHost := make(map[string][]*http.Cookie)
	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		byHost[host] = append(byHost[host], &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Path:   c.Path,
			Domain: c.Domain,
		})
	}

	for host, hostCookies := range byHost {
		u := &url.URL{Scheme: "https", Host: host, Path: "/"}
		jar.SetCookies(u, hostCookies)
	}

	return &http.Client{
		Jar:     jar,
		Timeout: 60 * time.Second,
	}, nil
}

func (t *pageTab) Close() error {
	return t.page.Close()
}
