// Package browser 封装 playwright 驱动的浏览器会话。调度器与各平台发布
// 函数只依赖这里的 Tab 接口，不直接触碰 playwright，便于测试替身。
package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/mpkit/multipost-cli/pkg/utils"
)

// Session 一个持久化用户目录上的浏览器会话。
// 登录态（cookie）由用户事先在该目录的浏览器里完成，这里只复用。
type Session struct {
	pw      *playwright.Playwright
	browser playwright.BrowserContext
}

// NewSession 启动浏览器会话
// profileDir: 用户数据目录，已有的平台登录态保存在这里
func NewSession(profileDir string, headless bool) (*Session, error) {
	if err := playwright.Install(); err != nil {
		return nil, fmt.Errorf("安装 playwright 失败: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("启动 playwright 失败: %w", err)
	}

	browser, err := pw.Chromium.LaunchPersistentContext(profileDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	return &Session{pw: pw, browser: browser}, nil
}

// OpenTab 新建标签页并导航到指定URL，返回后页面不一定加载完成，
// 调用方通过 Tab.WaitReady 等待加载完成事件。
func (s *Session) OpenTab(ctx context.Context, url string) (Tab, error) {
	page, err := s.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("创建标签页失败: %w", err)
	}

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateCommit,
	}); err != nil {
		page.Close()
		return nil, fmt.Errorf("打开 %s 失败: %w", url, err)
	}

	utils.Debug("已打开标签页: %s", url)
	return &pageTab{page: page}, nil
}

// Close 关闭浏览器会话
func (s *Session) Close() error {
	if err := s.browser.Close(); err != nil {
		return err
	}
	return s.pw.Stop()
}
