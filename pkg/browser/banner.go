package browser

import (
	"time"

	"github.com/mpkit/multipost-cli/pkg/utils"
)

// 页面右下角的漂浮提示，发布过程中向用户展示进度与结果
const showBannerScript = `(text) => {
  let host = document.getElementById('__multipost_banner');
  if (!host) {
    host = document.createElement('div');
    host.id = '__multipost_banner';
    host.style.position = 'fixed';
    host.style.bottom = '20px';
    host.style.right = '20px';
    host.style.zIndex = '9999';
    host.style.background = '#1e293b';
    host.style.color = 'white';
    host.style.padding = '12px 16px';
    host.style.borderRadius = '8px';
    host.style.fontSize = '14px';
    host.style.boxShadow = '0 4px 6px -1px rgb(0 0 0 / 0.1)';
    document.body.appendChild(host);
  }
  host.style.background = '#1e293b';
  host.textContent = text;
}`

const failBannerScript = `(text) => {
  const host = document.getElementById('__multipost_banner');
  if (host) {
    host.style.background = '#dc2626';
    host.textContent = text;
  }
}`

const removeBannerScript = `() => {
  const host = document.getElementById('__multipost_banner');
  if (host) {
    host.remove();
  }
}`

func (t *pageTab) ShowBanner(text string) error {
	_, err := t.page.Evaluate(showBannerScript, text)
	return err
}

func (t *pageTab) UpdateBanner(text string, failed bool) error {
	script := showBannerScript
	if failed {
		script = failBannerScript
	}
	_, err := t.page.Evaluate(script, text)
	return err
}

func (t *pageTab) RemoveBannerAfter(d time.Duration) {
	go func() {
		time.Sleep(d)
		if _, err := t.page.Evaluate(removeBannerScript); err != nil {
			utils.Debug("移除漂浮提示失败: %v", err)
		}
	}()
}
