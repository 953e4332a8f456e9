package weixin

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/mpkit/multipost-cli/pkg/utils"
)

// RewriteImages 把正文中的远程图片逐张搬到平台CDN上。
// 单张图片上传失败不致命，保留原地址继续处理下一张。
func (p *Publisher) RewriteImages(ctx context.Context, creds *Credentials, html string, progress ProgressFunc) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("解析正文HTML失败: %w", err)
	}

	images := doc.Find("img")
	total := images.Length()

	images.EachWithBreak(func(i int, img *goquery.Selection) bool {
		if ctx.Err() != nil {
			return false
		}

		if progress != nil {
			progress(fmt.Sprintf("开始上传 %d/%d 张图片", i+1, total))
		}

		src, ok := img.Attr("src")
		if !ok || src == "" {
			return true
		}

		utils.Debug("尝试替换正文图片: %s", src)
		result, err := p.UploadImage(ctx, creds, src, SceneArticleImage)
		if err != nil || result == nil {
			utils.Warn("正文图片上传失败，保留原地址: %s", src)
			return true
		}

		img.SetAttr("src", result.URL)
		return true
	})

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("序列化正文HTML失败: %w", err)
	}

	return body, nil
}

// payMarkerFormat 付费分割标记，data-offset 记录插入位置
const payMarkerFormat = `<p class="js_pay_preview_filter"><mp-pay-preview-filter data-offset="%d"></mp-pay-preview-filter></p>`

// InsertPayMarker 在正文的指定免费预览比例处插入付费分割标记。
// 切分位置先按比例取整，再向前吸附到最近的 '>'（标签结束符）之后，
// 避免把标记插进HTML标签内部；找不到 '>' 时退回到最近的字符边界，
// 防止把多字节字符从中间切开。
// previewPercent 不在(0,100)开区间内时不做任何修改。
func InsertPayMarker(content string, previewPercent int) string {
	if previewPercent <= 0 || previewPercent >= 100 {
		return content
	}

	splitIndex := len(content) * previewPercent / 100

	searchEnd := splitIndex + 1
	if searchEnd > len(content) {
		searchEnd = len(content)
	}

	insertPos := splitIndex
	if idx := strings.LastIndex(content[:searchEnd], ">"); idx != -1 {
		insertPos = idx + 1
	} else {
		for insertPos > 0 && !utf8.RuneStart(content[insertPos]) {
			insertPos--
		}
	}

	marker := fmt.Sprintf(payMarkerFormat, insertPos)
	return content[:insertPos] + marker + content[insertPos:]
}
