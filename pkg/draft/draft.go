// Package draft 把本地Markdown草稿加载成可发布的文章数据。
package draft

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/mpkit/multipost-cli/pkg/models"
	"github.com/mpkit/multipost-cli/pkg/utils"
)

// 摘要上限，与文章提交时的限制保持一致
const digestLimit = 120

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// 封面旁路文件的候选扩展名，按优先级排列
var coverExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// LoadArticle 加载一份Markdown草稿：标题取第一个一级标题，
// 正文渲染为HTML，摘要截取正文纯文本，封面取同名图片文件。
func LoadArticle(path string) (*models.ArticleData, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.NewError("读取草稿失败", err)
	}

	title, body := splitTitle(string(source))
	if title == "" {
		// 没有一级标题时退化为文件名
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return nil, utils.NewError("渲染草稿失败", err)
	}
	htmlContent := buf.String()

	article := &models.ArticleData{
		Title:           title,
		Digest:          extractDigest(htmlContent),
		HTMLContent:     htmlContent,
		MarkdownContent: body,
	}

	if cover := findCover(path); cover != "" {
		article.Cover = &models.FileData{
			Name: filepath.Base(cover),
			URL:  cover,
		}
	}

	return article, nil
}

// splitTitle 取出第一个一级标题，返回标题和剩余正文
func splitTitle(source string) (title, body string) {
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			body = strings.Join(lines[i+1:], "\n")
			return title, body
		}
		break
	}
	return "", source
}

// extractDigest 从渲染后的HTML提取纯文本摘要
func extractDigest(htmlContent string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	text := strings.Join(strings.Fields(doc.Text()), " ")
	runes := []rune(text)
	if len(runes) > digestLimit {
		return string(runes[:digestLimit])
	}
	return text
}

// findCover 查找与草稿同名的图片文件作为封面
func findCover(draftPath string) string {
	base := strings.TrimSuffix(draftPath, filepath.Ext(draftPath))
	for _, ext := range coverExtensions {
		candidate := base + ext
		if utils.CheckFileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// SyncPayload 把草稿包装成指定平台的发布载荷
func SyncPayload(article *models.ArticleData, platforms []string, autoPublish bool) (*models.SyncData, error) {
	if len(platforms) == 0 {
		return nil, fmt.Errorf("没有指定目标平台")
	}

	entries := make([]models.SyncDataPlatform, 0, len(platforms))
	for _, name := range platforms {
		entries = append(entries, models.SyncDataPlatform{Name: name})
	}

	return &models.SyncData{
		Platforms:     entries,
		IsAutoPublish: autoPublish,
		Article:       article,
	}, nil
}
