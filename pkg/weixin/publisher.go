package weixin

import (
	"context"
	"net/http"
	"time"

	"github.com/mpkit/multipost-cli/pkg/browser"
	"github.com/mpkit/multipost-cli/pkg/models"
	"github.com/mpkit/multipost-cli/pkg/utils"
)

// DefaultBaseURL 公众号后台地址
const DefaultBaseURL = "https://mp.weixin.qq.com"

// 封面按固定的三个比例裁剪
var (
	coverRatios      = []float64{16.0 / 9.0, 1.0, 3.0 / 4.0}
	coverRatioLabels = []string{"16:9", "1:1", "3:4"}
)

// ProgressFunc 同步过程中的状态回调
type ProgressFunc func(message string)

// Publisher 微信公众号文章发布器。
// 所有请求都通过携带登录态Cookie的client发出。
type Publisher struct {
	client   *http.Client
	baseURL  string
	progress ProgressFunc
}

// Option 发布器配置项
type Option func(*Publisher)

// WithBaseURL 覆盖后台地址，测试时指向本地服务
func WithBaseURL(baseURL string) Option {
	return func(p *Publisher) {
		p.baseURL = baseURL
	}
}

// WithProgress 设置状态回调
func WithProgress(progress ProgressFunc) Option {
	return func(p *Publisher) {
		p.progress = progress
	}
}

// New 创建发布器
func New(client *http.Client, opts ...Option) *Publisher {
	if client == nil {
		client = http.DefaultClient
	}

	p := &Publisher{
		client:  client,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) report(message string) {
	if p.progress != nil {
		p.progress(message)
	}
}

// Publish 执行完整的文章发布流程：读取登录态、搬运正文图片、
// 上传并裁剪封面、匹配合集、插入付费分割标记、提交创建请求。
// 成功时返回文章ID和编辑页地址。
func (p *Publisher) Publish(ctx context.Context, article *models.ArticleData) (appMsgID, editURL string, err error) {
	if article == nil {
		return "", "", utils.NewError("缺少文章内容", nil)
	}

	creds, err := p.ReadCredentials(ctx)
	if err != nil {
		return "", "", err
	}
	utils.Info("已获取公众号登录态: %s", creds.Nickname)

	author := p.FetchRewardAuthor(ctx, creds)
	opts := resolveOptions(article.WeixinOptions)

	content, err := p.RewriteImages(ctx, creds, article.HTMLContent, p.progress)
	if err != nil {
		return "", "", utils.NewError("处理正文图片失败", err)
	}

	if article.Cover == nil || article.Cover.URL == "" {
		return "", "", utils.NewError("需要封面图片", nil)
	}

	width, height, err := p.coverSize(ctx, article.Cover.URL)
	if err != nil {
		return "", "", utils.NewError("读取封面图片失败", err)
	}

	uploaded, err := p.UploadImage(ctx, creds, article.Cover.URL, SceneArticleImage)
	if err != nil || uploaded == nil {
		return "", "", utils.NewError("封面图片上传失败", err)
	}
	utils.Debug("封面已上传: %s", uploaded.URL)

	configs := make([]CropConfig, 0, len(coverRatios))
	for _, ratio := range coverRatios {
		configs = append(configs, CalculateCrop(ratio, width, height))
	}

	cropped, err := p.CropImage(ctx, creds, uploaded, configs)
	if err != nil || len(cropped) == 0 {
		return "", "", utils.NewError("封面图片裁剪失败", err)
	}
	tagRatios(cropped, coverRatioLabels)

	var albums []models.WeixinAlbumInfo
	if article.WeixinOptions != nil {
		albums = p.SelectAlbums(ctx, creds, article.WeixinOptions.AlbumIDs, article.WeixinOptions.AlbumTitles)
	}

	if opts.PayEnabled {
		content = InsertPayMarker(content, opts.PayPreviewPercent)
	}

	req := &articleRequest{
		Title:    article.Title,
		Author:   creds.Nickname,
		WriterID: author.WriterID,
		Digest:   article.Digest,
		Content:  content,
		Options:  opts,
		Covers:   cropped,
		Albums:   albums,
	}

	appMsgID, err = p.CreateArticle(ctx, creds, req, func(errMsg string) {
		utils.Error("服务端返回错误: %s", errMsg)
		p.report(errMsg)
	})
	if err != nil {
		return "", "", utils.NewError("创建文章失败", err)
	}

	return appMsgID, p.EditURL(creds, appMsgID), nil
}

// PublishArticle 公众号文章的标签页注入入口：在已登录的后台页面上
// 展示同步状态，通过页面Cookie执行发布流程，成功后跳转到编辑页。
func PublishArticle(ctx context.Context, tab browser.Tab, data *models.SyncData) error {
	if data == nil || data.Article == nil {
		return utils.NewError("缺少文章内容", nil)
	}

	// 等待页面脚本初始化完成
	time.Sleep(time.Second)

	if err := tab.ShowBanner("正在同步文章到微信公众号..."); err != nil {
		utils.Warn("展示同步横幅失败: %v", err)
	}

	client, err := tab.Client()
	if err != nil {
		_ = tab.UpdateBanner("同步失败，请重试", true)
		tab.RemoveBannerAfter(3 * time.Second)
		return utils.NewError("读取页面登录态失败", err)
	}

	pub := New(client, WithProgress(func(message string) {
		_ = tab.UpdateBanner(message, false)
	}))

	appMsgID, editURL, err := pub.Publish(ctx, data.Article)
	if err != nil {
		_ = tab.UpdateBanner("同步失败，请重试", true)
		tab.RemoveBannerAfter(3 * time.Second)
		return err
	}

	utils.Info("文章同步成功: appMsgId=%s", appMsgID)
	_ = tab.UpdateBanner("文章同步成功！", false)
	tab.RemoveBannerAfter(3 * time.Second)

	if err := tab.Navigate(editURL); err != nil {
		utils.Warn("跳转编辑页失败: %v", err)
	}

	return nil
}
