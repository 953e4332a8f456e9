package models

// PlatformType 平台内容类型
type PlatformType string

const (
	PlatformDynamic PlatformType = "DYNAMIC"
	PlatformVideo   PlatformType = "VIDEO"
	PlatformArticle PlatformType = "ARTICLE"
	PlatformPodcast PlatformType = "PODCAST"
)

// SyncDataPlatform 一次发布中的单个目标平台
type SyncDataPlatform struct {
	Name        string       `json:"name"`
	InjectURL   string       `json:"injectUrl,omitempty"`
	ExtraConfig *ExtraConfig `json:"extraConfig,omitempty"`
}

// ExtraConfig 平台附加配置，来源于本地配置存储
type ExtraConfig struct {
	// CustomInjectURLs Beta 功能，用于自定义注入 URL
	CustomInjectURLs []string              `json:"customInjectUrls,omitempty"`
	WeixinOptions    *WeixinArticleOptions `json:"weixinOptions,omitempty"`
}

// SyncData 一次发布的完整载荷
type SyncData struct {
	Platforms     []SyncDataPlatform `json:"platforms"`
	IsAutoPublish bool               `json:"isAutoPublish"`
	Dynamic       *DynamicData       `json:"dynamic,omitempty"`
	Article       *ArticleData       `json:"article,omitempty"`
	Video         *VideoData         `json:"video,omitempty"`
	Podcast       *PodcastData       `json:"podcast,omitempty"`
}

// FileData 文件引用，底层数据归上层所有，核心只读取
type FileData struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// DynamicData 动态类内容
type DynamicData struct {
	Title   string     `json:"title"`
	Content string     `json:"content"`
	Images  []FileData `json:"images"`
	Videos  []FileData `json:"videos"`
}

// PodcastData 播客类内容
type PodcastData struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Audio       FileData `json:"audio"`
}

// VideoData 视频类内容
type VideoData struct {
	Title                string    `json:"title"`
	Content              string    `json:"content"`
	Video                FileData  `json:"video"`
	Tags                 []string  `json:"tags,omitempty"`
	Cover                *FileData `json:"cover,omitempty"`
	VerticalCover        *FileData `json:"verticalCover,omitempty"`
	ScheduledPublishTime int64     `json:"scheduledPublishTime,omitempty"`
}

// ArticleData 文章类内容，封面为必填项
type ArticleData struct {
	Title           string     `json:"title"`
	Digest          string     `json:"digest"`
	Cover           *FileData  `json:"cover"`
	HTMLContent     string     `json:"htmlContent"`
	MarkdownContent string     `json:"markdownContent"`
	Images          []FileData `json:"images,omitempty"`
	// 微信公众号特有配置
	WeixinOptions *WeixinArticleOptions `json:"weixinOptions,omitempty"`
}

// WeixinArticleOptions 微信公众号文章配置选项
type WeixinArticleOptions struct {
	// IsOriginal 是否声明原创（默认 true）
	IsOriginal *bool `json:"isOriginal,omitempty"`
	// ClaimSourceType 创作来源类型：1=原创, 4=个人观点（默认 4）
	ClaimSourceType int `json:"claimSourceType,omitempty"`
	// ClaimSourceText 创作来源说明
	ClaimSourceText string `json:"claimSourceText,omitempty"`
	// EnableReward 是否开启赞赏（默认 true）
	EnableReward *bool `json:"enableReward,omitempty"`
	// RewardReplyID 赞赏自动回复 ID（默认 1）
	RewardReplyID *int `json:"rewardReplyId,omitempty"`
	// EnableAd 是否开启广告（默认 true）
	EnableAd *bool `json:"enableAd,omitempty"`
	// SourceURL 原文链接
	SourceURL string `json:"sourceUrl,omitempty"`
	// AllowReprint 是否允许转载（默认 false）
	AllowReprint bool `json:"allowReprint,omitempty"`
	// AlbumIDs 合集 ID 列表
	AlbumIDs []string `json:"albumIds,omitempty"`
	// AlbumTitles 合集标题列表，按标题模糊匹配
	AlbumTitles []string `json:"albumTitles,omitempty"`
	// PaySettings 付费设置
	PaySettings *WeixinPaySettings `json:"paySettings,omitempty"`
}

// WeixinPaySettings 微信付费设置
type WeixinPaySettings struct {
	Enabled bool `json:"enabled"`
	// Fee 付费金额（单位：分，如 1000 = 10元）
	Fee int `json:"fee"`
	// PreviewPercent 免费预览比例（0-100）
	PreviewPercent int `json:"previewPercent"`
	// Description 付费说明文字
	Description string `json:"description,omitempty"`
}

// WeixinAlbumInfo 微信合集信息
type WeixinAlbumInfo struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Total          int    `json:"total"`
	URL            string `json:"url"`
	ContinuousRead int    `json:"continous_read_on,omitempty"`
	CoverURL       string `json:"cover_url,omitempty"`
	CreateTime     int64  `json:"create_time,omitempty"`
	UpdateTime     int64  `json:"update_time,omitempty"`
}

// AccountInfo 平台账号信息，来源于本地配置存储
type AccountInfo struct {
	Provider    string `json:"provider"`
	AccountID   string `json:"accountId"`
	Username    string `json:"username"`
	Description string `json:"description,omitempty"`
	ProfileURL  string `json:"profileUrl,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// True 解引用可选布尔值，nil 按 defaultVal 处理
func True(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}
