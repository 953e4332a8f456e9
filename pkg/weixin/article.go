package weixin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/mpkit/multipost-cli/pkg/models"
	"github.com/mpkit/multipost-cli/pkg/utils"
)

// 图文消息的固定类型码
const appMsgType = "77"

// 配置默认值
const (
	defaultClaimSourceType = 4 // 个人观点
	defaultClaimSourceText = "个人观点，仅供参考"
	defaultRewardReplyID   = 1
)

// ShareImageInfo 分享图信息，置空时按普通分享页处理
type ShareImageInfo struct {
	URL    string `json:"url"`
	FileID int64  `json:"fileId"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// articleOptions 编辑/变现/分发配置的具体取值，
// 由 resolveOptions 从可选配置解出默认值
type articleOptions struct {
	IsOriginal        bool
	ClaimSourceType   int
	ClaimSourceText   string
	EnableReward      bool
	RewardReplyID     int
	EnableAd          bool
	SourceURL         string
	AllowReprint      bool
	PayEnabled        bool
	PayFee            int
	PayPreviewPercent int
	PayDescription    string
}

func resolveOptions(opts *models.WeixinArticleOptions) articleOptions {
	if opts == nil {
		opts = &models.WeixinArticleOptions{}
	}

	resolved := articleOptions{
		IsOriginal:      models.True(opts.IsOriginal, true),
		ClaimSourceType: opts.ClaimSourceType,
		ClaimSourceText: opts.ClaimSourceText,
		EnableReward:    models.True(opts.EnableReward, true),
		RewardReplyID:   defaultRewardReplyID,
		EnableAd:        models.True(opts.EnableAd, true),
		SourceURL:       opts.SourceURL,
		AllowReprint:    opts.AllowReprint,
	}

	if resolved.ClaimSourceType == 0 {
		resolved.ClaimSourceType = defaultClaimSourceType
	}
	if resolved.ClaimSourceText == "" {
		resolved.ClaimSourceText = defaultClaimSourceText
	}
	if opts.RewardReplyID != nil {
		resolved.RewardReplyID = *opts.RewardReplyID
	}

	if pay := opts.PaySettings; pay != nil && pay.Enabled {
		resolved.PayEnabled = true
		resolved.PayFee = pay.Fee
		resolved.PayPreviewPercent = pay.PreviewPercent
		resolved.PayDescription = pay.Description
	}

	return resolved
}

// articleRequest 文章创建请求。领域逻辑只操作这里的字段，
// 位置编号后缀（title0、cdn_16_9_url0 等）只在序列化成线上表单时出现。
type articleRequest struct {
	Title       string
	Author      string
	WriterID    string
	Digest      string
	Content     string
	Options     articleOptions
	Covers      []CroppedImage
	Albums      []models.WeixinAlbumInfo
	ShareImages []ShareImageInfo
}

// coverFor 取指定比例的封面CDN地址，没有则为空
func (r *articleRequest) coverFor(ratio string) string {
	for _, img := range r.Covers {
		if img.Ratio == ratio {
			return img.URL
		}
	}
	return ""
}

// defaultCover 默认封面取1:1裁剪，退化为第一张可用图
func (r *articleRequest) defaultCover() string {
	if u := r.coverFor("1:1"); u != "" {
		return u
	}
	if len(r.Covers) > 0 {
		return r.Covers[0].URL
	}
	return ""
}

type albumEntry struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	AlbumID          string        `json:"album_id"`
	AppmsgAlbumInfos []interface{} `json:"appmsg_album_infos"`
	TagSource        int           `json:"tagSource"`
}

func (r *articleRequest) albumInfoJSON() string {
	entries := make([]albumEntry, 0, len(r.Albums))
	for _, album := range r.Albums {
		entries = append(entries, albumEntry{
			ID:               album.ID,
			Title:            album.Title,
			AlbumID:          album.ID,
			AppmsgAlbumInfos: []interface{}{},
			TagSource:        0,
		})
	}

	data, _ := json.Marshal(map[string]interface{}{"appmsg_album_infos": entries})
	return string(data)
}

// 裁剪配置占位：服务端已经持有真实裁剪结果，表单里只报比例槽位
const cropListJSON = `{"crop_list":[` +
	`{"ratio":"2.35_1","x1":0,"y1":0,"x2":0,"y2":0,"file_id":0},` +
	`{"ratio":"1_1","x1":0,"y1":0,"x2":0,"y2":0,"file_id":0},` +
	`{"ratio":"3_4","x1":0,"y1":0,"x2":0,"y2":0,"file_id":0},` +
	`{"ratio":"16_9","x1":0,"y1":0,"x2":0,"y2":0,"file_id":0},` +
	`{"ratio":"video","x1":0,"y1":0,"x2":0,"y2":0,"file_id":0},` +
	`{"ratio":"finder","x1":0,"y1":0,"x2":0,"y2":0,"file_id":0}],` +
	`"crop_list_percent":[` +
	`{"ratio":"2.35_1","x1":0,"y1":0,"x2":0,"y2":0,"file_id":0},` +
	`{"ratio":"1_1","x1":0,"y1":0,"x2":0,"y2":0,"file_id":0},` +
	`{"ratio":"3_4","x1":0,"y1":0,"x2":0,"y2":0,"file_id":0},` +
	`{"ratio":"16_9","x1":0,"y1":0,"x2":0,"y2":0,"file_id":0},` +
	`{"ratio":"video","x1":0,"y1":0,"x2":0,"y2":0,"file_id":0},` +
	`{"ratio":"finder","x1":0,"y1":0,"x2":0,"y2":0,"file_id":0}]}`

// req 参数模板，创作来源声明按实际配置填入
const reqTemplateJSON = `{"idx_infos":[{"save_old":0,` +
	`"cps_info":{"cps_import":0},` +
	`"red_packet_cover_list":{"list":[]},` +
	`"claim_source":{"claim_source_type":0,"claim_source":""},` +
	`"line_info":{"scene":2},` +
	`"window_product":{},"link_info":{},"appmsg_link":{},"weapp_link":{},"yqj_info":{},` +
	`"ai_pic_info":{"cover_source":0,"ai_pic_id":[],"cover_pic_id":""},` +
	`"single_video_snap_card":{},"product_activity":{},"footer_gift_activity":{},` +
	`"footer_common_shops":[],"footer_product_card":{},"location":{}}],` +
	`"is_use_flag":0,"template_version":"31171848"}`

func (r *articleRequest) reqJSON() string {
	req, _ := sjson.Set(reqTemplateJSON, "idx_infos.0.claim_source.claim_source_type", r.Options.ClaimSourceType)
	req, _ = sjson.Set(req, "idx_infos.0.claim_source.claim_source", r.Options.ClaimSourceText)
	return req
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// truncateDigest 摘要提交时强制不超过120个字符
func truncateDigest(digest string) string {
	runes := []rune(digest)
	if len(runes) <= 120 {
		return digest
	}
	return string(runes[:120])
}

// writeForm 把请求序列化成接口要求的位置编号表单
func (r *articleRequest) writeForm(w *multipart.Writer, creds *Credentials) error {
	opts := r.Options

	fields := [][2]string{
		// 基本信息
		{"token", creds.Token},
		{"lang", "zh_CN"},
		{"f", "json"},
		{"ajax", "1"},
		{"random", strconv.FormatFloat(rand.Float64(), 'f', -1, 64)},

		// 必要的参数
		{"AppMsgId", ""},
		{"count", "1"},
		{"data_seq", "0"},
		{"operate_from", "Chrome"},
		{"isnew", "0"},
		{"articlenum", "1"},
		{"pre_timesend_set", "0"},

		// 文章信息
		{"title0", r.Title},
		{"author0", r.Author},
		{"writerid0", r.WriterID},
		{"fileid0", ""},
		{"digest0", truncateDigest(r.Digest)},
		{"auto_gen_digest0", "1"},
		{"content0", r.Content},
		{"is_user_title0", ""},
		{"sourceurl0", opts.SourceURL},

		// 评论设置
		{"need_open_comment0", "1"},
		{"only_fans_can_comment0", "0"},
		{"only_fans_days_can_comment0", "0"},
		{"reply_flag0", "3"},
		{"not_pay_can_comment0", "0"},
		{"auto_elect_comment0", "1"},
		{"auto_elect_reply0", "1"},
		{"option_version0", "5"},
		{"open_fansmsg0", "0"},

		// 封面图片槽位
		{"cdn_url0", r.defaultCover()},
		{"cdn_235_1_url0", r.defaultCover()},
		{"cdn_16_9_url0", r.coverFor("16:9")},
		{"cdn_3_4_url0", r.coverFor("3:4")},
		{"cdn_1_1_url0", r.coverFor("1:1")},
		{"cdn_finder_url0", ""},
		{"cdn_video_url0", ""},
		{"cdn_url_back0", r.coverFor("1:1")},
		{"last_choose_cover_from0", "0"},
		{"app_cover_auto0", "0"},

		// 合集与裁剪配置
		{"appmsg_album_info0", r.albumInfoJSON()},
		{"crop_list0", cropListJSON},

		// 视频相关
		{"is_finder_video0", "0"},
		{"finder_draft_id0", "0"},
		{"ad_video_transition0", ""},
		{"related_video0", ""},
		{"is_video_recommend0", "0"},
		{"music_id0", ""},
		{"video_id0", ""},
		{"vid_type0", ""},
		{"show_cover_pic0", "0"},

		// 投票相关
		{"voteid0", ""},
		{"voteismlt0", ""},
		{"supervoteid0", ""},
		{"super_vote_id0", ""},

		// 原创声明相关
		{"copyright_type0", boolField(opts.IsOriginal)},
		{"is_cartoon_copyright0", "0"},
		{"copyright_img_list0", `{"max_width":586,"img_list":[]}`},
		{"platform0", ""},
		{"allow_fast_reprint0", "0"},
		{"allow_reprint0", boolField(opts.AllowReprint)},
		{"allow_reprint_modify0", "0"},
		{"original_article_type0", ""},
		{"ori_white_list0", `{"white_list":[]}`},
		{"video_ori_status0", ""},
		{"hit_nickname0", ""},

		// 付费相关
		{"free_content0", ""},
		{"fee0", "0"},
		{"is_pay_subscribe0", boolField(opts.PayEnabled)},
		{"pay_fee0", payField(opts.PayEnabled, strconv.Itoa(opts.PayFee))},
		{"pay_preview_percent0", payField(opts.PayEnabled, strconv.Itoa(opts.PayPreviewPercent))},
		{"pay_desc0", payField(opts.PayEnabled, opts.PayDescription)},
		{"pay_album_info0", `{"id":"","title":"","is_updating":1,"is_ban":0,"total":0,"pay_max_count":0}`},

		// 广告相关
		{"ad_id0", ""},
		{"guide_words0", ""},
		{"can_insert_ad0", boolField(opts.EnableAd)},
		{"open_keyword_ad0", boolField(opts.EnableAd)},
		{"open_comment_ad0", boolField(opts.EnableAd)},
		{"insert_ad_mode0", adModeField(opts.EnableAd)},

		// 分享相关
		{"is_share_copyright0", "0"},
		{"share_copyright_url0", ""},
		{"source_article_type0", ""},
		{"reprint_recommend_title0", ""},
		{"reprint_recommend_content0", ""},
		{"share_page_type0", sharePageType(r.ShareImages)},
		{"share_imageinfo0", r.shareImageJSON()},
		{"share_video_id0", ""},
		{"dot0", "{}"},
		{"share_voice_id0", ""},
		{"share_finder_audio_username0", ""},
		{"share_finder_audio_exportid0", ""},
		{"mmlistenitem_json_buf0", ""},

		// 赞赏设置
		{"can_reward0", boolField(opts.EnableReward)},
		{"pay_gifts_count0", "0"},
		{"reward_reply_id0", rewardReplyField(opts.EnableReward, opts.RewardReplyID)},

		// 创作来源声明
		{"applyori0", "0"},
		{"claim_source_type0", strconv.Itoa(opts.ClaimSourceType)},
		{"is_user_no_claim_source0", "0"},

		// 分类
		{"categories_list0", "[]"},

		// 音频相关
		{"audio_info0", `{"audio_infos":[]}`},
		{"danmu_pub_type0", "0"},
		{"mp_video_info0", `{"list":[]}`},
		{"appmsg_danmu_pub_type0", ""},

		// 视频号同步
		{"is_set_sync_to_finder0", "0"},
		{"sync_to_finder_cover0", ""},
		{"sync_to_finder_cover_source0", ""},
		{"import_to_finder0", "0"},
		{"import_from_finder_export_id0", ""},

		// 样式和贴纸
		{"style_type0", "10000"},
		{"sticker_info0", `{"is_stickers":0,"common_stickers_num":0,"union_stickers_num":0,"sticker_id_list":[],"has_invalid_sticker":0}`},
		{"new_pic_process0", "0"},
		{"disable_recommend0", "0"},

		// 其他
		{"cardid0", ""},
		{"cardquantity0", ""},
		{"cardlimit0", ""},
		{"msg_index_id0", ""},
		{"convert_to_image_share_page0", ""},
		{"convert_from_image_share_page0", ""},
		{"multi_picture_cover0", "0"},
		{"title_gen_type0", "0"},
		{"compose_info0", `{"list":""}`},

		{"req", r.reqJSON()},
		{"is_auto_type_setting", "0"},
		{"save_type", "1"},
		{"isneedsave", "0"},
	}

	for _, field := range fields {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return err
		}
	}

	return nil
}

func (r *articleRequest) shareImageJSON() string {
	images := r.ShareImages
	if images == nil {
		images = []ShareImageInfo{}
	}
	data, _ := json.Marshal(map[string]interface{}{"list": images})
	return string(data)
}

func sharePageType(images []ShareImageInfo) string {
	if len(images) > 0 {
		return "8"
	}
	return "0"
}

// 付费相关字段在未开启付费时提交空串而非0
func payField(enabled bool, value string) string {
	if enabled {
		return value
	}
	return ""
}

func adModeField(enabled bool) string {
	if enabled {
		return "2"
	}
	return "0"
}

func rewardReplyField(enabled bool, replyID int) string {
	if enabled {
		return strconv.Itoa(replyID)
	}
	return "0"
}

// CreateArticle 提交文章创建请求，成功时返回文章ID。
// 响应中没有 appMsgId 即失败；服务端报了错误信息时先通过
// onError 透出再返回错误。
func (p *Publisher) CreateArticle(ctx context.Context, creds *Credentials, r *articleRequest, onError func(string)) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := r.writeForm(writer, creds); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("t", "ajax-response")
	q.Set("sub", "create")
	q.Set("type", appMsgType)
	q.Set("token", creds.Token)
	q.Set("lang", "zh_CN")

	endpoint := p.baseURL + "/cgi-bin/operate_appmsg?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("提交文章失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取提交响应失败: %w", err)
	}

	result := gjson.ParseBytes(respBody)
	utils.Debug("创建文章响应: %s", result.Raw)

	appMsgID := result.Get("appMsgId").String()
	if appMsgID == "" {
		if errMsg := result.Get("base_resp.err_msg").String(); errMsg != "" && onError != nil {
			onError(errMsg)
		}
		return "", fmt.Errorf("创建文章失败")
	}

	return appMsgID, nil
}

// EditURL 文章创建成功后跳转的编辑页地址
func (p *Publisher) EditURL(creds *Credentials, appMsgID string) string {
	q := url.Values{}
	q.Set("t", "media/appmsg_edit")
	q.Set("action", "edit")
	q.Set("type", appMsgType)
	q.Set("appmsgid", appMsgID)
	q.Set("token", creds.Token)
	q.Set("lang", "zh_CN")
	return p.baseURL + "/cgi-bin/appmsg?" + q.Encode()
}
