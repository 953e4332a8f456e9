package weixin

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/mpkit/multipost-cli/pkg/models"
)

func boolPtr(b bool) *bool { return &b }

func TestResolveOptionsDefaults(t *testing.T) {
	opts := resolveOptions(nil)

	assert.True(t, opts.IsOriginal)
	assert.Equal(t, 4, opts.ClaimSourceType)
	assert.Equal(t, "个人观点，仅供参考", opts.ClaimSourceText)
	assert.True(t, opts.EnableReward)
	assert.Equal(t, 1, opts.RewardReplyID)
	assert.True(t, opts.EnableAd)
	assert.False(t, opts.AllowReprint)
	assert.False(t, opts.PayEnabled)
}

func TestResolveOptionsOverrides(t *testing.T) {
	rewardReply := 7
	opts := resolveOptions(&models.WeixinArticleOptions{
		IsOriginal:      boolPtr(false),
		ClaimSourceType: 1,
		ClaimSourceText: "本文为原创",
		EnableReward:    boolPtr(false),
		RewardReplyID:   &rewardReply,
		EnableAd:        boolPtr(false),
		AllowReprint:    true,
		PaySettings: &models.WeixinPaySettings{
			Enabled:        true,
			Fee:            1000,
			PreviewPercent: 30,
			Description:    "付费阅读",
		},
	})

	assert.False(t, opts.IsOriginal)
	assert.Equal(t, 1, opts.ClaimSourceType)
	assert.Equal(t, "本文为原创", opts.ClaimSourceText)
	assert.False(t, opts.EnableReward)
	assert.Equal(t, 7, opts.RewardReplyID)
	assert.False(t, opts.EnableAd)
	assert.True(t, opts.AllowReprint)
	assert.True(t, opts.PayEnabled)
	assert.Equal(t, 1000, opts.PayFee)
	assert.Equal(t, 30, opts.PayPreviewPercent)
}

func TestTruncateDigest(t *testing.T) {
	// 摘要按字符截断，不超过120个
	long := strings.Repeat("长", 150)
	assert.Equal(t, 120, len([]rune(truncateDigest(long))))

	short := "正常摘要"
	assert.Equal(t, short, truncateDigest(short))
}

// serializeForm 把请求序列化后再解析回来，便于断言字段值
func serializeForm(t *testing.T, r *articleRequest, creds *Credentials) map[string][]string {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	assert.NoError(t, r.writeForm(writer, creds))
	assert.NoError(t, writer.Close())

	reader := multipart.NewReader(&body, writer.Boundary())
	form, err := reader.ReadForm(4 << 20)
	assert.NoError(t, err)
	return form.Value
}

func testCovers() []CroppedImage {
	return []CroppedImage{
		{URL: "https://cdn/16_9.jpg", FileID: 1, Ratio: "16:9"},
		{URL: "https://cdn/1_1.jpg", FileID: 2, Ratio: "1:1"},
		{URL: "https://cdn/3_4.jpg", FileID: 3, Ratio: "3:4"},
	}
}

func TestWriteFormCoverSlots(t *testing.T) {
	r := &articleRequest{
		Title:   "标题",
		Options: resolveOptions(nil),
		Covers:  testCovers(),
	}
	values := serializeForm(t, r, &Credentials{Token: "9"})

	// 每个比例进入固定槽位，默认封面取1:1裁剪
	assert.Equal(t, "https://cdn/16_9.jpg", values["cdn_16_9_url0"][0])
	assert.Equal(t, "https://cdn/1_1.jpg", values["cdn_1_1_url0"][0])
	assert.Equal(t, "https://cdn/3_4.jpg", values["cdn_3_4_url0"][0])
	assert.Equal(t, "https://cdn/1_1.jpg", values["cdn_url0"][0])
	assert.Equal(t, "https://cdn/1_1.jpg", values["cdn_url_back0"][0])
}

func TestWriteFormDefaultCoverFallback(t *testing.T) {
	// 没有1:1裁剪时默认封面退化为第一张
	r := &articleRequest{
		Options: resolveOptions(nil),
		Covers:  []CroppedImage{{URL: "https://cdn/only.jpg", Ratio: "16:9"}},
	}
	values := serializeForm(t, r, &Credentials{Token: "9"})

	assert.Equal(t, "https://cdn/only.jpg", values["cdn_url0"][0])
	assert.Equal(t, "", values["cdn_1_1_url0"][0])
}

func TestWriteFormEditorialFields(t *testing.T) {
	r := &articleRequest{
		Title:    "测试标题",
		Author:   "测试作者",
		WriterID: "w42",
		Digest:   "摘要",
		Content:  "<p>内容</p>",
		Options:  resolveOptions(nil),
		Covers:   testCovers(),
	}
	values := serializeForm(t, r, &Credentials{Token: "9"})

	assert.Equal(t, "测试标题", values["title0"][0])
	assert.Equal(t, "测试作者", values["author0"][0])
	assert.Equal(t, "w42", values["writerid0"][0])
	assert.Equal(t, "摘要", values["digest0"][0])
	assert.Equal(t, "<p>内容</p>", values["content0"][0])
	assert.Equal(t, "1", values["copyright_type0"][0])
	assert.Equal(t, "4", values["claim_source_type0"][0])
	assert.Equal(t, "1", values["can_reward0"][0])
	assert.Equal(t, "1", values["reward_reply_id0"][0])
	assert.Equal(t, "1", values["can_insert_ad0"][0])
	assert.Equal(t, "0", values["allow_reprint0"][0])
	assert.Equal(t, "9", values["token"][0])

	// req 模板里写入了创作来源声明
	req := values["req"][0]
	assert.Equal(t, int64(4), gjson.Get(req, "idx_infos.0.claim_source.claim_source_type").Int())
	assert.Equal(t, "个人观点，仅供参考", gjson.Get(req, "idx_infos.0.claim_source.claim_source").String())
}

func TestWriteFormPayFields(t *testing.T) {
	opts := resolveOptions(&models.WeixinArticleOptions{
		PaySettings: &models.WeixinPaySettings{Enabled: true, Fee: 1000, PreviewPercent: 50, Description: "说明"},
	})
	r := &articleRequest{Options: opts, Covers: testCovers()}
	values := serializeForm(t, r, &Credentials{Token: "9"})

	assert.Equal(t, "1", values["is_pay_subscribe0"][0])
	assert.Equal(t, "1000", values["pay_fee0"][0])
	assert.Equal(t, "50", values["pay_preview_percent0"][0])
	assert.Equal(t, "说明", values["pay_desc0"][0])
}

func TestWriteFormPayDisabled(t *testing.T) {
	// 未开启付费时付费字段提交空串
	r := &articleRequest{Options: resolveOptions(nil), Covers: testCovers()}
	values := serializeForm(t, r, &Credentials{Token: "9"})

	assert.Equal(t, "0", values["is_pay_subscribe0"][0])
	assert.Equal(t, "", values["pay_fee0"][0])
	assert.Equal(t, "", values["pay_preview_percent0"][0])
}

func TestWriteFormAlbumInfo(t *testing.T) {
	r := &articleRequest{
		Options: resolveOptions(nil),
		Albums: []models.WeixinAlbumInfo{
			{ID: "album_1", Title: "技术合集"},
		},
	}
	values := serializeForm(t, r, &Credentials{Token: "9"})

	info := values["appmsg_album_info0"][0]
	assert.Equal(t, "album_1", gjson.Get(info, "appmsg_album_infos.0.album_id").String())
	assert.Equal(t, "技术合集", gjson.Get(info, "appmsg_album_infos.0.title").String())
}

func TestCreateArticleSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi-bin/operate_appmsg", r.URL.Path)
		assert.Equal(t, "ajax-response", r.URL.Query().Get("t"))
		assert.Equal(t, "create", r.URL.Query().Get("sub"))
		assert.Equal(t, "77", r.URL.Query().Get("type"))
		w.Write([]byte(`{"appMsgId":"10000123","base_resp":{"err_msg":"ok"}}`))
	}))
	defer server.Close()

	p := New(server.Client(), WithBaseURL(server.URL))
	r := &articleRequest{Options: resolveOptions(nil)}

	appMsgID, err := p.CreateArticle(context.Background(), &Credentials{Token: "9"}, r, nil)
	assert.NoError(t, err)
	assert.Equal(t, "10000123", appMsgID)
}

func TestCreateArticleFailureRelaysServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base_resp":{"err_msg":"title too long"}}`))
	}))
	defer server.Close()

	var relayed string
	p := New(server.Client(), WithBaseURL(server.URL))
	r := &articleRequest{Options: resolveOptions(nil)}

	_, err := p.CreateArticle(context.Background(), &Credentials{Token: "9"}, r, func(msg string) {
		relayed = msg
	})
	assert.Error(t, err)
	assert.Equal(t, "title too long", relayed)
}

func TestEditURL(t *testing.T) {
	p := New(nil)
	editURL := p.EditURL(&Credentials{Token: "9"}, "10000123")

	assert.Contains(t, editURL, "appmsgid=10000123")
	assert.Contains(t, editURL, "token=9")
	assert.Contains(t, editURL, "action=edit")
}
