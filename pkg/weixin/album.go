package weixin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mpkit/multipost-cli/pkg/models"
	"github.com/mpkit/multipost-cli/pkg/utils"
)

// FetchAlbums 拉取公众号的合集列表（最多50个）
func (p *Publisher) FetchAlbums(ctx context.Context, creds *Credentials) ([]models.WeixinAlbumInfo, error) {
	q := url.Values{}
	q.Set("action", "list")
	q.Set("begin", "0")
	q.Set("count", "50")
	q.Set("type", "0")
	q.Set("latest", "1")
	q.Set("need_pay", "0")
	q.Set("token", creds.Token)
	q.Set("lang", "zh_CN")
	q.Set("f", "json")
	q.Set("ajax", "1")

	endpoint := p.baseURL + "/cgi-bin/appmsgalbummgr?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-requested-with", "XMLHttpRequest")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取合集列表失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取合集列表失败: %w", err)
	}

	result := gjson.ParseBytes(body)
	if result.Get("base_resp.ret").Int() != 0 {
		return nil, fmt.Errorf("获取合集列表失败: ret=%d", result.Get("base_resp.ret").Int())
	}

	var albums []models.WeixinAlbumInfo
	for _, item := range result.Get("list_resp.items").Array() {
		albums = append(albums, models.WeixinAlbumInfo{
			ID:             item.Get("id").String(),
			Title:          item.Get("title").String(),
			Total:          int(item.Get("total").Int()),
			URL:            item.Get("url").String(),
			ContinuousRead: int(item.Get("continous_read_on").Int()),
			CoverURL:       item.Get("cover_url").String(),
			CreateTime:     item.Get("create_time").Int(),
			UpdateTime:     item.Get("update_time").Int(),
		})
	}

	return albums, nil
}

// MatchAlbums 按ID精确匹配或按标题子串匹配筛选合集，两种条件取并集
func MatchAlbums(albums []models.WeixinAlbumInfo, ids []string, titles []string) []models.WeixinAlbumInfo {
	var selected []models.WeixinAlbumInfo
	for _, album := range albums {
		if containsString(ids, album.ID) || titleMatches(album.Title, titles) {
			selected = append(selected, album)
		}
	}
	return selected
}

// SelectAlbums 解析文章要关联的合集。两个筛选列表都为空时
// 不发起网络调用，直接返回空。
func (p *Publisher) SelectAlbums(ctx context.Context, creds *Credentials, ids []string, titles []string) []models.WeixinAlbumInfo {
	if len(ids) == 0 && len(titles) == 0 {
		return nil
	}

	albums, err := p.FetchAlbums(ctx, creds)
	if err != nil {
		utils.Warn("获取合集列表失败: %v", err)
		return nil
	}

	selected := MatchAlbums(albums, ids, titles)
	utils.Debug("匹配到 %d 个合集", len(selected))
	return selected
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func titleMatches(title string, fragments []string) bool {
	for _, fragment := range fragments {
		if fragment != "" && strings.Contains(title, fragment) {
			return true
		}
	}
	return false
}
