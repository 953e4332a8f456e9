package weixin

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/mpkit/multipost-cli/pkg/utils"
)

// RewardAuthor 赞赏作者信息。开启赞赏时文章需要归属到一个
// 可赞赏的作者ID，查询失败时退化为哨兵值而不是中断发布。
type RewardAuthor struct {
	WriterID string
	Nickname string
}

// noRewardAuthor 查询失败或没有可用作者时的哨兵值
var noRewardAuthor = RewardAuthor{WriterID: "0"}

// FetchRewardAuthor 查询历史赞赏作者列表，取第一个可赞赏的作者
func (p *Publisher) FetchRewardAuthor(ctx context.Context, creds *Credentials) RewardAuthor {
	q := url.Values{}
	q.Set("operate_type", "GetServiceData")
	q.Set("service_name", "mp-history-reward-user")
	q.Set("service_option", "1")
	q.Set("token", creds.Token)
	q.Set("lang", "zh_CN")
	q.Set("f", "json")
	q.Set("ajax", "1")

	endpoint := p.baseURL + "/cgi-bin/mmbizfrontendcommstore?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return noRewardAuthor
	}

	resp, err := p.client.Do(req)
	if err != nil {
		utils.Warn("获取赞赏作者失败，使用默认值: %v", err)
		return noRewardAuthor
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		utils.Warn("获取赞赏作者失败，使用默认值: %v", err)
		return noRewardAuthor
	}

	result := gjson.ParseBytes(body)
	if result.Get("base_resp.ret").Int() != 0 {
		utils.Warn("获取赞赏作者失败，使用默认值")
		return noRewardAuthor
	}

	// service_data 是内嵌的JSON字符串
	serviceData := gjson.Parse(result.Get("service_data").String())
	first := serviceData.Get("0")
	if first.Exists() && first.Get("can_reward").Int() == 1 {
		author := RewardAuthor{
			WriterID: first.Get("writerid").String(),
			Nickname: first.Get("nickname").String(),
		}
		utils.Debug("赞赏作者: %s writerid: %s", author.Nickname, author.WriterID)
		return author
	}

	utils.Warn("未找到可用的赞赏作者")
	return noRewardAuthor
}
