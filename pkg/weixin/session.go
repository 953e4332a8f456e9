package weixin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/mpkit/multipost-cli/pkg/utils"
)

// ErrNotAuthenticated 页面中提取不到 token，说明未登录或登录态过期
var ErrNotAuthenticated = errors.New("无法获取 token，请重新登录后重试")

// Credentials 从已登录页面抓取的会话凭证。服务端会使其过期，
// 因此每次发布现抓现用，绝不缓存。
type Credentials struct {
	Token    string // 数字会话凭证，所有接口调用必需
	Ticket   string // 上传接口的防重放参数，可为空
	UserName string // 公众号原始ID，作为 ticket_id 使用，可为空
	Nickname string // 公众号名称，用作文章作者，可为空
}

// extractor 单个提取策略：从页面HTML中尽力提取凭证字段，
// 提取不到的字段留空。按序应用，后面的策略只补前面缺的字段。
type extractor func(html string) Credentials

var (
	commonDataRe = regexp.MustCompile(`(?s)window\.wx\.commonData\s*=\s*\{(.*?)\};`)

	blockTokenRe    = regexp.MustCompile(`t\s*:\s*["'](\d+)["']`)
	blockNicknameRe = regexp.MustCompile(`nick_name\s*:\s*["']([^"']+)["']`)
	blockTicketRe   = regexp.MustCompile(`ticket\s*:\s*["']([^"']+)["']`)
	blockUserNameRe = regexp.MustCompile(`user_name\s*:\s*["']([^"']+)["']`)

	looseTokenRes = []*regexp.Regexp{
		regexp.MustCompile(`["']t["']\s*:\s*["'](\d+)["']`),
		regexp.MustCompile(`\bt\s*:\s*["'](\d+)["']`),
		regexp.MustCompile(`token\s*[=:]\s*["']?(\d+)["']?`),
	}
	looseNicknameRes = []*regexp.Regexp{
		regexp.MustCompile(`["']nick_name["']\s*:\s*["']([^"']+)["']`),
		regexp.MustCompile(`nick_name\s*:\s*["']([^"']+)["']`),
		regexp.MustCompile(`nickName\s*[=:]\s*["']([^"']+)["']`),
	}
	looseTicketRes = []*regexp.Regexp{
		regexp.MustCompile(`["']ticket["']\s*:\s*["']([^"']+)["']`),
		regexp.MustCompile(`ticket\s*:\s*["']([^"']+)["']`),
	}
	looseUserNameRes = []*regexp.Regexp{
		regexp.MustCompile(`["']user_name["']\s*:\s*["']([^"']+)["']`),
		regexp.MustCompile(`user_name\s*:\s*["']([^"']+)["']`),
	}
)

// commonDataExtractor 策略一：匹配 window.wx.commonData 对象字面量，
// 在其内部提取各字段。
func commonDataExtractor(html string) Credentials {
	m := commonDataRe.FindStringSubmatch(html)
	if m == nil {
		return Credentials{}
	}

	block := m[1]
	var c Credentials
	if t := blockTokenRe.FindStringSubmatch(block); t != nil {
		c.Token = t[1]
	}
	if n := blockNicknameRe.FindStringSubmatch(block); n != nil {
		c.Nickname = n[1]
	}
	if tk := blockTicketRe.FindStringSubmatch(block); tk != nil {
		c.Ticket = tk[1]
	}
	if u := blockUserNameRe.FindStringSubmatch(block); u != nil {
		c.UserName = u[1]
	}
	return c
}

// looseExtractor 策略二：直接在整个页面上逐字段扫描（备用方案）
func looseExtractor(html string) Credentials {
	var c Credentials
	c.Token = firstMatch(html, looseTokenRes)
	c.Nickname = firstMatch(html, looseNicknameRes)
	c.Ticket = firstMatch(html, looseTicketRes)
	c.UserName = firstMatch(html, looseUserNameRes)
	return c
}

func firstMatch(html string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(html); m != nil {
			return m[1]
		}
	}
	return ""
}

// extractCredentials 按序应用提取策略，后面的策略只补缺失字段。
// token 是唯一的硬性前置条件，缺失即视为未登录。
func extractCredentials(html string) (*Credentials, error) {
	strategies := []extractor{commonDataExtractor, looseExtractor}

	var c Credentials
	for _, strategy := range strategies {
		got := strategy(html)
		if c.Token == "" {
			c.Token = got.Token
		}
		if c.Nickname == "" {
			c.Nickname = got.Nickname
		}
		if c.Ticket == "" {
			c.Ticket = got.Ticket
		}
		if c.UserName == "" {
			c.UserName = got.UserName
		}
	}

	if c.Token == "" {
		return nil, ErrNotAuthenticated
	}

	return &c, nil
}

// ReadCredentials 抓取平台首页并提取会话凭证
func (p *Publisher) ReadCredentials(ctx context.Context) (*Credentials, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/", nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取公众号首页失败: %w", err)
	}
	defer resp.Body.Close()

	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取公众号首页失败: %w", err)
	}

	creds, err := extractCredentials(string(html))
	if err != nil {
		return nil, err
	}

	utils.Debug("提取的会话凭证: token=%s nickname=%s user_name=%s", creds.Token, creds.Nickname, creds.UserName)
	return creds, nil
}
