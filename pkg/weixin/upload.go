package weixin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mpkit/multipost-cli/pkg/utils"
)

// SceneArticleImage 上传场景：文章封面/正文图片
const SceneArticleImage = 8

// UploadResult 素材上传成功后的内容寻址句柄
type UploadResult struct {
	FileID int64
	URL    string // CDN 地址
}

// fetchBinary 读取图片二进制内容。支持 http(s) 地址（经会话客户端，
// 平台内CDN图片也能取到）和本地文件路径。
func (p *Publisher) fetchBinary(ctx context.Context, fileURL string) ([]byte, string, error) {
	if strings.HasPrefix(fileURL, "http://") || strings.HasPrefix(fileURL, "https://") {
		req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
		if err != nil {
			return nil, "", err
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("获取图片失败: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("获取图片失败: HTTP %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", fmt.Errorf("读取图片失败: %w", err)
		}
		return data, resp.Header.Get("Content-Type"), nil
	}

	data, err := os.ReadFile(fileURL)
	if err != nil {
		return nil, "", fmt.Errorf("读取本地图片失败: %w", err)
	}
	return data, "", nil
}

// UploadImage 上传一张图片到素材接口。
// 接口自身的成功标记是 base_resp.err_msg == "ok"，不匹配时返回 nil
// 而不是报错，是否致命由调用方决定：封面上传失败终止发布，
// 正文图片上传失败只是保留原图地址。
func (p *Publisher) UploadImage(ctx context.Context, creds *Credentials, fileURL string, scene int) (*UploadResult, error) {
	data, contentType, err := p.fetchBinary(ctx, fileURL)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	now := time.Now()
	filename := fmt.Sprintf("%d.jpg", now.UnixMilli())

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("type", contentType)
	writer.WriteField("id", strconv.FormatInt(now.UnixMilli(), 10))
	writer.WriteField("name", filename)
	writer.WriteField("lastModifiedDate", now.String())
	writer.WriteField("size", strconv.Itoa(len(data)))

	part, err := createFormFile(writer, "file", filename, contentType)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("action", "upload_material")
	q.Set("f", "json")
	q.Set("scene", strconv.Itoa(scene))
	q.Set("writetype", "doublewrite")
	q.Set("groupid", "1")
	q.Set("ticket_id", creds.UserName)
	q.Set("ticket", creds.Ticket)
	q.Set("svr_time", strconv.FormatInt(now.Unix(), 10))
	q.Set("token", creds.Token)
	q.Set("lang", "zh_CN")
	q.Set("seq", strconv.FormatInt(now.UnixMilli(), 10))
	q.Set("t", strconv.FormatFloat(rand.Float64(), 'f', -1, 64))

	endpoint := p.baseURL + "/cgi-bin/filetransfer?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("上传图片失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取上传响应失败: %w", err)
	}

	result := gjson.ParseBytes(respBody)
	if result.Get("base_resp.err_msg").String() != "ok" {
		utils.Debug("上传图片未成功: %s", result.Get("base_resp.err_msg").String())
		return nil, nil
	}

	return &UploadResult{
		FileID: result.Get("content").Int(),
		URL:    result.Get("cdn_url").String(),
	}, nil
}

// createFormFile 与 multipart.Writer.CreateFormFile 相同，
// 但保留真实的图片 Content-Type 而不是 application/octet-stream
func createFormFile(w *multipart.Writer, fieldname, filename, contentType string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldname, filename))
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}
