package weixin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/mpkit/multipost-cli/pkg/utils"
)

// CropConfig 一个居中裁剪窗口，同时携带归一化(0-1)坐标和绝对像素坐标
type CropConfig struct {
	X1, Y1, X2, Y2             float64
	X1Abs, Y1Abs, X2Abs, Y2Abs int
}

// CroppedImage 服务端裁剪产物，Ratio 由调用方按请求顺序补充
type CroppedImage struct {
	URL    string
	FileID int64
	Width  int
	Height int
	Ratio  string
}

// CalculateCrop 计算目标宽高比的居中裁剪窗口：只裁剪较长的一边，
// 短边完整保留。图片已是目标比例时返回整幅窗口。
func CalculateCrop(ratio float64, width, height int) CropConfig {
	w := float64(width)
	h := float64(height)

	var c CropConfig
	if w/h > ratio {
		// 图片太宽，左右对称裁剪
		targetWidth := h * ratio
		cropPercent := (w - targetWidth) / 2 / w
		c.X1 = cropPercent
		c.Y1 = 0
		c.X2 = 1 - cropPercent
		c.Y2 = 1
	} else {
		// 图片太高，上下对称裁剪
		targetHeight := w / ratio
		cropPercent := (h - targetHeight) / 2 / h
		c.X1 = 0
		c.Y1 = cropPercent
		c.X2 = 1
		c.Y2 = 1 - cropPercent
	}

	c.X1Abs = int(math.Round(c.X1 * w))
	c.Y1Abs = int(math.Round(c.Y1 * h))
	c.X2Abs = int(math.Round(c.X2 * w))
	c.Y2Abs = int(math.Round(c.Y2 * h))

	utils.Debug("裁剪窗口 ratio=%.4f: %+v", ratio, c)
	return c
}

// CropImage 对一张已上传的图片一次性请求多个裁剪窗口。
// 服务端不会回传比例标识，返回顺序是唯一的对应关系。
// 非"ok"响应返回 nil（调用方视为封面不可用）。
func (p *Publisher) CropImage(ctx context.Context, creds *Credentials, image *UploadResult, configs []CropConfig) ([]CroppedImage, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("imgurl", image.URL)
	writer.WriteField("size_count", strconv.Itoa(len(configs)))

	for i, config := range configs {
		prefix := fmt.Sprintf("size%d", i)
		writer.WriteField(prefix+"_x1", formatFloat(config.X1))
		writer.WriteField(prefix+"_y1", formatFloat(config.Y1))
		writer.WriteField(prefix+"_x2", formatFloat(config.X2))
		writer.WriteField(prefix+"_y2", formatFloat(config.Y2))
	}

	writer.WriteField("token", creds.Token)
	writer.WriteField("lang", "zh_CN")
	writer.WriteField("f", "json")
	writer.WriteField("ajax", "1")

	if err := writer.Close(); err != nil {
		return nil, err
	}

	endpoint := p.baseURL + "/cgi-bin/cropimage?action=crop_multi"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("裁剪图片失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取裁剪响应失败: %w", err)
	}

	result := gjson.ParseBytes(respBody)
	if result.Get("base_resp.err_msg").String() != "ok" {
		utils.Debug("裁剪图片未成功: %s", result.Get("base_resp.err_msg").String())
		return nil, nil
	}

	var images []CroppedImage
	for _, item := range result.Get("result").Array() {
		images = append(images, CroppedImage{
			URL:    item.Get("cdnurl").String(),
			FileID: item.Get("file_id").Int(),
			Width:  int(item.Get("width").Int()),
			Height: int(item.Get("height").Int()),
		})
	}

	return images, nil
}

// tagRatios 按请求顺序为裁剪结果补上比例标签
func tagRatios(images []CroppedImage, labels []string) {
	for i := range images {
		if i < len(labels) {
			images[i].Ratio = labels[i]
		}
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
