package weixin

import (
	"bytes"
	"context"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// imageSize 解析图片头部获取宽高，裁剪窗口计算需要原始尺寸
func imageSize(data []byte) (width, height int, err error) {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("获取图片尺寸失败: %w", err)
	}
	return config.Width, config.Height, nil
}

// coverSize 获取封面图片的原始尺寸
func (p *Publisher) coverSize(ctx context.Context, fileURL string) (width, height int, err error) {
	data, _, err := p.fetchBinary(ctx, fileURL)
	if err != nil {
		return 0, 0, err
	}
	return imageSize(data)
}
