package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncError(t *testing.T) {
	cause := errors.New("底层错误")
	err := NewError("上传失败", cause)

	assert.Equal(t, "上传失败: 底层错误", err.Error())
	assert.ErrorIs(t, err, cause)

	// 不带cause时只有消息
	bare := NewError("独立错误", nil)
	assert.Equal(t, "独立错误", bare.Error())
}

func TestErrorStats(t *testing.T) {
	stats := NewErrorStats()
	assert.Equal(t, 0, stats.Total())

	stats.Record("ARTICLE_WEIXIN", errors.New("超时"))
	stats.Record("ARTICLE_WEIXIN", errors.New("超时"))
	stats.Record("P2", errors.New("未登录"))
	assert.Equal(t, 3, stats.Total())

	// nil 错误不计数
	stats.Record("P3", nil)
	assert.Equal(t, 3, stats.Total())
}
