package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTimeDuration(t *testing.T) {
	assert.Equal(t, "45s", FormatTimeDuration(45))
	assert.Equal(t, "2m 5s", FormatTimeDuration(125))
	assert.Equal(t, "1h 1m 1s", FormatTimeDuration(3661))
}

func TestGroupLabel(t *testing.T) {
	// 标签组名称带当前时分
	at := time.Date(2026, 8, 31, 15, 4, 0, 0, time.Local)
	assert.Equal(t, "MultiPost-15:04", GroupLabel(at))
}
