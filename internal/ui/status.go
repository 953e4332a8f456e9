// Package ui 终端状态输出：发布过程中每个平台的彩色状态行。
package ui

import (
	"fmt"
	"sync"

	"github.com/fatih/color"
)

// Status 单个平台的同步状态
type Status string

const (
	StatusPending Status = "等待中"
	StatusRunning Status = "同步中"
	StatusDone    Status = "成功"
	StatusFailed  Status = "失败"
)

// StatusBoard 管理一次发布中所有平台的状态展示
type StatusBoard struct {
	mutex    sync.Mutex
	order    []string
	states   map[string]Status
	messages map[string]string
	enabled  bool
}

// NewStatusBoard 创建状态面板
func NewStatusBoard(platforms []string, enabled bool) *StatusBoard {
	board := &StatusBoard{
		order:    append([]string(nil), platforms...),
		states:   make(map[string]Status),
		messages: make(map[string]string),
		enabled:  enabled,
	}
	for _, name := range platforms {
		board.states[name] = StatusPending
	}
	return board
}

// Set 更新平台状态并输出一行
func (b *StatusBoard) Set(platform string, status Status, message string) {
	b.mutex.Lock()
	b.states[platform] = status
	b.messages[platform] = message
	b.mutex.Unlock()

	if !b.enabled {
		return
	}

	line := fmt.Sprintf("[%s] %s", platform, status)
	if message != "" {
		line += ": " + message
	}

	switch status {
	case StatusRunning:
		color.Cyan(line)
	case StatusDone:
		color.Green(line)
	case StatusFailed:
		color.Red(line)
	default:
		color.Yellow(line)
	}
}

// Counts 返回成功与失败的平台数
func (b *StatusBoard) Counts() (done, failed int) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, status := range b.states {
		switch status {
		case StatusDone:
			done++
		case StatusFailed:
			failed++
		}
	}
	return done, failed
}

// Summary 输出最终统计
func (b *StatusBoard) Summary() {
	if !b.enabled {
		return
	}

	done, failed := b.Counts()
	if failed == 0 {
		color.Green("全部完成: %d 个平台同步成功", done)
		return
	}
	color.Red("完成: 成功 %d 个，失败 %d 个", done, failed)
}
