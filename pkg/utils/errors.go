package utils

import (
	"fmt"
	"sync"
)

// SyncError 是发布流程错误的基础类型
type SyncError struct {
	Message string
	Cause   error
}

// Error 实现error接口
func (e *SyncError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap 支持error chain
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// NewError 创建一个新的SyncError
func NewError(message string, cause error) error {
	return &SyncError{
		Message: message,
		Cause:   cause,
	}
}

// ErrorStats 按操作聚合错误计数。每次远程调用只执行一次，
// 这里只做统计，不做重试。
type ErrorStats struct {
	mu    sync.Mutex
	stats map[string]map[string]int // 操作 -> 错误信息 -> 计数
}

// NewErrorStats 创建错误统计器
func NewErrorStats() *ErrorStats {
	return &ErrorStats{
		stats: make(map[string]map[string]int),
	}
}

// Record 记录一次操作失败
func (s *ErrorStats) Record(operation string, err error) {
	if err == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stats[operation] == nil {
		s.stats[operation] = make(map[string]int)
	}
	s.stats[operation][err.Error()]++
}

// Total 返回记录的错误总数
func (s *ErrorStats) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, errors := range s.stats {
		for _, count := range errors {
			total += count
		}
	}
	return total
}

// Print 打印错误统计信息
func (s *ErrorStats) Print() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.stats) == 0 {
		Info("没有错误记录")
		return
	}

	Info("错误统计:")
	for operation, errors := range s.stats {
		Info("操作: %s", operation)
		for errMsg, count := range errors {
			Info("  - %s: %d次", errMsg, count)
		}
	}
}
