// Package watcher 监控草稿文件夹，新增或修改的Markdown草稿
// 在去抖后交给发布处理器。
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mpkit/multipost-cli/pkg/utils"
)

// DraftHandler 处理就绪的草稿文件
type DraftHandler interface {
	OnDraftReady(filePath string)
}

// DraftHandlerFunc 函数适配器
type DraftHandlerFunc func(filePath string)

// OnDraftReady 实现DraftHandler接口
func (f DraftHandlerFunc) OnDraftReady(filePath string) {
	f(filePath)
}

// DraftsMonitor 监控草稿文件夹变化
type DraftsMonitor struct {
	watcher        *fsnotify.Watcher
	folderPath     string
	fileExtensions []string
	handler        DraftHandler
	debounceTime   time.Duration
	pendingFiles   map[string]*time.Timer
	mutex          sync.Mutex
	stopChan       chan struct{}
}

// NewDraftsMonitor 创建新的草稿监控器
func NewDraftsMonitor(folderPath string, handler DraftHandler, debounceTime time.Duration) (*DraftsMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %w", err)
	}

	monitor := &DraftsMonitor{
		watcher:        watcher,
		folderPath:     folderPath,
		fileExtensions: []string{".md", ".markdown"},
		handler:        handler,
		debounceTime:   debounceTime,
		pendingFiles:   make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
	}

	return monitor, nil
}

// Start 开始监控草稿文件夹
func (m *DraftsMonitor) Start() error {
	// 确保文件夹存在
	if err := os.MkdirAll(m.folderPath, 0755); err != nil {
		return fmt.Errorf("创建草稿文件夹失败: %w", err)
	}

	if err := m.watcher.Add(m.folderPath); err != nil {
		return fmt.Errorf("添加监控文件夹失败: %w", err)
	}

	go m.watchLoop()

	utils.Info("开始监控草稿文件夹: %s", m.folderPath)
	return nil
}

// Stop 停止监控
func (m *DraftsMonitor) Stop() {
	close(m.stopChan)
	m.watcher.Close()
	utils.Info("停止监控草稿文件夹: %s", m.folderPath)

	// 取消所有待处理的草稿定时器
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, timer := range m.pendingFiles {
		timer.Stop()
	}
}

// watchLoop 监控循环
func (m *DraftsMonitor) watchLoop() {
	for {
		select {
		case <-m.stopChan:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleFileEvent(event)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			utils.Error("监控草稿文件夹时出错: %v", err)
		}
	}
}

// 处理文件事件，写入仍在进行时通过去抖合并
func (m *DraftsMonitor) handleFileEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	filePath := event.Name
	if !m.isDraftFile(filePath) {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if timer, exists := m.pendingFiles[filePath]; exists {
		timer.Stop()
	}

	m.pendingFiles[filePath] = time.AfterFunc(m.debounceTime, func() {
		m.processDraft(filePath)
	})

	utils.Debug("检测到草稿变化: %s", filePath)
}

// 判断是否为草稿文件
func (m *DraftsMonitor) isDraftFile(filePath string) bool {
	fileInfo, err := os.Stat(filePath)
	if err != nil || fileInfo.IsDir() {
		return false
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	for _, targetExt := range m.fileExtensions {
		if ext == targetExt {
			return true
		}
	}
	return false
}

// 去抖到期后交给处理器
func (m *DraftsMonitor) processDraft(filePath string) {
	m.mutex.Lock()
	delete(m.pendingFiles, filePath)
	m.mutex.Unlock()

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return
	}

	utils.Info("草稿就绪: %s", filePath)
	if m.handler != nil {
		m.handler.OnDraftReady(filePath)
	}
}
