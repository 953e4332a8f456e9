package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// collectHandler 收集被触发的草稿路径
type collectHandler struct {
	mu    sync.Mutex
	paths []string
}

func (h *collectHandler) OnDraftReady(filePath string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paths = append(h.paths, filePath)
}

func (h *collectHandler) collected() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.paths...)
}

func TestMonitorDetectsNewDraft(t *testing.T) {
	dir := t.TempDir()
	handler := &collectHandler{}

	monitor, err := NewDraftsMonitor(dir, handler, 100*time.Millisecond)
	assert.NoError(t, err)
	assert.NoError(t, monitor.Start())
	defer monitor.Stop()

	draftPath := filepath.Join(dir, "new.md")
	assert.NoError(t, os.WriteFile(draftPath, []byte("# 新草稿\n"), 0644))

	// 等待去抖到期
	assert.Eventually(t, func() bool {
		paths := handler.collected()
		return len(paths) == 1 && paths[0] == draftPath
	}, 3*time.Second, 50*time.Millisecond)
}

func TestMonitorIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	handler := &collectHandler{}

	monitor, err := NewDraftsMonitor(dir, handler, 50*time.Millisecond)
	assert.NoError(t, err)
	assert.NoError(t, monitor.Start())
	defer monitor.Stop()

	assert.NoError(t, os.WriteFile(filepath.Join(dir, "cover.png"), []byte("img"), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("txt"), 0644))

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, handler.collected())
}

func TestMonitorDebouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()
	handler := &collectHandler{}

	monitor, err := NewDraftsMonitor(dir, handler, 150*time.Millisecond)
	assert.NoError(t, err)
	assert.NoError(t, monitor.Start())
	defer monitor.Stop()

	draftPath := filepath.Join(dir, "edit.md")
	// 连续写入会被去抖合并为一次处理
	for i := 0; i < 5; i++ {
		assert.NoError(t, os.WriteFile(draftPath, []byte("# 草稿\n内容\n"), 0644))
		time.Sleep(20 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return len(handler.collected()) >= 1
	}, 3*time.Second, 50*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	assert.Len(t, handler.collected(), 1)
}

func TestDraftHandlerFunc(t *testing.T) {
	var got string
	handler := DraftHandlerFunc(func(path string) { got = path })
	handler.OnDraftReady("/tmp/a.md")
	assert.Equal(t, "/tmp/a.md", got)
}
