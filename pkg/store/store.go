// Package store 提供按平台名存取账号信息与附加配置的本地键值存储，
// 对应浏览器扩展里的 storage 区域，落盘为单个JSON文件。
package store

import (
	"sync"

	"github.com/mpkit/multipost-cli/pkg/models"
	"github.com/mpkit/multipost-cli/pkg/utils"
)

// Entry 单个平台在本地存储中的记录
type Entry struct {
	AccountInfo *models.AccountInfo `json:"accountInfo,omitempty"`
	ExtraConfig *models.ExtraConfig `json:"extraConfig,omitempty"`
}

// Store 本地配置存储
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string]*Entry // 平台名 -> 记录
}

// Open 打开（或新建）本地存储文件
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		entries: make(map[string]*Entry),
	}

	if err := utils.LoadJSON(path, &s.entries); err != nil {
		return nil, utils.NewError("加载本地存储失败", err)
	}

	return s, nil
}

// AccountInfo 返回平台的账号信息，不存在时返回nil
func (s *Store) AccountInfo(platform string) *models.AccountInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.entries[platform]; ok {
		return entry.AccountInfo
	}
	return nil
}

// ExtraConfig 返回平台的附加配置，不存在时返回nil
func (s *Store) ExtraConfig(platform string) *models.ExtraConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.entries[platform]; ok {
		return entry.ExtraConfig
	}
	return nil
}

// SetAccountInfo 更新平台账号信息并落盘
func (s *Store) SetAccountInfo(platform string, info *models.AccountInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entry(platform).AccountInfo = info
	return s.save()
}

// SetExtraConfig 更新平台附加配置并落盘
func (s *Store) SetExtraConfig(platform string, cfg *models.ExtraConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entry(platform).ExtraConfig = cfg
	return s.save()
}

func (s *Store) entry(platform string) *Entry {
	if _, ok := s.entries[platform]; !ok {
		s.entries[platform] = &Entry{}
	}
	return s.entries[platform]
}

func (s *Store) save() error {
	if err := utils.SaveJSON(s.path, s.entries); err != nil {
		return utils.NewError("保存本地存储失败", err)
	}
	return nil
}
