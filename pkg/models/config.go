package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Config 表示应用程序的配置
type Config struct {
	DraftsFolder string  `json:"drafts_folder"` // 监听模式下的草稿文件夹
	StoreFile    string  `json:"store_file"`    // 平台账号/附加配置存储文件
	ProfileDir   string  `json:"profile_dir"`   // 浏览器用户数据目录（已登录会话）
	Headless     bool    `json:"headless"`      // 是否无头模式运行浏览器
	TabInterval  float64 `json:"tab_interval"`  // 平台间节流间隔（秒）
	ShowProgress bool    `json:"show_progress"` // 显示进度条
	WatchMode    bool    `json:"watch_mode"`    // 是否启用监听模式
	AutoPublish  bool    `json:"auto_publish"`  // 监听模式下是否自动发布
	ServerAddr   string  `json:"server_addr"`   // HTTP API 监听地址
	LogLevel     string  `json:"log_level"`     // 日志级别
	LogFile      string  `json:"log_file"`      // 日志文件
}

// ConfigValidationError 表示配置验证错误
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	msg := fmt.Sprintf("配置验证错误: %s - %s", e.Field, e.Message)
	logrus.Error(msg)
	return msg
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return &Config{
		DraftsFolder: filepath.Join(home, ".multipost", "drafts"),
		StoreFile:    filepath.Join(home, ".multipost", "store.json"),
		ProfileDir:   filepath.Join(home, ".multipost", "profile"),
		Headless:     false,
		TabInterval:  3.0,
		ShowProgress: true,
		WatchMode:    false,
		AutoPublish:  false,
		ServerAddr:   "127.0.0.1:8917",
		LogLevel:     "INFO",
		LogFile:      "",
	}
}

// Validate 验证配置是否有效
func (c *Config) Validate() error {
	if err := ensureDirExists(c.DraftsFolder); err != nil {
		return &ConfigValidationError{"DraftsFolder", err.Error()}
	}

	if err := ensureDirExists(c.ProfileDir); err != nil {
		return &ConfigValidationError{"ProfileDir", err.Error()}
	}

	if c.TabInterval < 0 || c.TabInterval > 60 {
		return &ConfigValidationError{"TabInterval", "必须在0-60秒之间"}
	}

	if c.StoreFile == "" {
		return &ConfigValidationError{"StoreFile", "不能为空"}
	}

	return nil
}

// LoadFromFile 从文件加载配置
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("读取配置文件失败: %v", err)
		return err
	}

	if err := json.Unmarshal(data, c); err != nil {
		logrus.Errorf("解析配置文件失败: %v", err)
		return err
	}

	if err := c.Validate(); err != nil {
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}

	return nil
}

// SaveToFile 保存配置到文件
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logrus.Errorf("创建目录失败: %v", err)
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		logrus.Errorf("写入配置文件失败: %v", err)
		return err
	}

	return nil
}

// Update 批量更新配置，失败时回滚
func (c *Config) Update(updates map[string]interface{}) error {
	tempConfig := *c

	// 将更新序列化为JSON再反序列化到结构体中
	updateBytes, err := json.Marshal(updates)
	if err != nil {
		logrus.Errorf("序列化更新数据失败: %v", err)
		return err
	}

	if err := json.Unmarshal(updateBytes, c); err != nil {
		*c = tempConfig
		logrus.Errorf("应用配置更新失败: %v", err)
		return err
	}

	if err := c.Validate(); err != nil {
		*c = tempConfig
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}

	return nil
}

// Reset 重置为默认配置
func (c *Config) Reset() {
	defaultConfig := NewDefaultConfig()
	*c = *defaultConfig
}

// 确保目录存在，如果不存在则创建
func ensureDirExists(path string) error {
	if path == "" {
		return nil // 空路径视为可选
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}

	return nil
}
