package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/mpkit/multipost-cli/internal/server"
	"github.com/mpkit/multipost-cli/internal/ui"
	"github.com/mpkit/multipost-cli/internal/watcher"
	"github.com/mpkit/multipost-cli/pkg/browser"
	"github.com/mpkit/multipost-cli/pkg/dispatch"
	"github.com/mpkit/multipost-cli/pkg/draft"
	"github.com/mpkit/multipost-cli/pkg/models"
	"github.com/mpkit/multipost-cli/pkg/platform"
	"github.com/mpkit/multipost-cli/pkg/store"
	"github.com/mpkit/multipost-cli/pkg/utils"
)

var (
	configFile  = flag.String("config", "", "配置文件路径")
	payloadFile = flag.String("payload", "", "发布载荷JSON文件，一次性发布后退出")
	draftFile   = flag.String("draft", "", "Markdown草稿文件，一次性发布后退出")
	platforms   = flag.String("platforms", "ARTICLE_WEIXIN", "目标平台，逗号分隔")
	watchMode   = flag.Bool("watch", false, "监听草稿文件夹并自动发布")
	serveMode   = flag.Bool("serve", false, "启动本地HTTP API服务")
	headless    = flag.Bool("headless", false, "无头模式运行浏览器")
	logLevel    = flag.String("log-level", "info", "日志级别 (debug, info, warn, error)")
	logFile     = flag.String("log-file", "", "日志文件路径")
)

func main() {
	flag.Parse()

	// 初始化日志
	if err := utils.InitLogger(*logLevel, *logFile); err != nil {
		logrus.Fatalf("初始化日志失败: %v", err)
	}

	printWelcome()

	config := loadConfig()
	if *headless {
		config.Headless = true
	}

	st, err := store.Open(config.StoreFile)
	if err != nil {
		logrus.Fatalf("打开本地存储失败: %v", err)
	}
	registry := platform.NewRegistry(st)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session, err := browser.NewSession(config.ProfileDir, config.Headless)
	if err != nil {
		logrus.Fatalf("启动浏览器失败: %v", err)
	}
	defer session.Close()

	interval := time.Duration(config.TabInterval * float64(time.Second))
	dispatcher := dispatch.NewDispatcher(session, registry, dispatch.WithInterval(interval))

	switch {
	case *payloadFile != "":
		runPayload(ctx, dispatcher, config, *payloadFile)
	case *draftFile != "":
		runDraft(ctx, dispatcher, config, *draftFile)
	case *watchMode || config.WatchMode:
		runWatch(ctx, dispatcher, config)
	case *serveMode:
		runServe(ctx, dispatcher, registry, config)
	default:
		flag.Usage()
		os.Exit(1)
	}
}

func printWelcome() {
	fmt.Println()
	color.Cyan("================================")
	color.Cyan("   MultiPost 多平台发布工具   ")
	color.Cyan("================================")
	fmt.Println()
}

func loadConfig() *models.Config {
	config := models.NewDefaultConfig()

	if *configFile != "" {
		if err := config.LoadFromFile(*configFile); err != nil {
			logrus.Fatalf("加载配置文件失败: %v", err)
		}
		logrus.Infof("已加载配置文件: %s", *configFile)
	} else if err := config.Validate(); err != nil {
		logrus.Fatalf("配置无效: %v", err)
	}

	return config
}

// runPayload 从JSON载荷文件执行一次发布
func runPayload(ctx context.Context, dispatcher *dispatch.Dispatcher, config *models.Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Fatalf("读取载荷文件失败: %v", err)
	}

	var payload models.SyncData
	if err := json.Unmarshal(data, &payload); err != nil {
		logrus.Fatalf("解析载荷文件失败: %v", err)
	}

	dispatchOnce(ctx, dispatcher, config, &payload)
}

// runDraft 从Markdown草稿执行一次发布
func runDraft(ctx context.Context, dispatcher *dispatch.Dispatcher, config *models.Config, path string) {
	article, err := draft.LoadArticle(path)
	if err != nil {
		logrus.Fatalf("加载草稿失败: %v", err)
	}

	payload, err := draft.SyncPayload(article, splitPlatforms(), config.AutoPublish)
	if err != nil {
		logrus.Fatalf("构建发布载荷失败: %v", err)
	}

	dispatchOnce(ctx, dispatcher, config, payload)
}

// runWatch 监听草稿文件夹，新草稿去抖后自动发布
func runWatch(ctx context.Context, dispatcher *dispatch.Dispatcher, config *models.Config) {
	handler := watcher.DraftHandlerFunc(func(path string) {
		article, err := draft.LoadArticle(path)
		if err != nil {
			logrus.Errorf("加载草稿失败: %v", err)
			return
		}

		payload, err := draft.SyncPayload(article, splitPlatforms(), config.AutoPublish)
		if err != nil {
			logrus.Errorf("构建发布载荷失败: %v", err)
			return
		}

		dispatchOnce(ctx, dispatcher, config, payload)
	})

	monitor, err := watcher.NewDraftsMonitor(config.DraftsFolder, handler, 2*time.Second)
	if err != nil {
		logrus.Fatalf("创建草稿监控失败: %v", err)
	}
	if err := monitor.Start(); err != nil {
		logrus.Fatalf("启动草稿监控失败: %v", err)
	}
	defer monitor.Stop()

	fmt.Printf("监听中: %s（Ctrl+C 退出）\n", config.DraftsFolder)
	<-ctx.Done()
}

// runServe 启动本地HTTP API服务
func runServe(ctx context.Context, dispatcher *dispatch.Dispatcher, registry *platform.Registry, config *models.Config) {
	srv := server.New(config.ServerAddr, registry, dispatcher.Dispatch)
	if err := srv.ListenAndServe(ctx); err != nil {
		logrus.Fatalf("API服务异常退出: %v", err)
	}
}

func dispatchOnce(ctx context.Context, dispatcher *dispatch.Dispatcher, config *models.Config, payload *models.SyncData) {
	names := make([]string, 0, len(payload.Platforms))
	for _, p := range payload.Platforms {
		names = append(names, p.Name)
	}
	board := ui.NewStatusBoard(names, config.ShowProgress)

	startTime := time.Now()
	for _, name := range names {
		board.Set(name, ui.StatusRunning, "")
	}

	failuresBefore := dispatcher.Stats().Total()
	if err := dispatcher.Dispatch(ctx, payload); err != nil {
		logrus.Errorf("发布失败: %v", err)
		for _, name := range names {
			board.Set(name, ui.StatusFailed, err.Error())
		}
		board.Summary()
		return
	}

	// 单个平台的失败不会中断调度，这里看错误统计的增量
	status := ui.StatusDone
	if dispatcher.Stats().Total() > failuresBefore {
		status = ui.StatusFailed
	}
	for _, name := range names {
		board.Set(name, status, "")
	}
	board.Summary()

	duration := time.Since(startTime)
	fmt.Printf("发布用时: %s\n", utils.FormatTimeDuration(duration.Seconds()))
}

func splitPlatforms() []string {
	parts := strings.Split(*platforms, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}
