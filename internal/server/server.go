// Package server 提供本地HTTP接口：提交发布任务、查询任务状态、
// 列出已注册平台。UI层（或脚本）通过它驱动调度器。
package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mpkit/multipost-cli/pkg/models"
	"github.com/mpkit/multipost-cli/pkg/platform"
	"github.com/mpkit/multipost-cli/pkg/utils"
)

// DispatchFunc 执行一次发布，由调度层注入
type DispatchFunc func(ctx context.Context, data *models.SyncData) error

// 任务状态
const (
	TaskPending = "PENDING"
	TaskRunning = "RUNNING"
	TaskSuccess = "SUCCESS"
	TaskFailed  = "FAILED"
)

// Task 一次发布任务的执行记录
type Task struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Platforms []string  `json:"platforms"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Server 本地API服务
type Server struct {
	addr     string
	registry *platform.Registry
	dispatch DispatchFunc

	// 使用 sync.Map 来安全地并发读写
	tasks sync.Map
}

// New 创建API服务
func New(addr string, registry *platform.Registry, dispatch DispatchFunc) *Server {
	return &Server{
		addr:     addr,
		registry: registry,
		dispatch: dispatch,
	}
}

// Handler 返回路由好的HTTP处理器
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sync", s.handleSync)
	mux.HandleFunc("/api/tasks/", s.handleTask)
	mux.HandleFunc("/api/platforms", s.handlePlatforms)
	return mux
}

// ListenAndServe 启动服务并随上下文退出
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	utils.Info("API服务已启动: http://%s", s.addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// handleSync 接收发布载荷并创建后台任务
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, http.StatusMethodNotAllowed, "只允许 POST 方法")
		return
	}

	var data models.SyncData
	if err := decodeJSON(r, &data); err != nil {
		respondWithError(w, http.StatusBadRequest, "无效的请求体: "+err.Error())
		return
	}

	if len(data.Platforms) == 0 {
		respondWithError(w, http.StatusBadRequest, "缺少目标平台")
		return
	}

	task := s.createTask(&data)
	respondWithJSON(w, http.StatusOK, SyncResponse{
		BaseResponse: BaseResponse{Code: 0},
		Data:         &SyncResult{TaskID: task.ID},
	})
}

// handleTask 查询单个任务状态
func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "只允许 GET 方法")
		return
	}

	taskID := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if taskID == "" {
		respondWithError(w, http.StatusBadRequest, "缺少任务ID")
		return
	}

	task, ok := s.taskByID(taskID)
	if !ok {
		respondWithError(w, http.StatusNotFound, "任务不存在")
		return
	}

	respondWithJSON(w, http.StatusOK, TaskResponse{
		BaseResponse: BaseResponse{Code: 0},
		Data:         task,
	})
}

// handlePlatforms 列出已注册的平台
func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "只允许 GET 方法")
		return
	}

	names := s.registry.Names()
	infos := make([]PlatformInfo, 0, len(names))
	for _, name := range names {
		info, ok := s.registry.Lookup(name)
		if !ok {
			continue
		}
		infos = append(infos, PlatformInfo{
			Name:    info.Name,
			Type:    string(info.Type),
			HomeURL: info.HomeURL,
			Tags:    info.Tags,
		})
	}

	respondWithJSON(w, http.StatusOK, PlatformsResponse{
		BaseResponse: BaseResponse{Code: 0},
		Data:         infos,
	})
}

// createTask 创建任务并在后台执行发布
func (s *Server) createTask(data *models.SyncData) *Task {
	platforms := make([]string, 0, len(data.Platforms))
	for _, p := range data.Platforms {
		platforms = append(platforms, p.Name)
	}

	task := &Task{
		ID:        uuid.New().String(),
		Status:    TaskPending,
		Platforms: platforms,
		CreatedAt: time.Now(),
	}
	s.tasks.Store(task.ID, task)
	utils.Info("创建发布任务: %s (%d 个平台)", task.ID, len(platforms))

	go s.runTask(task.ID, data)
	return task
}

func (s *Server) runTask(taskID string, data *models.SyncData) {
	s.setStatus(taskID, TaskRunning, "")

	if err := s.dispatch(context.Background(), data); err != nil {
		utils.Error("任务 %s 执行失败: %v", taskID, err)
		s.setStatus(taskID, TaskFailed, err.Error())
		return
	}

	s.setStatus(taskID, TaskSuccess, "")
	utils.Info("任务 %s 执行完成", taskID)
}

// setStatus 以写时复制的方式更新任务状态。
// 已存入 sync.Map 的任务不再原地修改，查询协程读到的指针始终稳定。
func (s *Server) setStatus(taskID, status, errMsg string) {
	task, ok := s.taskByID(taskID)
	if !ok {
		return
	}
	next := *task
	next.Status = status
	next.Error = errMsg
	s.tasks.Store(taskID, &next)
}

func (s *Server) taskByID(taskID string) (*Task, bool) {
	value, ok := s.tasks.Load(taskID)
	if !ok {
		return nil, false
	}
	task, ok := value.(*Task)
	return task, ok
}
