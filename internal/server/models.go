package server

import (
	"encoding/json"
	"net/http"

	"github.com/mpkit/multipost-cli/pkg/utils"
)

// BaseResponse 所有API响应的公共部分
type BaseResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
}

// SyncResult 任务创建结果
type SyncResult struct {
	TaskID string `json:"task_id"`
}

// SyncResponse 发布接口响应
type SyncResponse struct {
	BaseResponse
	Data *SyncResult `json:"data,omitempty"`
}

// TaskResponse 任务查询响应
type TaskResponse struct {
	BaseResponse
	Data *Task `json:"data,omitempty"`
}

// PlatformInfo 平台列表接口中的单项
type PlatformInfo struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	HomeURL string   `json:"homeUrl"`
	Tags    []string `json:"tags,omitempty"`
}

// PlatformsResponse 平台列表响应
type PlatformsResponse struct {
	BaseResponse
	Data []PlatformInfo `json:"data"`
}

func decodeJSON(r *http.Request, target interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// respondWithError 发送错误 JSON 响应
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, BaseResponse{Code: code, Msg: message})
}

// respondWithJSON 发送 JSON 响应
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		utils.Error("JSON 序列化错误: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code": 500, "msg": "内部服务器错误"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
