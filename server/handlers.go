package server

import (
	"encoding/json"
	"net/http"
	"time"

	"FlowieFM/cache"
	"FlowieFM/config"
	"FlowieFM/core/analytics"
	"FlowieFM/logger"
	"FlowieFM/repository"

	"github.com/google/uuid"
)

// APIHandler 处理目录、歌单、播放偏好与收听统计相关的API请求
type APIHandler struct {
	trackRepo    repository.TrackRepository
	playlistRepo repository.PlaylistRepository
	eventRepo    repository.ListeningEventRepository
	recorder     *analytics.Recorder
	settings     *cache.PlayerSettingsCache
	cfg          *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	trackRepo repository.TrackRepository,
	playlistRepo repository.PlaylistRepository,
	eventRepo repository.ListeningEventRepository,
	recorder *analytics.Recorder,
	settings *cache.PlayerSettingsCache,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		trackRepo:    trackRepo,
		playlistRepo: playlistRepo,
		eventRepo:    eventRepo,
		recorder:     recorder,
		settings:     settings,
		cfg:          cfg,
	}
}

// respondJSON 以JSON格式写出响应
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("写入JSON响应失败", logger.ErrorField(err))
		}
	}
}

// respondError 以 {"error": ...} 的形式写出错误响应
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusRecorder 包装 ResponseWriter 以捕获最终状态码
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogMiddleware 为每个请求生成请求ID并记录访问日志
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)

		logger.Info("http request",
			logger.String("requestId", requestID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", recorder.status),
			logger.Duration("elapsed", time.Since(start)))
	})
}

// corsMiddleware 添加跨域响应头，Range相关头部需要显式放行
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
