package server

import (
	"encoding/json"
	"net/http"

	"FlowieFM/logger"
)

// GetPlayerSettingsHandler 处理 GET /api/player/settings。
// 字段缺失时返回显式默认值，客户端无需自行兜底。
func (h *APIHandler) GetPlayerSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Load(r.Context())
	if err != nil {
		logger.Error("读取播放偏好失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to load player settings")
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// UpdatePlayerSettingsHandler 处理 PUT /api/player/settings。
// 请求体里省略的字段保持现值不变。
func (h *APIHandler) UpdatePlayerSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Load(r.Context())
	if err != nil {
		logger.Error("读取播放偏好失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to load player settings")
		return
	}

	// 在现值之上解码，实现部分更新
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if settings.Volume < 0 || settings.Volume > 1 {
		respondError(w, http.StatusBadRequest, "volume must be within [0, 1]")
		return
	}
	if settings.PlaybackRate <= 0 {
		respondError(w, http.StatusBadRequest, "playbackRate must be positive")
		return
	}

	if err := h.settings.Save(r.Context(), settings); err != nil {
		logger.Error("写入播放偏好失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to save player settings")
		return
	}

	respondJSON(w, http.StatusOK, settings)
}
