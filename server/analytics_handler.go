package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"FlowieFM/core/analytics"
	"FlowieFM/logger"

	"github.com/gorilla/mux"
)

// listenRequest 是收听心跳的请求体
type listenRequest struct {
	TrackID    *int64 `json:"track_id"`
	PlaylistID *int64 `json:"playlist_id"`
}

// ListenHandler 处理 POST /analytics/listen。
// 播放器在曲目可听地播放时约每秒调用一次；记录失败对播放永远是
// 非致命的，调用方视其为尽力而为。
func (h *APIHandler) ListenHandler(w http.ResponseWriter, r *http.Request) {
	var req listenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.TrackID == nil || *req.TrackID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid track_id")
		return
	}
	if req.PlaylistID != nil && *req.PlaylistID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid playlist_id")
		return
	}

	var playlistID int64
	if req.PlaylistID != nil {
		playlistID = *req.PlaylistID
	}

	if err := h.recorder.RecordTick(r.Context(), *req.TrackID, playlistID); err != nil {
		if errors.Is(err, analytics.ErrTrackNotFound) {
			respondError(w, http.StatusNotFound, "Track not found")
			return
		}
		logger.Error("记录收听事件失败",
			logger.Int64("trackId", *req.TrackID),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to record listening event")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListeningStatsHandler 处理 GET /analytics/stats/{track_id}，
// 返回该曲目全部收听会话的汇总
func (h *APIHandler) ListeningStatsHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := strconv.ParseInt(mux.Vars(r)["track_id"], 10, 64)
	if err != nil || trackID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid track_id")
		return
	}

	stats, err := h.eventRepo.StatsByTrack(r.Context(), trackID)
	if err != nil {
		logger.Error("查询收听统计失败",
			logger.Int64("trackId", trackID),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch listening stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
