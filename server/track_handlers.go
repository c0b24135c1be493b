package server

import (
	"net/http"
	"strconv"

	"FlowieFM/logger"
	"FlowieFM/repository"

	"github.com/gorilla/mux"
)

// 智能歌单默认的热度统计窗口（天）
const defaultPopularWindowDays = 30

// GetTracksHandler 处理 GET /api/tracks。
// 查询参数 sort=recent|popular 控制排序，days 控制热度统计窗口，
// 返回的每条曲目都带有窗口内收听秒数（windowSeconds）。
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	sort := r.URL.Query().Get("sort")
	if sort == "" {
		sort = repository.TrackSortRecent
	}

	windowDays := defaultPopularWindowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			windowDays = v
		}
	}

	tracks, err := h.trackRepo.ListTracks(sort, windowDays)
	if err != nil {
		logger.Error("查询曲目列表失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list tracks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}

// GetTrackHandler 处理 GET /api/tracks/{id}
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || trackID <= 0 {
		respondError(w, http.StatusNotFound, "Track not found")
		return
	}

	track, err := h.trackRepo.GetTrackByID(trackID)
	if err != nil {
		logger.Error("查询曲目失败",
			logger.Int64("trackId", trackID),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get track")
		return
	}
	if track == nil {
		respondError(w, http.StatusNotFound, "Track not found")
		return
	}

	respondJSON(w, http.StatusOK, track)
}
