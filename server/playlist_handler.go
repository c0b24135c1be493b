package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"FlowieFM/logger"

	"github.com/gorilla/mux"
)

// GetPlaylistsHandler 处理 GET /api/playlists，
// 最近使用过的歌单排在前面
func (h *APIHandler) GetPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlistRepo.ListPlaylists()
	if err != nil {
		logger.Error("查询歌单列表失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list playlists")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"playlists": playlists})
}

// CreatePlaylistHandler 处理 POST /api/playlists
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "Playlist name is required")
		return
	}

	id, err := h.playlistRepo.CreatePlaylist(name)
	if err != nil {
		logger.Error("创建歌单失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create playlist")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"id": id, "name": name})
}

// GetPlaylistTracksHandler 处理 GET /api/playlists/{id}/tracks
func (h *APIHandler) GetPlaylistTracksHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := h.resolvePlaylist(w, r)
	if !ok {
		return
	}

	tracks, err := h.playlistRepo.GetPlaylistTracks(playlistID)
	if err != nil {
		logger.Error("查询歌单曲目失败",
			logger.Int64("playlistId", playlistID),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list playlist tracks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}

// AddPlaylistTrackHandler 处理 POST /api/playlists/{id}/tracks
func (h *APIHandler) AddPlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := h.resolvePlaylist(w, r)
	if !ok {
		return
	}

	var req struct {
		TrackID int64 `json:"track_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TrackID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid track_id")
		return
	}

	track, err := h.trackRepo.GetTrackByID(req.TrackID)
	if err != nil {
		logger.Error("查询曲目失败",
			logger.Int64("trackId", req.TrackID),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to resolve track")
		return
	}
	if track == nil {
		respondError(w, http.StatusNotFound, "Track not found")
		return
	}

	if err := h.playlistRepo.AddTrackToPlaylist(playlistID, req.TrackID); err != nil {
		logger.Error("添加歌单曲目失败",
			logger.Int64("playlistId", playlistID),
			logger.Int64("trackId", req.TrackID),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to add track to playlist")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Track added to playlist successfully"})
}

// RemovePlaylistTrackHandler 处理 DELETE /api/playlists/{id}/tracks/{track_id}
func (h *APIHandler) RemovePlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := h.resolvePlaylist(w, r)
	if !ok {
		return
	}

	trackID, err := strconv.ParseInt(mux.Vars(r)["track_id"], 10, 64)
	if err != nil || trackID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid track_id")
		return
	}

	if err := h.playlistRepo.RemoveTrackFromPlaylist(playlistID, trackID); err != nil {
		logger.Error("移除歌单曲目失败",
			logger.Int64("playlistId", playlistID),
			logger.Int64("trackId", trackID),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to remove track from playlist")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Track removed from playlist successfully"})
}

// resolvePlaylist 解析路径中的歌单ID并确认其存在
func (h *APIHandler) resolvePlaylist(w http.ResponseWriter, r *http.Request) (int64, bool) {
	playlistID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || playlistID <= 0 {
		respondError(w, http.StatusNotFound, "Playlist not found")
		return 0, false
	}

	playlist, err := h.playlistRepo.GetPlaylistByID(playlistID)
	if err != nil {
		logger.Error("查询歌单失败",
			logger.Int64("playlistId", playlistID),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to resolve playlist")
		return 0, false
	}
	if playlist == nil {
		respondError(w, http.StatusNotFound, "Playlist not found")
		return 0, false
	}

	return playlistID, true
}
