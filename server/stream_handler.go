package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"FlowieFM/logger"
	"FlowieFM/repository"
	"FlowieFM/storage"

	"github.com/gorilla/mux"
)

// StreamHandler 处理音频字节流请求，支持HTTP字节范围语义。
// 该组件是纯投影：从 (曲目ID, 范围) 到字节，除读取外没有任何副作用。
type StreamHandler struct {
	tracks repository.TrackRepository
	blobs  storage.BlobStore
}

// NewStreamHandler 创建 StreamHandler 实例
func NewStreamHandler(tracks repository.TrackRepository, blobs storage.BlobStore) *StreamHandler {
	return &StreamHandler{tracks: tracks, blobs: blobs}
}

// HandleStream 处理 GET /tracks/{id}/stream。
// 无 Range 头返回完整对象（200）；带 Range 头返回对应切片（206）；
// 曲目不存在返回 404；范围超出对象边界返回 416。
// 响应体始终从对象存储流式拷贝，不整块缓冲。
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	trackID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || trackID <= 0 {
		http.Error(w, "Track not found", http.StatusNotFound)
		return
	}

	track, err := h.tracks.GetTrackByID(trackID)
	if err != nil {
		logger.Error("查询曲目失败",
			logger.Int64("trackId", trackID),
			logger.ErrorField(err))
		http.Error(w, "Failed to resolve track", http.StatusInternalServerError)
		return
	}
	if track == nil {
		http.Error(w, "Track not found", http.StatusNotFound)
		return
	}

	size := track.FileSize
	rangeHeader := r.Header.Get("Range")

	if rangeHeader == "" {
		h.serveFull(w, r, track.FilePath, track.MimeType, size, trackID)
		return
	}

	start, end, err := parseRange(rangeHeader, size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	h.serveRange(w, r, track.FilePath, track.MimeType, size, start, end, trackID)
}

// serveFull 返回完整对象
func (h *StreamHandler) serveFull(w http.ResponseWriter, r *http.Request, objectKey, mimeType string, size, trackID int64) {
	object, err := h.blobs.Read(r.Context(), objectKey)
	if err != nil {
		h.writeBlobError(w, err, trackID)
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, object); err != nil {
		// 响应头已发出，只能记录
		logger.Warn("写入音频流失败",
			logger.Int64("trackId", trackID),
			logger.ErrorField(err))
	}
}

// serveRange 返回 [start, end] 闭区间的切片
func (h *StreamHandler) serveRange(w http.ResponseWriter, r *http.Request, objectKey, mimeType string, size, start, end, trackID int64) {
	chunkSize := end - start + 1

	object, err := h.blobs.ReadRange(r.Context(), objectKey, start, chunkSize)
	if err != nil {
		h.writeBlobError(w, err, trackID)
		return
	}
	defer object.Close()

	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Content-Length", strconv.FormatInt(chunkSize, 10))
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusPartialContent)

	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("写入音频流失败",
			logger.Int64("trackId", trackID),
			logger.Int64("start", start),
			logger.Int64("end", end),
			logger.ErrorField(err))
	}
}

// writeBlobError 把对象存储错误映射为HTTP状态码
func (h *StreamHandler) writeBlobError(w http.ResponseWriter, err error, trackID int64) {
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		http.Error(w, "Track not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrRangeNotSatisfiable):
		http.Error(w, "Range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
	default:
		logger.Error("读取对象存储失败",
			logger.Int64("trackId", trackID),
			logger.ErrorField(err))
		http.Error(w, "Failed to stream track", http.StatusInternalServerError)
	}
}

// parseRange 解析 "bytes=<start>-[<end>]" 形式的Range头。
// end 省略时取 size-1，超出对象末尾时收敛到 size-1。
// 多范围请求（bytes=a-b,c-d）不支持，只取第一个范围，这是有意的
// 简化而非疏漏；后缀范围（bytes=-N）同样不支持。
// start 越界、end < start 或无法解析时返回错误，由调用方映射为 416。
func parseRange(header string, size int64) (int64, int64, error) {
	spec := strings.TrimPrefix(header, "bytes=")
	if spec == header {
		return 0, 0, fmt.Errorf("unsupported range unit in %q", header)
	}

	// 已知限制：只处理第一个范围
	if i := strings.Index(spec, ","); i >= 0 {
		spec = spec[:i]
	}

	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed range spec %q", spec)
	}

	start, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed range start in %q: %w", spec, err)
	}

	end := size - 1
	if raw := strings.TrimSpace(parts[1]); raw != "" {
		end, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("malformed range end in %q: %w", spec, err)
		}
	}
	if end > size-1 {
		end = size - 1
	}

	if start < 0 || start >= size || end < start {
		return 0, 0, fmt.Errorf("range %d-%d outside of [0, %d]", start, end, size-1)
	}

	return start, end, nil
}
