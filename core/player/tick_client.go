package player

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"FlowieFM/logger"
)

// AnalyticsClient 把收听心跳上报到分析端点（POST /analytics/listen）
type AnalyticsClient struct {
	baseURL string
	client  *http.Client
}

// listenRequest 是心跳请求体，字段名与分析端点约定一致
type listenRequest struct {
	TrackID    int64 `json:"track_id"`
	PlaylistID int64 `json:"playlist_id,omitempty"`
}

// NewAnalyticsClient 创建客户端；超时设为心跳间隔的几倍，
// 避免慢请求无限堆积
func NewAnalyticsClient(baseURL string) *AnalyticsClient {
	return &AnalyticsClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// RecordListen 上报一次心跳，非 2xx 状态视为错误
func (c *AnalyticsClient) RecordListen(trackID, playlistID int64) error {
	body, err := json.Marshal(listenRequest{TrackID: trackID, PlaylistID: playlistID})
	if err != nil {
		return fmt.Errorf("序列化心跳请求失败: %w", err)
	}

	resp, err := c.client.Post(c.baseURL+"/analytics/listen", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("上报心跳失败: %w", err)
	}
	defer resp.Body.Close()

	// 读完响应体以便复用连接
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("上报心跳返回异常状态码: %d", resp.StatusCode)
	}
	return nil
}

// TickFunc 返回供 ListenTicker 使用的心跳函数。
// 收听统计是尽力而为的信号：失败只记日志，绝不向上传播。
func (c *AnalyticsClient) TickFunc() TickFunc {
	return func(trackID, playlistID int64) {
		if err := c.RecordListen(trackID, playlistID); err != nil {
			logger.Warn("收听心跳上报失败",
				logger.Int64("trackId", trackID),
				logger.ErrorField(err))
		}
	}
}
