package cache

import (
	"context"
	"fmt"
	"strconv"

	"FlowieFM/core/player"

	"github.com/go-redis/redis/v8"
)

// playerSettingsKey 是播放偏好在Redis中的哈希键
const playerSettingsKey = "player:settings"

// PlayerSettingsCache 用Redis哈希持久化播放偏好（音量、倍速、
// 随机、循环），实现 player.SettingsStore。
// 启动时读取一次，字段缺失或解析失败时退回显式默认值。
type PlayerSettingsCache struct {
	client *redis.Client
}

// NewPlayerSettingsCache 创建基于Redis的偏好存储
func NewPlayerSettingsCache(client *redis.Client) *PlayerSettingsCache {
	return &PlayerSettingsCache{client: client}
}

// Load 读取播放偏好，缺失的字段使用默认值
func (c *PlayerSettingsCache) Load(ctx context.Context) (player.Settings, error) {
	settings := player.DefaultSettings()

	values, err := c.client.HGetAll(ctx, playerSettingsKey).Result()
	if err != nil {
		return settings, fmt.Errorf("failed to load player settings: %w", err)
	}

	if raw, ok := values["volume"]; ok {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			settings.Volume = v
		}
	}
	if raw, ok := values["playbackRate"]; ok {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			settings.PlaybackRate = v
		}
	}
	if raw, ok := values["shuffle"]; ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			settings.Shuffle = v
		}
	}
	if raw, ok := values["repeat"]; ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			settings.Repeat = v
		}
	}

	return settings, nil
}

// Save 写入播放偏好
func (c *PlayerSettingsCache) Save(ctx context.Context, settings player.Settings) error {
	err := c.client.HSet(ctx, playerSettingsKey, map[string]interface{}{
		"volume":       strconv.FormatFloat(settings.Volume, 'f', -1, 64),
		"playbackRate": strconv.FormatFloat(settings.PlaybackRate, 'f', -1, 64),
		"shuffle":      strconv.FormatBool(settings.Shuffle),
		"repeat":       strconv.FormatBool(settings.Repeat),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to save player settings: %w", err)
	}
	return nil
}
