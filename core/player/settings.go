package player

import "context"

// Settings 是跨会话保留的播放偏好
type Settings struct {
	Volume       float64 `json:"volume"`
	PlaybackRate float64 `json:"playbackRate"`
	Shuffle      bool    `json:"shuffle"`
	Repeat       bool    `json:"repeat"`
}

// DefaultSettings 返回显式的回退默认值
func DefaultSettings() Settings {
	return Settings{
		Volume:       1.0,
		PlaybackRate: 1.0,
		Shuffle:      false,
		Repeat:       false,
	}
}

// SettingsStore 持久化播放偏好。读取发生在引擎启动时，
// 写入是尽力而为的（防抖后异步执行），失败只记录日志，
// 绝不打断播放。
type SettingsStore interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, settings Settings) error
}
