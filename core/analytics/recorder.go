package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FlowieFM/logger"
	"FlowieFM/model"
)

// ErrTrackNotFound 表示心跳指向的曲目不存在，本次心跳不产生任何写入
var ErrTrackNotFound = errors.New("track not found")

// DefaultCoalesceWindow 是合并窗口的默认值
const DefaultCoalesceWindow = 3 * time.Second

// EventStore 是记录器需要的收听事件操作子集
type EventStore interface {
	ExtendLatestWithinWindow(ctx context.Context, trackID int64, window time.Duration, now time.Time) (bool, error)
	Insert(ctx context.Context, event *model.ListeningEvent) error
}

// AggregateStore 维护曲目上的冗余聚合（seconds_listened / last_played）
type AggregateStore interface {
	IncrementListenSeconds(ctx context.Context, trackID int64, now time.Time) (bool, error)
}

// PlaylistStamper 为歌单盖“最近使用”时间戳
type PlaylistStamper interface {
	TouchLastPlayed(ctx context.Context, playlistID int64, now time.Time) error
}

// Recorder 把每秒一次的播放心跳折叠成按会话聚合的收听事件。
//
// 不带合并的逐秒写入会让每一秒收听都占一行，既浪费又没法回答
// “听了多少次”这类问题；合并窗口把墙钟上连续的心跳并进同一条
// 事件，间隔超过窗口的心跳（用户跳转、暂停片刻、切歌后返回）
// 才另起一条。窗口是策略常量而非硬性规则，由配置注入。
type Recorder struct {
	events    EventStore
	tracks    AggregateStore
	playlists PlaylistStamper
	window    time.Duration
	now       func() time.Time // 可注入，便于测试
}

// NewRecorder 创建记录器；window 非正时取默认的 3 秒
func NewRecorder(events EventStore, tracks AggregateStore, playlists PlaylistStamper, window time.Duration) *Recorder {
	if window <= 0 {
		window = DefaultCoalesceWindow
	}
	return &Recorder{
		events:    events,
		tracks:    tracks,
		playlists: playlists,
		window:    window,
		now:       time.Now,
	}
}

// Window 返回当前生效的合并窗口
func (r *Recorder) Window() time.Duration {
	return r.window
}

// RecordTick 处理一次“该曲目仍在播放”的心跳。
//
// 聚合计数先行：这条 UPDATE 同时充当存在性检查，曲目不存在时
// 返回 ErrTrackNotFound 且不再发生任何写入；无论事件是否被合并，
// seconds_listened 每次心跳恰好加一。随后尝试把心跳并入窗口内
// 最近的事件，失败则新建一条 listened_for_seconds = 1 的事件。
// 歌单时间戳是尽力而为的附带动作，失败只记日志。
//
// 并发心跳可能让“找最近事件”彼此错过而多出一行事件，这是可接受
// 的有界误差，收听统计是至少一次的分析信号，不是账本。
func (r *Recorder) RecordTick(ctx context.Context, trackID, playlistID int64) error {
	now := r.now()

	found, err := r.tracks.IncrementListenSeconds(ctx, trackID, now)
	if err != nil {
		return fmt.Errorf("failed to bump listen aggregates for track %d: %w", trackID, err)
	}
	if !found {
		return fmt.Errorf("%w: %d", ErrTrackNotFound, trackID)
	}

	extended, err := r.events.ExtendLatestWithinWindow(ctx, trackID, r.window, now)
	if err != nil {
		return fmt.Errorf("failed to coalesce listening event for track %d: %w", trackID, err)
	}
	if !extended {
		event := &model.ListeningEvent{
			TrackID:            trackID,
			StartedAt:          now,
			ListenedForSeconds: 1,
		}
		if err := r.events.Insert(ctx, event); err != nil {
			return fmt.Errorf("failed to insert listening event for track %d: %w", trackID, err)
		}
	}

	if playlistID > 0 {
		// 只驱动“最近使用的歌单”排序，与上面的写入无事务关联
		if err := r.playlists.TouchLastPlayed(ctx, playlistID, now); err != nil {
			logger.Warn("更新歌单最近播放时间失败",
				logger.Int64("playlistId", playlistID),
				logger.ErrorField(err))
		}
	}

	return nil
}
