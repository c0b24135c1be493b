package repository

import (
	"context"
	"fmt"
	"time"

	"FlowieFM/db"
	"FlowieFM/model"

	"gorm.io/gorm"
)

// ListeningEventRepository 定义收听事件的数据操作
// 该仓库使用 GORM 实现（较新的模块统一走 GORM）
type ListeningEventRepository interface {
	// ExtendLatestWithinWindow 尝试把一次心跳并入最近的收听会话：
	// 若该曲目最近事件的预计结束时间（started_at + listened_for_seconds）
	// 距 now 不超过 window，则将其 listened_for_seconds 加一。
	// 返回是否有事件被延长。
	ExtendLatestWithinWindow(ctx context.Context, trackID int64, window time.Duration, now time.Time) (bool, error)
	// Insert 写入一条新的收听事件
	Insert(ctx context.Context, event *model.ListeningEvent) error
	// StatsByTrack 汇总某曲目的全部收听会话
	StatsByTrack(ctx context.Context, trackID int64) (*model.ListeningStats, error)
}

type gormListeningEventRepository struct {
	db *gorm.DB
}

// NewGormListeningEventRepository creates a new instance backed by the shared GORM connection.
func NewGormListeningEventRepository() ListeningEventRepository {
	return &gormListeningEventRepository{db: db.GormDB}
}

// ExtendLatestWithinWindow 以单条有条件 UPDATE 实现“延长或放弃”。
// 单条语句保证并发心跳下不会破坏任何计数；两个并发心跳最坏情况是
// 各自新建一行事件，这是可接受的有界误差。
func (r *gormListeningEventRepository) ExtendLatestWithinWindow(ctx context.Context, trackID int64, window time.Duration, now time.Time) (bool, error) {
	windowSeconds := int64(window / time.Second)

	// MySQL 允许 UPDATE ... ORDER BY ... LIMIT 1，恰好表达
	// “只延长最近的那一条”
	result := r.db.WithContext(ctx).Exec(`
		UPDATE listening_events
		SET listened_for_seconds = listened_for_seconds + 1
		WHERE track_id = ?
		  AND DATE_ADD(started_at, INTERVAL listened_for_seconds SECOND) >= DATE_SUB(?, INTERVAL ? SECOND)
		ORDER BY started_at DESC
		LIMIT 1`,
		trackID, now, windowSeconds)
	if result.Error != nil {
		return false, fmt.Errorf("failed to extend listening event for track %d: %w", trackID, result.Error)
	}

	return result.RowsAffected > 0, nil
}

// Insert 写入一条新的收听事件
func (r *gormListeningEventRepository) Insert(ctx context.Context, event *model.ListeningEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to insert listening event for track %d: %w", event.TrackID, err)
	}
	return nil
}

type listeningStatsRow struct {
	ListenCount          int64
	TotalSeconds         int64
	AvgSecondsPerSession float64
	FirstListen          *time.Time
	LastListen           *time.Time
}

// StatsByTrack 汇总某曲目的全部收听会话
func (r *gormListeningEventRepository) StatsByTrack(ctx context.Context, trackID int64) (*model.ListeningStats, error) {
	var row listeningStatsRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS listen_count,
		       COALESCE(SUM(listened_for_seconds), 0) AS total_seconds,
		       COALESCE(AVG(listened_for_seconds), 0) AS avg_seconds_per_session,
		       MIN(started_at) AS first_listen,
		       MAX(started_at) AS last_listen
		FROM listening_events
		WHERE track_id = ?`,
		trackID).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query listening stats for track %d: %w", trackID, err)
	}

	return &model.ListeningStats{
		ListenCount:          row.ListenCount,
		TotalSeconds:         row.TotalSeconds,
		AvgSecondsPerSession: row.AvgSecondsPerSession,
		FirstListen:          row.FirstListen,
		LastListen:           row.LastListen,
	}, nil
}
