package model

import "time"

// ListeningEvent represents one contiguous listening session for a track.
// At most one "open" event per track is extended at any instant: a tick that
// arrives within the coalescing window of the event's projected end
// (StartedAt + ListenedForSeconds) extends it, anything later starts a new
// event. Rows are never deleted here; removal cascades from track deletion.
type ListeningEvent struct {
	ID                 int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TrackID            int64     `gorm:"column:track_id" json:"trackId"`
	StartedAt          time.Time `gorm:"column:started_at" json:"startedAt"`
	ListenedForSeconds int64     `gorm:"column:listened_for_seconds" json:"listenedForSeconds"`
}

// TableName 指定GORM使用的表名
func (ListeningEvent) TableName() string {
	return "listening_events"
}

// ListeningStats summarizes all sessions of one track.
type ListeningStats struct {
	ListenCount          int64      `json:"listenCount"`
	TotalSeconds         int64      `json:"totalSeconds"`
	AvgSecondsPerSession float64    `json:"avgSecondsPerSession"`
	FirstListen          *time.Time `json:"firstListen"`
	LastListen           *time.Time `json:"lastListen"`
}
