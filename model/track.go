package model

import "time"

// Track represents an audio track in the music library.
// SecondsListened and LastPlayed are denormalized aggregates maintained by
// the analytics recorder so "most played" / "recently played" ordering is an
// O(1) read instead of an aggregation over listening_events.
type Track struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Artist          string     `json:"artist"`
	Album           string     `json:"album"`
	FilePath        string     `json:"-"` // Object key in the blob store, not exposed in API directly
	FileSize        int64      `json:"fileSize"`
	MimeType        string     `json:"mimeType"`
	Duration        float32    `json:"duration"` // Duration in seconds
	SecondsListened int64      `json:"secondsListened"`
	LastPlayed      *time.Time `json:"lastPlayed"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// TrackListItem is a Track plus the windowed listening total used for
// "popular in the last N days" ordering.
type TrackListItem struct {
	Track
	WindowSeconds int64 `json:"windowSeconds"`
}
