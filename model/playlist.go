package model

import "time"

// Playlist is a named, ordered collection of tracks. LastPlayed is stamped
// best-effort by the analytics recorder and only drives "recently used
// playlist" ordering.
type Playlist struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	LastPlayed *time.Time `json:"lastPlayed"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
