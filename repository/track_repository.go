package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"FlowieFM/db"
	"FlowieFM/model"
)

// Track list orderings understood by ListTracks.
const (
	TrackSortRecent  = "recent"
	TrackSortPopular = "popular"
)

// TrackRepository defines the interface for track catalog operations.
type TrackRepository interface {
	CreateTrack(track *model.Track) (int64, error)
	GetTrackByID(id int64) (*model.Track, error)
	ListTracks(sort string, windowDays int) ([]*model.TrackListItem, error)
	DeleteTrack(id int64) error
	// IncrementListenSeconds atomically applies seconds_listened += 1 and
	// last_played = now on the track row. Returns false when the track id
	// does not exist.
	IncrementListenSeconds(ctx context.Context, trackID int64, now time.Time) (bool, error)
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	DB *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository() TrackRepository {
	return &mysqlTrackRepository{DB: db.DB}
}

// CreateTrack adds a new track to the catalog.
func (r *mysqlTrackRepository) CreateTrack(track *model.Track) (int64, error) {
	query := `INSERT INTO tracks (title, artist, album, file_path, file_size, mime_type, duration, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateTrack: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(track.Title, track.Artist, track.Album, track.FilePath, track.FileSize, track.MimeType, track.Duration, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateTrack: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateTrack: %w", err)
	}
	log.Printf("Track created with ID: %d, Title: %s", id, track.Title)
	return id, nil
}

// GetTrackByID retrieves a track by its ID. Returns (nil, nil) when absent.
func (r *mysqlTrackRepository) GetTrackByID(id int64) (*model.Track, error) {
	query := `SELECT id, title, artist, album, file_path, file_size, mime_type, duration, seconds_listened, last_played, created_at, updated_at
	           FROM tracks WHERE id = ?`
	row := r.DB.QueryRow(query, id)

	track := &model.Track{}
	var lastPlayed sql.NullTime
	err := row.Scan(&track.ID, &track.Title, &track.Artist, &track.Album, &track.FilePath, &track.FileSize,
		&track.MimeType, &track.Duration, &track.SecondsListened, &lastPlayed, &track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, fmt.Errorf("failed to scan track by ID %d: %w", id, err)
	}
	if lastPlayed.Valid {
		track.LastPlayed = &lastPlayed.Time
	}
	return track, nil
}

// ListTracks retrieves all tracks with a windowed listening total.
// sort is "recent" (most recently played first) or "popular" (most seconds
// listened within windowDays first); anything else falls back to upload order.
func (r *mysqlTrackRepository) ListTracks(sort string, windowDays int) ([]*model.TrackListItem, error) {
	var order string
	switch sort {
	case TrackSortRecent:
		order = "ORDER BY COALESCE(t.last_played, t.created_at) DESC"
	case TrackSortPopular:
		order = "ORDER BY window_seconds DESC, t.seconds_listened DESC"
	default:
		order = "ORDER BY t.created_at DESC"
	}

	cutoff := time.Time{}
	if windowDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -windowDays)
	}

	query := `SELECT t.id, t.title, t.artist, t.album, t.file_path, t.file_size, t.mime_type, t.duration,
	                 t.seconds_listened, t.last_played, t.created_at, t.updated_at,
	                 COALESCE(SUM(CASE WHEN le.started_at >= ? THEN le.listened_for_seconds ELSE 0 END), 0) AS window_seconds
	           FROM tracks t
	           LEFT JOIN listening_events le ON le.track_id = t.id
	           GROUP BY t.id ` + order
	rows, err := r.DB.Query(query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]*model.TrackListItem, 0)
	for rows.Next() {
		item := &model.TrackListItem{}
		var lastPlayed sql.NullTime
		err := rows.Scan(&item.ID, &item.Title, &item.Artist, &item.Album, &item.FilePath, &item.FileSize,
			&item.MimeType, &item.Duration, &item.SecondsListened, &lastPlayed, &item.CreatedAt, &item.UpdatedAt,
			&item.WindowSeconds)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track in ListTracks: %w", err)
		}
		if lastPlayed.Valid {
			item.LastPlayed = &lastPlayed.Time
		}
		tracks = append(tracks, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in ListTracks: %w", err)
	}

	return tracks, nil
}

// DeleteTrack removes a track; listening events cascade away with it.
func (r *mysqlTrackRepository) DeleteTrack(id int64) error {
	query := `DELETE FROM tracks WHERE id = ?`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for DeleteTrack: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(id); err != nil {
		return fmt.Errorf("failed to execute DeleteTrack for track ID %d: %w", id, err)
	}
	return nil
}

// IncrementListenSeconds bumps the denormalized listening aggregates.
// The single UPDATE doubles as the existence check: zero affected rows
// means the track id is unknown.
func (r *mysqlTrackRepository) IncrementListenSeconds(ctx context.Context, trackID int64, now time.Time) (bool, error) {
	query := `UPDATE tracks SET seconds_listened = seconds_listened + 1, last_played = ? WHERE id = ?`
	res, err := r.DB.ExecContext(ctx, query, now, trackID)
	if err != nil {
		return false, fmt.Errorf("failed to execute IncrementListenSeconds for track ID %d: %w", trackID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows for IncrementListenSeconds: %w", err)
	}
	return affected > 0, nil
}
