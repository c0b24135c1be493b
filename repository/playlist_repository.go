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

// PlaylistRepository defines the interface for playlist data operations.
type PlaylistRepository interface {
	CreatePlaylist(name string) (int64, error)
	GetPlaylistByID(id int64) (*model.Playlist, error)
	// ListPlaylists returns playlists with the most recently used first.
	ListPlaylists() ([]*model.Playlist, error)
	GetPlaylistTracks(playlistID int64) ([]*model.Track, error)
	AddTrackToPlaylist(playlistID, trackID int64) error
	RemoveTrackFromPlaylist(playlistID, trackID int64) error
	// TouchLastPlayed stamps the playlist's last_played timestamp.
	// Best-effort signal for "recently used playlist" ordering only.
	TouchLastPlayed(ctx context.Context, playlistID int64, now time.Time) error
}

// mysqlPlaylistRepository implements PlaylistRepository for MySQL.
type mysqlPlaylistRepository struct {
	DB *sql.DB
}

// NewMySQLPlaylistRepository creates a new instance of mysqlPlaylistRepository.
func NewMySQLPlaylistRepository() PlaylistRepository {
	return &mysqlPlaylistRepository{DB: db.DB}
}

// CreatePlaylist adds a new named playlist.
func (r *mysqlPlaylistRepository) CreatePlaylist(name string) (int64, error) {
	query := `INSERT INTO playlists (name, created_at, updated_at) VALUES (?, ?, ?)`
	now := time.Now()
	res, err := r.DB.Exec(query, name, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreatePlaylist: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreatePlaylist: %w", err)
	}
	log.Printf("Playlist created with ID: %d, Name: %s", id, name)
	return id, nil
}

// GetPlaylistByID retrieves a playlist by its ID. Returns (nil, nil) when absent.
func (r *mysqlPlaylistRepository) GetPlaylistByID(id int64) (*model.Playlist, error) {
	query := `SELECT id, name, last_played, created_at, updated_at FROM playlists WHERE id = ?`
	row := r.DB.QueryRow(query, id)

	playlist := &model.Playlist{}
	var lastPlayed sql.NullTime
	err := row.Scan(&playlist.ID, &playlist.Name, &lastPlayed, &playlist.CreatedAt, &playlist.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Playlist not found
		}
		return nil, fmt.Errorf("failed to scan playlist by ID %d: %w", id, err)
	}
	if lastPlayed.Valid {
		playlist.LastPlayed = &lastPlayed.Time
	}
	return playlist, nil
}

// ListPlaylists returns playlists ordered by most recent use.
func (r *mysqlPlaylistRepository) ListPlaylists() ([]*model.Playlist, error) {
	query := `SELECT id, name, last_played, created_at, updated_at FROM playlists
	           ORDER BY COALESCE(last_played, updated_at) DESC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]*model.Playlist, 0)
	for rows.Next() {
		playlist := &model.Playlist{}
		var lastPlayed sql.NullTime
		if err := rows.Scan(&playlist.ID, &playlist.Name, &lastPlayed, &playlist.CreatedAt, &playlist.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist in ListPlaylists: %w", err)
		}
		if lastPlayed.Valid {
			playlist.LastPlayed = &lastPlayed.Time
		}
		playlists = append(playlists, playlist)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in ListPlaylists: %w", err)
	}

	return playlists, nil
}

// GetPlaylistTracks returns the playlist's tracks in membership order.
func (r *mysqlPlaylistRepository) GetPlaylistTracks(playlistID int64) ([]*model.Track, error) {
	query := `SELECT t.id, t.title, t.artist, t.album, t.file_path, t.file_size, t.mime_type, t.duration,
	                 t.seconds_listened, t.last_played, t.created_at, t.updated_at
	           FROM playlist_tracks pt
	           JOIN tracks t ON t.id = pt.track_id
	           WHERE pt.playlist_id = ?
	           ORDER BY pt.position ASC, pt.added_at ASC`
	rows, err := r.DB.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks for playlist ID %d: %w", playlistID, err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track := &model.Track{}
		var lastPlayed sql.NullTime
		err := rows.Scan(&track.ID, &track.Title, &track.Artist, &track.Album, &track.FilePath, &track.FileSize,
			&track.MimeType, &track.Duration, &track.SecondsListened, &lastPlayed, &track.CreatedAt, &track.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track in GetPlaylistTracks: %w", err)
		}
		if lastPlayed.Valid {
			track.LastPlayed = &lastPlayed.Time
		}
		tracks = append(tracks, track)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetPlaylistTracks: %w", err)
	}

	return tracks, nil
}

// AddTrackToPlaylist appends a track to the end of a playlist.
func (r *mysqlPlaylistRepository) AddTrackToPlaylist(playlistID, trackID int64) error {
	query := `INSERT INTO playlist_tracks (playlist_id, track_id, position, added_at)
	           SELECT ?, ?, COALESCE(MAX(position) + 1, 0), ? FROM playlist_tracks WHERE playlist_id = ?`
	if _, err := r.DB.Exec(query, playlistID, trackID, time.Now(), playlistID); err != nil {
		return fmt.Errorf("failed to add track %d to playlist %d: %w", trackID, playlistID, err)
	}
	return nil
}

// RemoveTrackFromPlaylist removes a track from a playlist.
func (r *mysqlPlaylistRepository) RemoveTrackFromPlaylist(playlistID, trackID int64) error {
	query := `DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?`
	if _, err := r.DB.Exec(query, playlistID, trackID); err != nil {
		return fmt.Errorf("failed to remove track %d from playlist %d: %w", trackID, playlistID, err)
	}
	return nil
}

// TouchLastPlayed stamps the playlist's last_played timestamp.
func (r *mysqlPlaylistRepository) TouchLastPlayed(ctx context.Context, playlistID int64, now time.Time) error {
	query := `UPDATE playlists SET last_played = ? WHERE id = ?`
	if _, err := r.DB.ExecContext(ctx, query, now, playlistID); err != nil {
		return fmt.Errorf("failed to touch last_played for playlist %d: %w", playlistID, err)
	}
	return nil
}
