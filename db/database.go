package db

import (
	"database/sql"
	"fmt"
	"log"

	"FlowieFM/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createTracksTable(); err != nil {
		return err
	}
	if err := createListeningEventsTable(); err != nil {
		return err
	}
	if err := createPlaylistsTable(); err != nil {
		return err
	}
	if err := createPlaylistTracksTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createTracksTable() error {
	// seconds_listened and last_played are denormalized aggregates; the
	// analytics recorder bumps them on every tick.
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		id INT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		artist VARCHAR(255),
		album VARCHAR(255),
		file_path VARCHAR(767) NOT NULL,
		file_size BIGINT NOT NULL,
		mime_type VARCHAR(127) NOT NULL DEFAULT 'audio/mpeg',
		duration FLOAT,
		seconds_listened BIGINT NOT NULL DEFAULT 0,
		last_played TIMESTAMP NULL DEFAULT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT uq_track_filepath UNIQUE (file_path)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create tracks table: %w", err)
	}
	log.Println("Tracks table initialized successfully (or already exists).")
	return nil
}

func createListeningEventsTable() error {
	// Event rows cascade away with their track; this subsystem itself never
	// deletes them.
	query := `
	CREATE TABLE IF NOT EXISTS listening_events (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		track_id INT NOT NULL,
		started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		listened_for_seconds BIGINT NOT NULL DEFAULT 0,
		CONSTRAINT fk_event_track FOREIGN KEY (track_id) REFERENCES tracks(id) ON DELETE CASCADE,
		INDEX idx_events_track_started (track_id, started_at)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create listening_events table: %w", err)
	}
	log.Println("Listening events table initialized successfully (or already exists).")
	return nil
}

func createPlaylistsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS playlists (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		last_played TIMESTAMP NULL DEFAULT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create playlists table: %w", err)
	}
	log.Println("Playlists table initialized successfully (or already exists).")
	return nil
}

func createPlaylistTracksTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS playlist_tracks (
		playlist_id INT NOT NULL,
		track_id INT NOT NULL,
		position INT NOT NULL DEFAULT 0,
		added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (playlist_id, track_id),
		CONSTRAINT fk_pt_playlist FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		CONSTRAINT fk_pt_track FOREIGN KEY (track_id) REFERENCES tracks(id) ON DELETE CASCADE
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create playlist_tracks table: %w", err)
	}
	log.Println("Playlist tracks table initialized successfully (or already exists).")
	return nil
}
