package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Song is a song row as stored in the database.
type Song struct {
	ID           int64
	Title        string
	Artist       string
	Album        *string
	Duration     int
	SourceURL    string
	ThumbnailURL string
	PlayCount    int64
	Liked        bool
	Shared       bool
	OwnerID      *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const songColumns = `id, title, artist, album, duration, source_url, thumbnail_url,
		       play_count, liked, shared, owner_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (Song, error) {
	var (
		song    Song
		album   sql.NullString
		ownerID sql.NullInt64
	)
	if err := row.Scan(
		&song.ID, &song.Title, &song.Artist, &album, &song.Duration, &song.SourceURL, &song.ThumbnailURL,
		&song.PlayCount, &song.Liked, &song.Shared, &ownerID, &song.CreatedAt, &song.UpdatedAt,
	); err != nil {
		return Song{}, err
	}
	if album.Valid {
		song.Album = &album.String
	}
	if ownerID.Valid {
		song.OwnerID = &ownerID.Int64
	}
	return song, nil
}

// CreateSong inserts a song and returns it with its generated fields.
func (s *Store) CreateSong(ctx context.Context, song Song) (Song, error) {
	song.Title = strings.TrimSpace(song.Title)
	song.Artist = strings.TrimSpace(song.Artist)
	if song.Title == "" || song.Artist == "" {
		return Song{}, fmt.Errorf("title and artist are required")
	}
	if song.Duration < 0 {
		return Song{}, fmt.Errorf("duration must be non-negative")
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO songs (title, artist, album, duration, source_url, thumbnail_url, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+songColumns,
		song.Title, song.Artist, song.Album, song.Duration, song.SourceURL, song.ThumbnailURL, song.OwnerID)
	created, err := scanSong(row)
	if err != nil {
		return Song{}, fmt.Errorf("insert song: %w", err)
	}
	return created, nil
}

// GetSong returns a single song by ID.
func (s *Store) GetSong(ctx context.Context, id int64) (Song, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE id = $1`, id)
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Song{}, ErrSongNotFound
	}
	if err != nil {
		return Song{}, fmt.Errorf("get song: %w", err)
	}
	return song, nil
}

// SongsByIDs returns the songs that still exist among ids, keyed by id.
func (s *Store) SongsByIDs(ctx context.Context, ids []int64) (map[int64]Song, error) {
	songs := make(map[int64]Song, len(ids))
	if len(ids) == 0 {
		return songs, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs[song.ID] = song
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}

	return songs, nil
}

// IncrementPlayCount adds one play to the song's cumulative counter.
// The increment happens in the database so concurrent plays are never lost.
func (s *Store) IncrementPlayCount(ctx context.Context, songID int64) (Song, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE songs
		SET play_count = play_count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING `+songColumns, songID)
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Song{}, ErrSongNotFound
	}
	if err != nil {
		return Song{}, fmt.Errorf("increment play count: %w", err)
	}
	return song, nil
}
