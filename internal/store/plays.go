package store

import (
	"context"
	"fmt"
	"time"
)

// SongPlays is the number of plays a song received within a time range.
type SongPlays struct {
	SongID int64
	Plays  int64
}

// RecentPlay pairs a song with the caller's latest play of it.
type RecentPlay struct {
	Song     Song
	PlayedAt time.Time
}

// AppendPlayEvent records a single playback in the history table.
func (s *Store) AppendPlayEvent(ctx context.Context, userID, songID int64, playedAt time.Time) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO play_events (user_id, song_id, played_at)
		VALUES ($1, $2, $3)
	`, userID, songID, playedAt.UTC()); err != nil {
		return fmt.Errorf("insert play event: %w", err)
	}
	return nil
}

// PlayCounts aggregates play events per existing song within [from, to).
// Songs without plays in the range are absent from the result.
func (s *Store) PlayCounts(ctx context.Context, from, to time.Time) ([]SongPlays, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pe.song_id, COUNT(*)
		FROM play_events pe
		INNER JOIN songs s ON s.id = pe.song_id
		WHERE pe.played_at >= $1 AND pe.played_at < $2
		GROUP BY pe.song_id
		ORDER BY pe.song_id ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("query play counts: %w", err)
	}
	defer rows.Close()

	var counts []SongPlays
	for rows.Next() {
		var c SongPlays
		if err := rows.Scan(&c.SongID, &c.Plays); err != nil {
			return nil, fmt.Errorf("scan play count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate play counts: %w", err)
	}

	return counts, nil
}

// DistinctListeners counts users with at least one play within [from, to).
func (s *Store) DistinctListeners(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT user_id)
		FROM play_events
		WHERE played_at >= $1 AND played_at < $2
	`, from.UTC(), to.UTC()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count listeners: %w", err)
	}
	return count, nil
}

// RecentlyPlayed returns the user's last distinct songs, newest play first.
func (s *Store) RecentlyPlayed(ctx context.Context, userID int64, limit int) ([]RecentPlay, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.artist, s.album, s.duration, s.source_url, s.thumbnail_url,
		       s.play_count, s.liked, s.shared, s.owner_id, s.created_at, s.updated_at,
		       latest.played_at
		FROM (
			SELECT song_id, MAX(played_at) AS played_at
			FROM play_events
			WHERE user_id = $1
			GROUP BY song_id
		) latest
		INNER JOIN songs s ON s.id = latest.song_id
		ORDER BY latest.played_at DESC, s.id ASC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recently played: %w", err)
	}
	defer rows.Close()

	var plays []RecentPlay
	for rows.Next() {
		var (
			play     RecentPlay
			playedAt time.Time
		)
		song, err := scanSong(scanFunc(func(dest ...any) error {
			return rows.Scan(append(dest, &playedAt)...)
		}))
		if err != nil {
			return nil, fmt.Errorf("scan recently played: %w", err)
		}
		play.Song = song
		play.PlayedAt = playedAt
		plays = append(plays, play)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recently played: %w", err)
	}

	return plays, nil
}

type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error {
	return f(dest...)
}
