package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"spinchart/internal/store"
)

type demoSong struct {
	Title    string
	Artist   string
	Album    string
	Duration int
}

var demoSongs = []demoSong{
	{Title: "Roygbiv", Artist: "Boards of Canada", Album: "Music Has the Right to Children", Duration: 151},
	{Title: "Teardrop", Artist: "Massive Attack", Album: "Mezzanine", Duration: 330},
	{Title: "Glory Box", Artist: "Portishead", Album: "Dummy", Duration: 306},
	{Title: "No Surprises", Artist: "Radiohead", Album: "OK Computer", Duration: 229},
	{Title: "Les Nuits", Artist: "Nightmares on Wax", Album: "Carboot Soul", Duration: 425},
	{Title: "Kerala", Artist: "Bonobo", Album: "Migration", Duration: 230},
	{Title: "Says", Artist: "Nils Frahm", Album: "Spaces", Duration: 528},
	{Title: "Them Changes", Artist: "Thundercat", Album: "Drunk", Duration: 188},
}

// bootstrapDemoData creates the demo account and, on an empty catalogue, a set
// of songs with two weeks of play history.
func bootstrapDemoData(ctx context.Context, db *sql.DB, dataStore *store.Store) error {
	if _, err := dataStore.CreateUser(ctx, "demo", "demo123"); err != nil && !errors.Is(err, store.ErrUserExists) {
		return fmt.Errorf("bootstrap demo user: %w", err)
	}
	return ensureDemoSongs(ctx, db, time.Now().UTC())
}

func ensureDemoSongs(ctx context.Context, db *sql.DB, now time.Time) error {
	var userID int64
	if err := db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE username = $1
	`, "demo").Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("lookup demo user: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&count); err != nil {
		return fmt.Errorf("count songs: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	for i, song := range demoSongs {
		var songID int64
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO songs (title, artist, album, duration)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, song.Title, song.Artist, song.Album, song.Duration).Scan(&songID); err != nil {
			return fmt.Errorf("insert demo song %q: %w", song.Title, err)
		}

		// Earlier songs have steady history, later ones are picking up this week.
		plays := demoPlayTimes(i, len(demoSongs), now)
		for _, at := range plays {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO play_events (user_id, song_id, played_at)
				VALUES ($1, $2, $3)
			`, userID, songID, at); err != nil {
				return fmt.Errorf("insert demo play for %q: %w", song.Title, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE songs SET play_count = $2 WHERE id = $1
		`, songID, len(plays)); err != nil {
			return fmt.Errorf("set demo play count for %q: %w", song.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	tx = nil

	return nil
}

// demoPlayTimes spreads plays over the last 14 days. Song idx of n gets fewer
// plays in the older week and more in the recent one as idx grows.
func demoPlayTimes(idx, n int, now time.Time) []time.Time {
	older := (n - idx) * 3
	recent := (idx + 1) * 2

	var times []time.Time
	for k := 0; k < older; k++ {
		times = append(times, now.Add(-8*24*time.Hour-time.Duration(k)*5*time.Hour))
	}
	for k := 0; k < recent; k++ {
		times = append(times, now.Add(-time.Duration(k)*3*time.Hour-time.Minute))
	}
	return times
}
