package memstore

import (
	"context"
	"errors"
	"time"

	"spinchart/internal/store"
)

var (
	errRequiredCredentials = errors.New("username and password are required")
	errRequiredSongFields  = errors.New("title and artist are required")
	errNegativeDuration    = errors.New("duration must be non-negative")
)

// Seed loads a demo user, a handful of songs and a week of play history so the
// trending endpoints have something to rank.
func (s *Store) Seed(ctx context.Context) error {
	userID, err := s.CreateUser(ctx, "demo", "demo123")
	if err != nil && !errors.Is(err, store.ErrUserExists) {
		return err
	}

	album := func(v string) *string { return &v }
	songs := []store.Song{
		{Title: "Roygbiv", Artist: "Boards of Canada", Album: album("Music Has the Right to Children"), Duration: 151},
		{Title: "Teardrop", Artist: "Massive Attack", Album: album("Mezzanine"), Duration: 330},
		{Title: "Glory Box", Artist: "Portishead", Album: album("Dummy"), Duration: 306},
		{Title: "No Surprises", Artist: "Radiohead", Album: album("OK Computer"), Duration: 229},
		{Title: "Kerala", Artist: "Bonobo", Album: album("Migration"), Duration: 230},
		{Title: "Says", Artist: "Nils Frahm", Album: album("Spaces"), Duration: 528},
	}

	var ids []int64
	for _, song := range songs {
		created, err := s.CreateSong(ctx, song)
		if err != nil {
			return err
		}
		ids = append(ids, created.ID)
	}

	// Earlier songs get more plays, later songs get their plays more recently.
	now := s.now()
	for i, id := range ids {
		plays := (len(ids) - i) * 4
		for n := 0; n < plays; n++ {
			at := now.Add(-time.Duration(n*(i+1)) * 3 * time.Hour)
			if _, err := s.IncrementPlayCount(ctx, id); err != nil {
				return err
			}
			if err := s.AppendPlayEvent(ctx, userID, id, at); err != nil {
				return err
			}
		}
	}
	return nil
}
