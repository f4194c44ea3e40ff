package plays

import (
	"context"
	"fmt"
	"time"

	"spinchart/internal/store"
	"spinchart/shared/go/logging"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// Store describes the persistence operations required to record playback.
type Store interface {
	IncrementPlayCount(ctx context.Context, songID int64) (store.Song, error)
	AppendPlayEvent(ctx context.Context, userID, songID int64, playedAt time.Time) error
	RecentlyPlayed(ctx context.Context, userID int64, limit int) ([]store.RecentPlay, error)
}

// Service records plays and lists a listener's history.
type Service interface {
	RecordPlay(ctx context.Context, userID, songID int64) (store.Song, error)
	RecentlyPlayed(ctx context.Context, userID int64, limit int) ([]store.RecentPlay, error)
}

type service struct {
	store Store
	now   func() time.Time
}

// New constructs a play Service backed by the provided Store.
func New(st Store) Service {
	return &service{
		store: st,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RecordPlay bumps the song's lifetime play count and appends a play event for
// the trending windows. The counter update is authoritative; a failed event
// append is logged and does not fail the call.
func (s *service) RecordPlay(ctx context.Context, userID, songID int64) (store.Song, error) {
	if err := ctx.Err(); err != nil {
		return store.Song{}, err
	}
	if userID <= 0 {
		return store.Song{}, store.ErrUnauthorized
	}
	if songID <= 0 {
		return store.Song{}, fmt.Errorf("%w: id %d", store.ErrSongNotFound, songID)
	}

	song, err := s.store.IncrementPlayCount(ctx, songID)
	if err != nil {
		return store.Song{}, err
	}

	if err := s.store.AppendPlayEvent(ctx, userID, songID, s.now()); err != nil {
		logging.WithContext(ctx).Warn().Err(err).
			Int64("song_id", songID).
			Msg("Play event not recorded; trending will undercount")
	}

	return song, nil
}

func (s *service) RecentlyPlayed(ctx context.Context, userID int64, limit int) ([]store.RecentPlay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if userID <= 0 {
		return nil, store.ErrUnauthorized
	}

	switch {
	case limit <= 0:
		limit = defaultRecentLimit
	case limit > maxRecentLimit:
		limit = maxRecentLimit
	}
	return s.store.RecentlyPlayed(ctx, userID, limit)
}
