// Package memstore keeps songs, play history and trending snapshots in memory.
// It mirrors the Postgres store and backs demo runs and tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"spinchart/internal/store"
)

type user struct {
	id   int64
	name string
	hash []byte
}

type playEvent struct {
	userID   int64
	songID   int64
	playedAt time.Time
}

type snapshotKey struct {
	period string
	date   string
}

// Store implements the persistence operations of store.Store in memory.
type Store struct {
	mu sync.RWMutex

	users      map[string]*user
	songs      map[int64]store.Song
	plays      []playEvent
	snapshots  map[snapshotKey]*store.Snapshot
	nextUserID int64
	nextSongID int64
	nextSnapID int64
	now        func() time.Time
	fail       error
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		users:      make(map[string]*user),
		songs:      make(map[int64]store.Song),
		snapshots:  make(map[snapshotKey]*store.Snapshot),
		nextUserID: 1,
		nextSongID: 1,
		nextSnapID: 1,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetFail makes every operation return err until it is reset with nil. Tests
// use it to simulate an unreachable datastore.
func (s *Store) SetFail(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func (s *Store) failure() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fail
}

// Ping reports the configured failure, if any.
func (s *Store) Ping(context.Context) error {
	return s.failure()
}

// CreateUser registers a user and returns its id.
func (s *Store) CreateUser(_ context.Context, username, password string) (int64, error) {
	if err := s.failure(); err != nil {
		return 0, err
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, errRequiredCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return 0, store.ErrUserExists
	}
	u := &user{id: s.nextUserID, name: username, hash: hash}
	s.nextUserID++
	s.users[username] = u
	return u.id, nil
}

// Authenticate validates credentials and returns the user id.
func (s *Store) Authenticate(_ context.Context, username, password string) (int64, error) {
	if err := s.failure(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	u, ok := s.users[strings.TrimSpace(username)]
	s.mu.RUnlock()
	if !ok {
		return 0, store.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return 0, store.ErrInvalidCredentials
	}
	return u.id, nil
}

// CreateSong stores a song and assigns its id.
func (s *Store) CreateSong(_ context.Context, song store.Song) (store.Song, error) {
	if err := s.failure(); err != nil {
		return store.Song{}, err
	}
	song.Title = strings.TrimSpace(song.Title)
	song.Artist = strings.TrimSpace(song.Artist)
	if song.Title == "" || song.Artist == "" {
		return store.Song{}, errRequiredSongFields
	}
	if song.Duration < 0 {
		return store.Song{}, errNegativeDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	song.ID = s.nextSongID
	s.nextSongID++
	song.PlayCount = 0
	song.CreatedAt = now
	song.UpdatedAt = now
	s.songs[song.ID] = song
	return song, nil
}

// DeleteSong removes a song. Play history and snapshot entries keep pointing at it.
func (s *Store) DeleteSong(_ context.Context, id int64) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.songs[id]; !ok {
		return store.ErrSongNotFound
	}
	delete(s.songs, id)
	return nil
}

// GetSong returns a song by id.
func (s *Store) GetSong(_ context.Context, id int64) (store.Song, error) {
	if err := s.failure(); err != nil {
		return store.Song{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	song, ok := s.songs[id]
	if !ok {
		return store.Song{}, store.ErrSongNotFound
	}
	return song, nil
}

// SongsByIDs returns the songs that still exist among ids.
func (s *Store) SongsByIDs(_ context.Context, ids []int64) (map[int64]store.Song, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]store.Song, len(ids))
	for _, id := range ids {
		if song, ok := s.songs[id]; ok {
			result[id] = song
		}
	}
	return result, nil
}

// IncrementPlayCount adds one play to the song under the write lock.
func (s *Store) IncrementPlayCount(_ context.Context, songID int64) (store.Song, error) {
	if err := s.failure(); err != nil {
		return store.Song{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.songs[songID]
	if !ok {
		return store.Song{}, store.ErrSongNotFound
	}
	song.PlayCount++
	song.UpdatedAt = s.now()
	s.songs[songID] = song
	return song, nil
}

// AppendPlayEvent records a playback.
func (s *Store) AppendPlayEvent(_ context.Context, userID, songID int64, playedAt time.Time) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plays = append(s.plays, playEvent{userID: userID, songID: songID, playedAt: playedAt.UTC()})
	return nil
}

// PlayCounts aggregates plays per existing song within [from, to), ordered by song id.
func (s *Store) PlayCounts(_ context.Context, from, to time.Time) ([]store.SongPlays, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int64]int64)
	for _, p := range s.plays {
		if p.playedAt.Before(from) || !p.playedAt.Before(to) {
			continue
		}
		if _, ok := s.songs[p.songID]; !ok {
			continue
		}
		counts[p.songID]++
	}

	result := make([]store.SongPlays, 0, len(counts))
	for id, n := range counts {
		result = append(result, store.SongPlays{SongID: id, Plays: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SongID < result[j].SongID })
	return result, nil
}

// DistinctListeners counts users with a play within [from, to).
func (s *Store) DistinctListeners(_ context.Context, from, to time.Time) (int64, error) {
	if err := s.failure(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]struct{})
	for _, p := range s.plays {
		if p.playedAt.Before(from) || !p.playedAt.Before(to) {
			continue
		}
		seen[p.userID] = struct{}{}
	}
	return int64(len(seen)), nil
}

// RecentlyPlayed returns the user's last distinct songs, newest first.
func (s *Store) RecentlyPlayed(_ context.Context, userID int64, limit int) ([]store.RecentPlay, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[int64]time.Time)
	for _, p := range s.plays {
		if p.userID != userID {
			continue
		}
		if t, ok := latest[p.songID]; !ok || p.playedAt.After(t) {
			latest[p.songID] = p.playedAt
		}
	}

	var result []store.RecentPlay
	for songID, playedAt := range latest {
		song, ok := s.songs[songID]
		if !ok {
			continue
		}
		result = append(result, store.RecentPlay{Song: song, PlayedAt: playedAt})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].PlayedAt.Equal(result[j].PlayedAt) {
			return result[i].PlayedAt.After(result[j].PlayedAt)
		}
		return result[i].Song.ID < result[j].Song.ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ReplaceSnapshot stores the snapshot, swapping in the new entry set in one step.
func (s *Store) ReplaceSnapshot(_ context.Context, snap store.Snapshot) (int64, error) {
	if err := s.failure(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := snapshotKey{period: snap.PeriodType, date: snap.Date.Format(dateLayout)}
	existing, ok := s.snapshots[key]
	if ok {
		snap.ID = existing.ID
	} else {
		snap.ID = s.nextSnapID
		s.nextSnapID++
	}
	snap.Date = truncateDate(snap.Date)
	snap.EntryCount = len(snap.Entries)
	s.snapshots[key] = cloneSnapshot(&snap)
	return snap.ID, nil
}

// SnapshotByKey returns the snapshot for the period type and date.
func (s *Store) SnapshotByKey(_ context.Context, periodType string, date time.Time) (store.Snapshot, error) {
	if err := s.failure(); err != nil {
		return store.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[snapshotKey{period: periodType, date: date.Format(dateLayout)}]
	if !ok {
		return store.Snapshot{}, store.ErrSnapshotNotFound
	}
	return *cloneSnapshot(snap), nil
}

// PreviousSnapshot returns the latest snapshot of the period dated before the given date.
func (s *Store) PreviousSnapshot(_ context.Context, periodType string, before time.Time) (store.Snapshot, error) {
	if err := s.failure(); err != nil {
		return store.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := truncateDate(before)
	var best *store.Snapshot
	for _, snap := range s.snapshots {
		if snap.PeriodType != periodType || !snap.Date.Before(cutoff) {
			continue
		}
		if best == nil || snap.Date.After(best.Date) {
			best = snap
		}
	}
	if best == nil {
		return store.Snapshot{}, store.ErrSnapshotNotFound
	}
	return *cloneSnapshot(best), nil
}

// ListSnapshots returns snapshot headers for the period, newest first.
func (s *Store) ListSnapshots(_ context.Context, periodType string, limit int) ([]store.Snapshot, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []store.Snapshot
	for _, snap := range s.snapshots {
		if snap.PeriodType != periodType {
			continue
		}
		header := *snap
		header.Entries = nil
		result = append(result, header)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

const dateLayout = "2006-01-02"

func truncateDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func cloneSnapshot(src *store.Snapshot) *store.Snapshot {
	if src == nil {
		return nil
	}
	clone := *src
	if len(src.Entries) > 0 {
		clone.Entries = make([]store.SnapshotEntry, len(src.Entries))
		copy(clone.Entries, src.Entries)
	} else {
		clone.Entries = nil
	}
	return &clone
}
