package trending

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"spinchart/internal/cache"
	"spinchart/internal/store"
	"spinchart/shared/go/logging"
)

const (
	defaultLimit         = 50
	maxLimit             = 200
	defaultSnapshotLimit = 30
)

// RankedSong is a snapshot entry joined with the song's current metadata.
type RankedSong struct {
	Entry
	Song store.Song
}

// UpdateResult reports the outcome of building one period during UpdateAll.
type UpdateResult struct {
	Period     Period
	SnapshotID int64
	Err        error
}

// Options tunes a Service.
type Options struct {
	GrowthWeight float64
	Cache        *cache.Cache
	Now          func() time.Time
}

// Service answers trending reads. A read for a (period, date) without a stored
// snapshot builds that snapshot first; dates after today are read as today.
type Service struct {
	store   Store
	builder *Builder
	cache   *cache.Cache
	now     func() time.Time
}

// NewService wires the query service, its builder and the result cache.
func NewService(st Store, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	svc := &Service{
		store:   st,
		builder: NewBuilder(st, opts.GrowthWeight),
		cache:   opts.Cache,
		now:     now,
	}
	svc.builder.now = now
	svc.builder.built = svc.invalidate
	return svc
}

// Builder exposes the snapshot builder used by the service.
func (s *Service) Builder() *Builder {
	return s.builder
}

// BuildSnapshot builds the snapshot for period and date.
func (s *Service) BuildSnapshot(ctx context.Context, period Period, date time.Time) (int64, error) {
	return s.builder.BuildSnapshot(ctx, period, date)
}

// Trending returns up to limit ranked songs for the period and date, ordered by
// rank. Entries whose song no longer exists are skipped.
func (s *Service) Trending(ctx context.Context, period Period, date time.Time, limit int) ([]RankedSong, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !period.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	date = s.ResolveDate(date)
	limit = clampLimit(limit, defaultLimit, maxLimit)

	key := cache.Key("trending", string(period), FormatDate(date), strconv.Itoa(limit))
	if cached, ok := s.cache.Get(key); ok {
		if songs, ok := cached.([]RankedSong); ok {
			return songs, nil
		}
	}

	snap, err := s.snapshotFor(ctx, period, date)
	if err != nil {
		return nil, err
	}

	entries := fromSnapshotEntries(snap.Entries)
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.SongID)
	}
	songs, err := s.store.SongsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load songs: %w", err)
	}

	ranked := make([]RankedSong, 0, len(entries))
	for _, e := range entries {
		song, ok := songs[e.SongID]
		if !ok {
			continue
		}
		ranked = append(ranked, RankedSong{Entry: e, Song: song})
		if len(ranked) == limit {
			break
		}
	}

	s.cache.Set(key, ranked)
	return ranked, nil
}

// Snapshots lists stored snapshot headers for the period, newest first.
func (s *Service) Snapshots(ctx context.Context, period Period, limit int) ([]store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !period.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	snapshots, err := s.store.ListSnapshots(ctx, string(period), clampLimit(limit, defaultSnapshotLimit, maxLimit))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snapshots, nil
}

// UpdateAll builds the snapshot of every period for date concurrently and
// reports each outcome in Periods order.
func (s *Service) UpdateAll(ctx context.Context, date time.Time) []UpdateResult {
	results := make([]UpdateResult, len(Periods))

	var g errgroup.Group
	for i, period := range Periods {
		i, period := i, period
		g.Go(func() error {
			id, err := s.builder.BuildSnapshot(ctx, period, date)
			results[i] = UpdateResult{Period: period, SnapshotID: id, Err: err}
			if err != nil {
				logging.WithContext(ctx).Error().Err(err).
					Str("period_type", string(period)).
					Msg("Trending snapshot update failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// snapshotFor loads the snapshot for the exact key, building it on a miss.
func (s *Service) snapshotFor(ctx context.Context, period Period, date time.Time) (store.Snapshot, error) {
	snap, err := s.store.SnapshotByKey(ctx, string(period), date)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, store.ErrSnapshotNotFound) {
		return store.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	logging.WithContext(ctx).Debug().
		Str("period_type", string(period)).
		Str("snapshot_date", FormatDate(date)).
		Msg("Trending snapshot missing, building on demand")

	if _, err := s.builder.BuildSnapshot(ctx, period, date); err != nil {
		return store.Snapshot{}, err
	}
	snap, err = s.store.SnapshotByKey(ctx, string(period), date)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

func (s *Service) invalidate(period Period) {
	s.cache.InvalidatePrefix(cache.Key("trending", string(period)) + ":")
	s.cache.InvalidatePrefix(cache.Key("stats", string(period)) + ":")
}

// ResolveDate maps a requested read date to the snapshot date served: the zero
// time and dates after today become today.
func (s *Service) ResolveDate(date time.Time) time.Time {
	today := DateOf(s.now())
	if date.IsZero() {
		return today
	}
	date = DateOf(date)
	if date.After(today) {
		return today
	}
	return date
}

func clampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
