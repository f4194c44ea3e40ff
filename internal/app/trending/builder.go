package trending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spinchart/internal/store"
	"spinchart/shared/go/logging"
)

// Store defines the persistence operations the trending subsystem depends on.
type Store interface {
	PlayCounts(ctx context.Context, from, to time.Time) ([]store.SongPlays, error)
	DistinctListeners(ctx context.Context, from, to time.Time) (int64, error)
	SongsByIDs(ctx context.Context, ids []int64) (map[int64]store.Song, error)
	ReplaceSnapshot(ctx context.Context, snap store.Snapshot) (int64, error)
	SnapshotByKey(ctx context.Context, periodType string, date time.Time) (store.Snapshot, error)
	PreviousSnapshot(ctx context.Context, periodType string, before time.Time) (store.Snapshot, error)
	ListSnapshots(ctx context.Context, periodType string, limit int) ([]store.Snapshot, error)
}

// Builder aggregates play events into ranked snapshots.
type Builder struct {
	store        Store
	growthWeight float64
	now          func() time.Time

	// built is called after a snapshot has been committed.
	built func(Period)
}

// NewBuilder constructs a Builder. A negative, NaN or infinite growth weight
// falls back to DefaultGrowthWeight so the score stays monotonic in growth.
func NewBuilder(st Store, growthWeight float64) *Builder {
	return &Builder{
		store:        st,
		growthWeight: sanitizeWeight(growthWeight),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// BuildSnapshot computes and stores the snapshot for period on date, replacing
// any existing snapshot with the same key. A zero date means today (UTC).
func (b *Builder) BuildSnapshot(ctx context.Context, period Period, date time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !period.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	if date.IsZero() {
		date = b.now()
	}
	date = DateOf(date)

	from, to := period.Window(date)
	prevFrom, prevTo := period.PreviousWindow(date)

	current, err := b.store.PlayCounts(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("%w: current window: %w", ErrAggregation, err)
	}
	previous, err := b.store.PlayCounts(ctx, prevFrom, prevTo)
	if err != nil {
		return 0, fmt.Errorf("%w: previous window: %w", ErrAggregation, err)
	}

	previousRanks := make(map[int64]int)
	prevSnap, err := b.store.PreviousSnapshot(ctx, string(period), date)
	switch {
	case err == nil:
		for _, e := range prevSnap.Entries {
			previousRanks[e.SongID] = e.Rank
		}
	case errors.Is(err, store.ErrSnapshotNotFound):
	default:
		return 0, fmt.Errorf("%w: previous snapshot: %w", ErrAggregation, err)
	}

	entries := Rank(current, previous, previousRanks, b.growthWeight)

	id, err := b.store.ReplaceSnapshot(ctx, store.Snapshot{
		PeriodType: string(period),
		Date:       date,
		CreatedAt:  b.now(),
		Entries:    toSnapshotEntries(entries),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: persist snapshot: %w", ErrAggregation, err)
	}

	if b.built != nil {
		b.built(period)
	}

	logging.WithContext(ctx).Info().
		Str("period_type", string(period)).
		Str("snapshot_date", FormatDate(date)).
		Int64("snapshot_id", id).
		Int("entries", len(entries)).
		Msg("Trending snapshot built")

	return id, nil
}
