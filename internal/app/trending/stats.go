package trending

import (
	"context"
	"fmt"
	"math"
	"time"

	"spinchart/internal/cache"
	"spinchart/internal/store"
	"spinchart/shared/go/logging"
)

// ListenerEstimateRatio approximates distinct listeners as a fraction of total
// plays when play history cannot be queried.
const ListenerEstimateRatio = 0.6

// Stats summarises a trending snapshot.
type Stats struct {
	PeriodType           Period
	SnapshotDate         time.Time
	TotalPlays           int64
	TrendingSongsCount   int
	ActiveListeners      int64
	AverageGrowthPercent float64
	// Approximate is set when ActiveListeners is an estimate.
	Approximate bool
	// Degraded is set when the snapshot was unavailable and every value is a fallback.
	Degraded bool
}

// FallbackStats is returned when no snapshot can be loaded or built.
func FallbackStats(period Period, date time.Time) Stats {
	return Stats{PeriodType: period, SnapshotDate: DateOf(date), Degraded: true}
}

// Stats computes summary metrics from today's snapshot of the period. It never
// fails: store errors produce FallbackStats and a warning log.
func (s *Service) Stats(ctx context.Context, period Period) Stats {
	today := DateOf(s.now())
	log := logging.WithContext(ctx)

	if !period.Valid() {
		log.Warn().Err(fmt.Errorf("%w: %w: %q", ErrDegraded, ErrInvalidPeriod, period)).Msg("Trending stats fallback")
		return FallbackStats(period, today)
	}

	key := cache.Key("stats", string(period), FormatDate(today))
	if cached, ok := s.cache.Get(key); ok {
		if stats, ok := cached.(Stats); ok {
			return stats
		}
	}

	snap, err := s.snapshotFor(ctx, period, today)
	if err != nil {
		log.Warn().Err(fmt.Errorf("%w: %w", ErrDegraded, err)).
			Str("period_type", string(period)).
			Msg("Trending stats fallback")
		return FallbackStats(period, today)
	}

	entries, err := s.liveEntries(ctx, snap)
	if err != nil {
		log.Warn().Err(fmt.Errorf("%w: %w", ErrDegraded, err)).
			Str("period_type", string(period)).
			Msg("Trending stats fallback")
		return FallbackStats(period, today)
	}
	stats := Stats{
		PeriodType:         period,
		SnapshotDate:       DateOf(snap.Date),
		TrendingSongsCount: len(entries),
	}

	var (
		growthSum   float64
		growthCount int
	)
	for _, e := range entries {
		stats.TotalPlays += e.PlayCount
		if e.IsNew {
			continue
		}
		growthSum += e.GrowthPercent
		growthCount++
	}
	if growthCount > 0 {
		stats.AverageGrowthPercent = math.Round(growthSum/float64(growthCount)*100) / 100
	}

	from, to := period.Window(snap.Date)
	listeners, err := s.store.DistinctListeners(ctx, from, to)
	if err != nil {
		stats.ActiveListeners = EstimateListeners(stats.TotalPlays)
		stats.Approximate = true
		log.Warn().Err(fmt.Errorf("%w: %w", ErrDegraded, err)).
			Str("period_type", string(period)).
			Int64("estimated_listeners", stats.ActiveListeners).
			Msg("Active listeners estimated from total plays")
	} else {
		stats.ActiveListeners = listeners
	}

	if !stats.Approximate {
		s.cache.Set(key, stats)
	}
	return stats
}

// liveEntries drops entries whose song has been deleted, matching what
// Trending serves.
func (s *Service) liveEntries(ctx context.Context, snap store.Snapshot) ([]Entry, error) {
	entries := fromSnapshotEntries(snap.Entries)
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.SongID)
	}
	songs, err := s.store.SongsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load songs: %w", err)
	}

	live := entries[:0]
	for _, e := range entries {
		if _, ok := songs[e.SongID]; ok {
			live = append(live, e)
		}
	}
	return live, nil
}

// EstimateListeners returns round(totalPlays * ListenerEstimateRatio).
func EstimateListeners(totalPlays int64) int64 {
	return int64(math.Round(float64(totalPlays) * ListenerEstimateRatio))
}
