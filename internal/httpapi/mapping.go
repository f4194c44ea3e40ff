package httpapi

import (
	"math"

	"spinchart/internal/app/trending"
	"spinchart/internal/store"
	"spinchart/shared/go/models"
)

func songDTO(s store.Song) models.Song {
	return models.Song{
		ID:           s.ID,
		Title:        s.Title,
		Artist:       s.Artist,
		Album:        s.Album,
		Duration:     s.Duration,
		SourceURL:    s.SourceURL,
		ThumbnailURL: s.ThumbnailURL,
		PlayCount:    s.PlayCount,
		Liked:        s.Liked,
		Shared:       s.Shared,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func trendingSongDTO(r trending.RankedSong) models.TrendingSong {
	return models.TrendingSong{
		Rank:              r.Rank,
		PreviousRank:      r.PreviousRank,
		RankChange:        r.RankChange,
		PlayCount:         r.PlayCount,
		PreviousPlayCount: r.PreviousPlayCount,
		TrendingScore:     finite(r.Score),
		GrowthPercent:     finite(r.GrowthPercent),
		IsNew:             r.IsNew,
		Song:              songDTO(r.Song),
	}
}

func trendingSongsDTO(ranked []trending.RankedSong) []models.TrendingSong {
	out := make([]models.TrendingSong, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, trendingSongDTO(r))
	}
	return out
}

func snapshotSummaryDTO(s store.Snapshot) models.SnapshotSummary {
	return models.SnapshotSummary{
		ID:         s.ID,
		PeriodType: s.PeriodType,
		Date:       trending.FormatDate(s.Date),
		CreatedAt:  s.CreatedAt,
		EntryCount: s.EntryCount,
	}
}

func statsDTO(s trending.Stats) models.TrendingStats {
	return models.TrendingStats{
		PeriodType:           string(s.PeriodType),
		SnapshotDate:         trending.FormatDate(s.SnapshotDate),
		TotalPlays:           s.TotalPlays,
		TrendingSongsCount:   s.TrendingSongsCount,
		ActiveListeners:      s.ActiveListeners,
		AverageGrowthPercent: s.AverageGrowthPercent,
		Approximate:          s.Approximate,
		Degraded:             s.Degraded,
	}
}

func recentPlayDTO(p store.RecentPlay) models.RecentPlay {
	return models.RecentPlay{Song: songDTO(p.Song), PlayedAt: p.PlayedAt}
}

// finite returns nil for values JSON cannot encode.
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
