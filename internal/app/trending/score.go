package trending

import (
	"math"
	"sort"

	"spinchart/internal/store"
)

// DefaultGrowthWeight is the number of score points one percent of growth is worth.
const DefaultGrowthWeight = 0.5

// Entry is one ranked song of a snapshot.
//
// Songs with no plays in the previous window are new: their Score and
// GrowthPercent are +Inf, which ranks them above every song with history.
type Entry struct {
	SongID            int64
	PlayCount         int64
	PreviousPlayCount int64
	Rank              int
	PreviousRank      *int
	RankChange        *int
	Score             float64
	GrowthPercent     float64
	IsNew             bool
}

// GrowthPercent is (current - previous) / max(previous, 1) * 100.
func GrowthPercent(current, previous int64) float64 {
	denom := previous
	if denom < 1 {
		denom = 1
	}
	return float64(current-previous) / float64(denom) * 100
}

// Score combines play volume and growth: plays + weight * growthPercent.
// It is non-decreasing in both inputs. Weights outside [0, +Inf) are replaced
// by DefaultGrowthWeight.
func Score(plays int64, growthPercent, weight float64) float64 {
	if math.IsInf(growthPercent, 1) {
		return math.Inf(1)
	}
	return float64(plays) + sanitizeWeight(weight)*growthPercent
}

func sanitizeWeight(w float64) float64 {
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return DefaultGrowthWeight
	}
	return w
}

// Rank orders the songs played in the current window and assigns ranks 1..N.
// Ties on score are broken by higher play count, then by lower song id.
// previousRanks maps song ids to their rank in the preceding snapshot.
func Rank(current, previous []store.SongPlays, previousRanks map[int64]int, weight float64) []Entry {
	prevPlays := make(map[int64]int64, len(previous))
	for _, p := range previous {
		prevPlays[p.SongID] = p.Plays
	}

	entries := make([]Entry, 0, len(current))
	for _, c := range current {
		if c.Plays <= 0 {
			continue
		}
		e := Entry{
			SongID:            c.SongID,
			PlayCount:         c.Plays,
			PreviousPlayCount: prevPlays[c.SongID],
		}
		if e.PreviousPlayCount == 0 {
			e.IsNew = true
			e.GrowthPercent = math.Inf(1)
		} else {
			e.GrowthPercent = GrowthPercent(e.PlayCount, e.PreviousPlayCount)
		}
		e.Score = Score(e.PlayCount, e.GrowthPercent, weight)
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return ranksBefore(entries[i], entries[j])
	})

	for i := range entries {
		entries[i].Rank = i + 1
		if prev, ok := previousRanks[entries[i].SongID]; ok {
			prevRank := prev
			change := prev - entries[i].Rank
			entries[i].PreviousRank = &prevRank
			entries[i].RankChange = &change
		}
	}
	return entries
}

func ranksBefore(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.PlayCount != b.PlayCount {
		return a.PlayCount > b.PlayCount
	}
	return a.SongID < b.SongID
}

func toSnapshotEntries(entries []Entry) []store.SnapshotEntry {
	rows := make([]store.SnapshotEntry, 0, len(entries))
	for _, e := range entries {
		row := store.SnapshotEntry{
			SongID:            e.SongID,
			PlayCount:         e.PlayCount,
			PreviousPlayCount: e.PreviousPlayCount,
			Rank:              e.Rank,
			PreviousRank:      e.PreviousRank,
			RankChange:        e.RankChange,
		}
		if !e.IsNew {
			score, growth := e.Score, e.GrowthPercent
			row.Score = &score
			row.GrowthPercent = &growth
		}
		rows = append(rows, row)
	}
	return rows
}

func fromSnapshotEntries(rows []store.SnapshotEntry) []Entry {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e := Entry{
			SongID:            row.SongID,
			PlayCount:         row.PlayCount,
			PreviousPlayCount: row.PreviousPlayCount,
			Rank:              row.Rank,
			PreviousRank:      row.PreviousRank,
			RankChange:        row.RankChange,
			Score:             math.Inf(1),
			GrowthPercent:     math.Inf(1),
			IsNew:             row.GrowthPercent == nil,
		}
		if row.Score != nil {
			e.Score = *row.Score
		}
		if row.GrowthPercent != nil {
			e.GrowthPercent = *row.GrowthPercent
		}
		entries = append(entries, e)
	}
	return entries
}
