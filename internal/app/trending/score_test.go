package trending

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinchart/internal/store"
)

func TestGrowthPercent(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		previous int64
		want     float64
	}{
		{name: "growth", current: 100, previous: 80, want: 25},
		{name: "decline", current: 50, previous: 60, want: -100.0 / 6},
		{name: "flat", current: 10, previous: 10, want: 0},
		{name: "no previous plays", current: 3, previous: 0, want: 300},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, GrowthPercent(tc.current, tc.previous), 1e-9)
		})
	}
}

func TestScoreMonotonic(t *testing.T) {
	assert.Greater(t, Score(11, 10, DefaultGrowthWeight), Score(10, 10, DefaultGrowthWeight))
	assert.Greater(t, Score(10, 11, DefaultGrowthWeight), Score(10, 10, DefaultGrowthWeight))
	assert.True(t, math.IsInf(Score(1, math.Inf(1), DefaultGrowthWeight), 1))
}

func TestRankIgnoresNonFiniteWeights(t *testing.T) {
	current := []store.SongPlays{{SongID: 1, Plays: 10}, {SongID: 2, Plays: 500}, {SongID: 3, Plays: 50}}
	previous := []store.SongPlays{{SongID: 1, Plays: 10}, {SongID: 2, Plays: 400}, {SongID: 3, Plays: 60}}

	for _, w := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1} {
		entries := Rank(current, previous, nil, w)
		require.Len(t, entries, 3)

		got := []int64{entries[0].SongID, entries[1].SongID, entries[2].SongID}
		assert.Equal(t, []int64{2, 3, 1}, got, "weight %v", w)
		for _, e := range entries {
			assert.False(t, math.IsNaN(e.Score), "weight %v song %d", w, e.SongID)
		}
		assert.InDelta(t, 512.5, entries[0].Score, 1e-9)
	}

	assert.Equal(t, DefaultGrowthWeight, NewBuilder(nil, math.NaN()).growthWeight)
	assert.Equal(t, DefaultGrowthWeight, NewBuilder(nil, math.Inf(1)).growthWeight)
	assert.Equal(t, 2.0, NewBuilder(nil, 2).growthWeight)
}

func TestRankScenarioVolumeAndGrowth(t *testing.T) {
	current := []store.SongPlays{{SongID: 2, Plays: 50}, {SongID: 1, Plays: 100}}
	previous := []store.SongPlays{{SongID: 1, Plays: 80}, {SongID: 2, Plays: 60}}
	previousRanks := map[int64]int{1: 2, 2: 1}

	entries := Rank(current, previous, previousRanks, DefaultGrowthWeight)
	require.Len(t, entries, 2)

	a, b := entries[0], entries[1]
	assert.Equal(t, int64(1), a.SongID)
	assert.Equal(t, 1, a.Rank)
	assert.InDelta(t, 112.5, a.Score, 1e-9)
	require.NotNil(t, a.RankChange)
	assert.Equal(t, 1, *a.RankChange)

	assert.Equal(t, int64(2), b.SongID)
	assert.Equal(t, 2, b.Rank)
	assert.Less(t, b.GrowthPercent, 0.0)
	require.NotNil(t, b.RankChange)
	assert.Equal(t, -1, *b.RankChange)
}

func TestRankTieBreak(t *testing.T) {
	current := []store.SongPlays{
		{SongID: 4, Plays: 20},
		{SongID: 3, Plays: 20},
		{SongID: 5, Plays: 18},
	}
	previous := []store.SongPlays{
		{SongID: 3, Plays: 20},
		{SongID: 4, Plays: 20},
		{SongID: 5, Plays: 20},
	}

	// Weight 20 makes song 5 score 18 + 20*(-10) = -182 while 3 and 4 tie at 20.
	entries := Rank(current, previous, nil, 20)
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{3, 4, 5}, songIDs(entries))

	// With zero weight score equals plays; equal plays fall back to song id.
	entries = Rank(current, previous, nil, 0)
	assert.Equal(t, []int64{3, 4, 5}, songIDs(entries))
}

func TestRankTieOnScoreUsesPlayCount(t *testing.T) {
	// Song 7: 70 plays, flat -> 70. Song 8: 20 plays, +100% -> 20 + 0.5*100 = 70.
	current := []store.SongPlays{{SongID: 8, Plays: 20}, {SongID: 7, Plays: 70}}
	previous := []store.SongPlays{{SongID: 7, Plays: 70}, {SongID: 8, Plays: 10}}

	entries := Rank(current, previous, nil, 0.5)
	require.Len(t, entries, 2)
	assert.InDelta(t, entries[0].Score, entries[1].Score, 1e-9)
	assert.Equal(t, []int64{7, 8}, songIDs(entries))
}

func TestRankNewSongsRankFirst(t *testing.T) {
	current := []store.SongPlays{
		{SongID: 1, Plays: 1000},
		{SongID: 2, Plays: 3},
		{SongID: 3, Plays: 5},
		{SongID: 4, Plays: 0},
	}
	previous := []store.SongPlays{{SongID: 1, Plays: 900}}

	entries := Rank(current, previous, map[int64]int{1: 1}, DefaultGrowthWeight)
	require.Len(t, entries, 3, "songs without plays are excluded")
	assert.Equal(t, []int64{3, 2, 1}, songIDs(entries))
	assert.True(t, entries[0].IsNew)
	assert.Nil(t, entries[0].PreviousRank)
	assert.Nil(t, entries[0].RankChange)
	require.NotNil(t, entries[2].RankChange)
	assert.Equal(t, -2, *entries[2].RankChange)
}

func TestRankDenseOrdering(t *testing.T) {
	var current, previous []store.SongPlays
	for id := int64(1); id <= 25; id++ {
		current = append(current, store.SongPlays{SongID: id, Plays: (id * 7) % 11})
		previous = append(previous, store.SongPlays{SongID: id, Plays: (id*3)%5 + 1})
	}

	entries := Rank(current, previous, nil, DefaultGrowthWeight)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
		if i == 0 {
			continue
		}
		prev := entries[i-1]
		assert.True(t, ranksBefore(prev, e), "entry %d should rank before %d", prev.SongID, e.SongID)
		assert.GreaterOrEqual(t, prev.Score, e.Score)
	}
}

func TestSnapshotEntryMappingRoundTrip(t *testing.T) {
	entries := Rank(
		[]store.SongPlays{{SongID: 1, Plays: 10}, {SongID: 2, Plays: 4}},
		[]store.SongPlays{{SongID: 1, Plays: 5}},
		nil, DefaultGrowthWeight,
	)
	rows := toSnapshotEntries(entries)
	require.Len(t, rows, 2)

	var newRow store.SnapshotEntry
	for _, r := range rows {
		if r.SongID == 2 {
			newRow = r
		}
	}
	assert.Nil(t, newRow.Score)
	assert.Nil(t, newRow.GrowthPercent)

	assert.Equal(t, entries, fromSnapshotEntries(rows))
}

func TestPeriodWindow(t *testing.T) {
	date := time.Date(2024, 1, 8, 15, 4, 5, 0, time.UTC)

	from, to := Weekly.Window(date)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), to)

	pFrom, pTo := Weekly.PreviousWindow(date)
	assert.Equal(t, time.Date(2023, 12, 26, 0, 0, 0, 0, time.UTC), pFrom)
	assert.Equal(t, from, pTo)

	from, to = Daily.Window(date)
	assert.Equal(t, 24*time.Hour, to.Sub(from))
	from, to = Monthly.Window(date)
	assert.Equal(t, 30*24*time.Hour, to.Sub(from))
}

func TestParsePeriodAndDate(t *testing.T) {
	p, err := ParsePeriod(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, Weekly, p)

	_, err = ParsePeriod("yearly")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = ParsePeriod("")
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	d, err := ParseDate("2024-01-08")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", FormatDate(d))

	d, err = ParseDate("2024-01-08T22:15:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("08/01/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func songIDs(entries []Entry) []int64 {
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.SongID)
	}
	return ids
}
