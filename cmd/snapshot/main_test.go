package main

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinchart/internal/app/trending"
	"spinchart/shared/go/logging"
)

type buildCall struct {
	period trending.Period
	date   string
}

type fakeBuilder struct {
	calls  []buildCall
	failOn trending.Period
}

func (f *fakeBuilder) BuildSnapshot(_ context.Context, period trending.Period, date time.Time) (int64, error) {
	if period == f.failOn {
		return 0, trending.ErrAggregation
	}
	f.calls = append(f.calls, buildCall{period: period, date: trending.FormatDate(date)})
	return int64(len(f.calls)), nil
}

func quietLogger() *logging.Logger {
	return logging.New(logging.Config{Level: "error", Output: io.Discard})
}

func TestParsePeriods(t *testing.T) {
	all, err := parsePeriods("all")
	require.NoError(t, err)
	assert.Equal(t, trending.Periods, all)

	weekly, err := parsePeriods("Weekly")
	require.NoError(t, err)
	assert.Equal(t, []trending.Period{trending.Weekly}, weekly)

	_, err = parsePeriods("yearly")
	assert.ErrorIs(t, err, trending.ErrInvalidPeriod)
}

func TestBuildDates(t *testing.T) {
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)

	dates, err := buildDates("2024-01-05", 3, now)
	require.NoError(t, err)
	require.Len(t, dates, 3)
	assert.Equal(t, "2024-01-03", trending.FormatDate(dates[0]))
	assert.Equal(t, "2024-01-05", trending.FormatDate(dates[2]))

	dates, err = buildDates("2030-01-01", 1, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", trending.FormatDate(dates[0]))

	dates, err = buildDates("", 1, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", trending.FormatDate(dates[0]))

	_, err = buildDates("2024-13-40", 1, now)
	assert.ErrorIs(t, err, trending.ErrInvalidDate)

	_, err = buildDates("", 0, now)
	assert.Error(t, err)
}

func TestBuildAllOrder(t *testing.T) {
	builder := &fakeBuilder{}
	dates := []time.Time{
		time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
	}

	err := buildAll(context.Background(), quietLogger(), builder, trending.Periods, dates)
	require.NoError(t, err)

	require.Len(t, builder.calls, 6)
	assert.Equal(t, buildCall{period: trending.Daily, date: "2024-01-07"}, builder.calls[0])
	assert.Equal(t, buildCall{period: trending.Monthly, date: "2024-01-08"}, builder.calls[5])
}

func TestBuildAllStopsOnFailure(t *testing.T) {
	builder := &fakeBuilder{failOn: trending.Weekly}
	dates := []time.Time{time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)}

	err := buildAll(context.Background(), quietLogger(), builder, trending.Periods, dates)
	require.Error(t, err)
	assert.True(t, errors.Is(err, trending.ErrAggregation))
	assert.Len(t, builder.calls, 1)
}

func TestGrowthWeight(t *testing.T) {
	t.Setenv("TRENDING_GROWTH_WEIGHT", "")
	w, err := growthWeight(0, false)
	require.NoError(t, err)
	assert.Equal(t, trending.DefaultGrowthWeight, w)

	w, err = growthWeight(2, true)
	require.NoError(t, err)
	assert.Equal(t, 2.0, w)

	w, err = growthWeight(0, true)
	require.NoError(t, err)
	assert.Equal(t, 0.0, w)

	t.Setenv("TRENDING_GROWTH_WEIGHT", "1.25")
	w, err = growthWeight(0, false)
	require.NoError(t, err)
	assert.Equal(t, 1.25, w)
}

func TestGrowthWeightRejectsNonFinite(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "-3"} {
		t.Setenv("TRENDING_GROWTH_WEIGHT", raw)
		_, err := growthWeight(0, false)
		assert.Error(t, err, raw)
	}

	t.Setenv("TRENDING_GROWTH_WEIGHT", "")
	for _, w := range []float64{math.NaN(), math.Inf(1), -1} {
		_, err := growthWeight(w, true)
		assert.Error(t, err, "weight %v", w)
	}
}
