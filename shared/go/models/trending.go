package models

import "time"

// TrendingSong is one ranked entry of a trending snapshot. New songs (no plays
// in the previous window) report null score and growth with IsNew set.
type TrendingSong struct {
	Rank              int      `json:"rank"`
	PreviousRank      *int     `json:"previousRank"`
	RankChange        *int     `json:"rankChange"`
	PlayCount         int64    `json:"playCount"`
	PreviousPlayCount int64    `json:"previousPlayCount"`
	TrendingScore     *float64 `json:"trendingScore"`
	GrowthPercent     *float64 `json:"growthPercent"`
	IsNew             bool     `json:"isNew"`
	Song              Song     `json:"song"`
}

// TrendingRequest is accepted as a JSON body (POST) or query string (GET).
type TrendingRequest struct {
	PeriodType string `json:"periodType"`
	Date       string `json:"date"`
	Limit      int    `json:"limit"`
}

// TrendingResponse lists ranked songs for a period and date.
type TrendingResponse struct {
	Success    bool           `json:"success"`
	PeriodType string         `json:"periodType"`
	Date       string         `json:"date"`
	Songs      []TrendingSong `json:"songs"`
}

// SnapshotRequest asks for a snapshot build.
type SnapshotRequest struct {
	PeriodType string `json:"periodType"`
	Date       string `json:"date"`
}

// SnapshotResponse returns the id of the built snapshot.
type SnapshotResponse struct {
	Success    bool  `json:"success"`
	SnapshotID int64 `json:"snapshotId"`
}

// SnapshotSummary is a snapshot header.
type SnapshotSummary struct {
	ID         int64     `json:"id"`
	PeriodType string    `json:"periodType"`
	Date       string    `json:"date"`
	CreatedAt  time.Time `json:"createdAt"`
	EntryCount int       `json:"entryCount"`
}

// SnapshotsResponse lists snapshot headers newest first.
type SnapshotsResponse struct {
	Success   bool              `json:"success"`
	Snapshots []SnapshotSummary `json:"snapshots"`
}

// TrendingStats summarises a snapshot. Approximate marks an estimated listener
// count; Degraded marks a response built entirely from fallback values.
type TrendingStats struct {
	PeriodType           string  `json:"periodType"`
	SnapshotDate         string  `json:"snapshotDate"`
	TotalPlays           int64   `json:"totalPlays"`
	TrendingSongsCount   int     `json:"trendingSongsCount"`
	ActiveListeners      int64   `json:"activeListeners"`
	AverageGrowthPercent float64 `json:"averageGrowthPercent"`
	Approximate          bool    `json:"approximate"`
	Degraded             bool    `json:"degraded"`
}

// StatsResponse wraps TrendingStats.
type StatsResponse struct {
	Success bool          `json:"success"`
	Stats   TrendingStats `json:"stats"`
}

// UpdateResult is the outcome of one period during a bulk update.
type UpdateResult struct {
	PeriodType string `json:"periodType"`
	Success    bool   `json:"success"`
	SnapshotID int64  `json:"snapshotId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// UpdateResponse reports every period of a bulk update.
type UpdateResponse struct {
	Success bool           `json:"success"`
	Results []UpdateResult `json:"results"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}
