package models

import "time"

// Song is the public representation of a playable track.
type Song struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	Album        *string   `json:"album,omitempty"`
	Duration     int       `json:"duration"`
	SourceURL    string    `json:"sourceUrl,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	PlayCount    int64     `json:"playCount"`
	Liked        bool      `json:"liked"`
	Shared       bool      `json:"shared"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RecentPlay is a song from the caller's listening history.
type RecentPlay struct {
	Song
	PlayedAt time.Time `json:"playedAt"`
}

// RecordPlayRequest is the body of POST /recently-played.
type RecordPlayRequest struct {
	SongID int64 `json:"songId"`
}

// RecordPlayResponse carries the song with its updated play count.
type RecordPlayResponse struct {
	Success bool `json:"success"`
	Song    Song `json:"song"`
}

// RecentlyPlayedResponse lists the caller's last distinct songs, newest first.
type RecentlyPlayedResponse struct {
	Success bool         `json:"success"`
	Songs   []RecentPlay `json:"songs"`
}
