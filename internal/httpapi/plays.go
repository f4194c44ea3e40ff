package httpapi

import (
	"fmt"
	"net/http"

	"spinchart/shared/go/logging"
	"spinchart/shared/go/models"
)

func (s *Server) handleRecordPlay(w http.ResponseWriter, r *http.Request) {
	userID, _ := logging.UserID(r.Context())

	var req models.RecordPlayRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.SongID <= 0 {
		writeError(w, r, fmt.Errorf("%w: songId is required", errInvalidPayload))
		return
	}

	song, err := s.plays.RecordPlay(r.Context(), userID, req.SongID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.RecordPlayResponse{Success: true, Song: songDTO(song)})
}

func (s *Server) handleRecentlyPlayed(w http.ResponseWriter, r *http.Request) {
	userID, _ := logging.UserID(r.Context())

	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	recent, err := s.plays.RecentlyPlayed(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	songs := make([]models.RecentPlay, 0, len(recent))
	for _, p := range recent {
		songs = append(songs, recentPlayDTO(p))
	}
	writeJSON(w, http.StatusOK, models.RecentlyPlayedResponse{Success: true, Songs: songs})
}
