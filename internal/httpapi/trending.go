package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"spinchart/internal/app/trending"
	"spinchart/shared/go/models"
)

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	var req models.TrendingRequest
	if r.Method == http.MethodPost {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		q := r.URL.Query()
		req.PeriodType = firstNonEmpty(q.Get("period_type"), q.Get("periodType"))
		req.Date = q.Get("date")
		limit, err := intParam(r, "limit")
		if err != nil {
			writeError(w, r, err)
			return
		}
		req.Limit = limit
	}

	period, err := readPeriod(req.PeriodType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := trending.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ranked, err := s.trending.Trending(r.Context(), period, date, req.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TrendingResponse{
		Success:    true,
		PeriodType: string(period),
		Date:       trending.FormatDate(s.trending.ResolveDate(date)),
		Songs:      trendingSongsDTO(ranked),
	})
}

func (s *Server) handleBuildSnapshot(w http.ResponseWriter, r *http.Request) {
	var req models.SnapshotRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	period, err := trending.ParsePeriod(req.PeriodType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := trending.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.trending.BuildSnapshot(r.Context(), period, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SnapshotResponse{Success: true, SnapshotID: id})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	period, err := readPeriod(periodParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	snapshots, err := s.trending.Snapshots(r.Context(), period, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summaries := make([]models.SnapshotSummary, 0, len(snapshots))
	for _, snap := range snapshots {
		summaries = append(summaries, snapshotSummaryDTO(snap))
	}
	writeJSON(w, http.StatusOK, models.SnapshotsResponse{Success: true, Snapshots: summaries})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	period, err := readPeriod(periodParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats := s.trending.Stats(r.Context(), period)
	writeJSON(w, http.StatusOK, models.StatsResponse{Success: true, Stats: statsDTO(stats)})
}

// handleUpdate rebuilds every period. It answers 200 when all builds succeed,
// 207 when some fail and 500 when all fail.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	date, err := trending.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	results := s.trending.UpdateAll(r.Context(), date)

	resp := models.UpdateResponse{Results: make([]models.UpdateResult, 0, len(results))}
	failed := 0
	for _, res := range results {
		item := models.UpdateResult{PeriodType: string(res.Period), Success: res.Err == nil}
		if res.Err != nil {
			failed++
			_, code := classify(res.Err)
			item.Error = code
		} else {
			item.SnapshotID = res.SnapshotID
		}
		resp.Results = append(resp.Results, item)
	}

	status := http.StatusOK
	switch {
	case failed == 0:
		resp.Success = true
	case failed < len(results):
		status = http.StatusMultiStatus
	default:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

// readPeriod parses a period type, defaulting to weekly when blank.
func readPeriod(raw string) (trending.Period, error) {
	if raw == "" {
		return trending.Weekly, nil
	}
	return trending.ParsePeriod(raw)
}

func periodParam(r *http.Request) string {
	q := r.URL.Query()
	return firstNonEmpty(q.Get("period_type"), q.Get("periodType"))
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s", errInvalidParam, name)
	}
	return v, nil
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errInvalidPayload
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
