package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestReplaceSnapshotCommits(t *testing.T) {
	s, mock := newMockStore(t)

	prev := 3
	change := 2
	score := 112.5
	growth := 25.0
	snap := Snapshot{
		PeriodType: "weekly",
		Date:       time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		CreatedAt:  time.Date(2024, 1, 8, 23, 0, 0, 0, time.UTC),
		Entries: []SnapshotEntry{
			{SongID: 1, PlayCount: 100, PreviousPlayCount: 80, Rank: 1, PreviousRank: &prev, RankChange: &change, Score: &score, GrowthPercent: &growth},
			{SongID: 2, PlayCount: 5, Rank: 2},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (period_type, snapshot_date)`)).
		WithArgs("weekly", "2024-01-08", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM trending_entries`)).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO trending_entries`)).
		WithArgs(int64(11), int64(1), int64(100), int64(80), 1, int64(3), int64(2), 112.5, 25.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO trending_entries`)).
		WithArgs(int64(11), int64(2), int64(5), int64(0), 2, nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := s.ReplaceSnapshot(context.Background(), snap)
	if err != nil {
		t.Fatalf("ReplaceSnapshot error: %v", err)
	}
	if id != 11 {
		t.Fatalf("expected snapshot id 11, got %d", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceSnapshotRollsBackOnEntryFailure(t *testing.T) {
	s, mock := newMockStore(t)

	snap := Snapshot{
		PeriodType: "daily",
		Date:       time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		CreatedAt:  time.Now(),
		Entries:    []SnapshotEntry{{SongID: 9, PlayCount: 1, Rank: 1}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO trending_snapshots`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM trending_entries`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO trending_entries`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if _, err := s.ReplaceSnapshot(context.Background(), snap); err == nil {
		t.Fatalf("expected error but got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSnapshotByKeyNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE period_type = $1 AND snapshot_date = $2::date`)).
		WithArgs("monthly", "2024-02-01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "period_type", "snapshot_date", "created_at"}))

	_, err := s.SnapshotByKey(context.Background(), "monthly", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestPreviousSnapshotLoadsEntries(t *testing.T) {
	s, mock := newMockStore(t)
	date := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`snapshot_date < $2::date`)).
		WithArgs("weekly", "2024-01-08").
		WillReturnRows(sqlmock.NewRows([]string{"id", "period_type", "snapshot_date", "created_at"}).
			AddRow(int64(3), "weekly", date, date))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM trending_entries`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"song_id", "play_count", "previous_play_count", "rank", "previous_rank", "rank_change", "trending_score", "growth_percent",
		}).
			AddRow(int64(2), int64(60), int64(10), 1, nil, nil, 310.0, 500.0).
			AddRow(int64(1), int64(80), int64(0), 2, int64(1), int64(-1), nil, nil))

	snap, err := s.PreviousSnapshot(context.Background(), "weekly", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PreviousSnapshot error: %v", err)
	}
	if snap.ID != 3 || snap.EntryCount != 2 {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
	first, second := snap.Entries[0], snap.Entries[1]
	if first.Score == nil || *first.Score != 310 {
		t.Fatalf("expected score 310, got %v", first.Score)
	}
	if first.PreviousRank != nil {
		t.Fatalf("expected nil previous rank, got %d", *first.PreviousRank)
	}
	if second.GrowthPercent != nil || second.Score != nil {
		t.Fatalf("expected new-song entry with nil score and growth")
	}
	if second.RankChange == nil || *second.RankChange != -1 {
		t.Fatalf("expected rank change -1, got %v", second.RankChange)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListSnapshots(t *testing.T) {
	s, mock := newMockStore(t)
	d1 := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`LEFT JOIN trending_entries te ON te.snapshot_id = ts.id`)).
		WithArgs("daily", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "period_type", "snapshot_date", "created_at", "count"}).
			AddRow(int64(2), "daily", d1, d1, 5).
			AddRow(int64(1), "daily", d2, d2, 0))

	snapshots, err := s.ListSnapshots(context.Background(), "daily", 10)
	if err != nil {
		t.Fatalf("ListSnapshots error: %v", err)
	}
	if len(snapshots) != 2 || snapshots[0].EntryCount != 5 || snapshots[1].EntryCount != 0 {
		t.Fatalf("unexpected snapshots: %#v", snapshots)
	}
}
