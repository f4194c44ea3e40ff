package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Snapshot is a persisted trending ranking for one period type and date.
type Snapshot struct {
	ID         int64
	PeriodType string
	Date       time.Time
	CreatedAt  time.Time
	EntryCount int
	Entries    []SnapshotEntry
}

// SnapshotEntry is one ranked song inside a snapshot.
// Score and GrowthPercent are nil for songs without plays in the prior window.
type SnapshotEntry struct {
	SongID            int64
	PlayCount         int64
	PreviousPlayCount int64
	Rank              int
	PreviousRank      *int
	RankChange        *int
	Score             *float64
	GrowthPercent     *float64
}

// ReplaceSnapshot stores the snapshot for (PeriodType, Date), replacing the
// entries of an existing snapshot with the same key. The header upsert locks the
// row, so concurrent replaces of one key run one after another and readers see
// either the old or the new entry set.
func (s *Store) ReplaceSnapshot(ctx context.Context, snap Snapshot) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var snapshotID int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO trending_snapshots (period_type, snapshot_date, created_at)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (period_type, snapshot_date)
		DO UPDATE SET created_at = EXCLUDED.created_at
		RETURNING id
	`, snap.PeriodType, snap.Date.Format(dateLayout), snap.CreatedAt.UTC()).Scan(&snapshotID); err != nil {
		return 0, fmt.Errorf("upsert snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM trending_entries
		WHERE snapshot_id = $1
	`, snapshotID); err != nil {
		return 0, fmt.Errorf("delete snapshot entries: %w", err)
	}

	for _, e := range snap.Entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trending_entries (snapshot_id, song_id, play_count, previous_play_count, rank,
			                              previous_rank, rank_change, trending_score, growth_percent)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, snapshotID, e.SongID, e.PlayCount, e.PreviousPlayCount, e.Rank,
			nullInt(e.PreviousRank), nullInt(e.RankChange), nullFloat(e.Score), nullFloat(e.GrowthPercent)); err != nil {
			return 0, fmt.Errorf("insert snapshot entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return snapshotID, nil
}

// SnapshotByKey returns the snapshot for the exact period type and date.
func (s *Store) SnapshotByKey(ctx context.Context, periodType string, date time.Time) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, period_type, snapshot_date, created_at
		FROM trending_snapshots
		WHERE period_type = $1 AND snapshot_date = $2::date
	`, periodType, date.Format(dateLayout))
	return s.loadSnapshot(ctx, row)
}

// PreviousSnapshot returns the latest snapshot of the period type dated strictly
// before the given date.
func (s *Store) PreviousSnapshot(ctx context.Context, periodType string, before time.Time) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, period_type, snapshot_date, created_at
		FROM trending_snapshots
		WHERE period_type = $1 AND snapshot_date < $2::date
		ORDER BY snapshot_date DESC
		LIMIT 1
	`, periodType, before.Format(dateLayout))
	return s.loadSnapshot(ctx, row)
}

// ListSnapshots returns snapshot headers for the period type, newest first.
func (s *Store) ListSnapshots(ctx context.Context, periodType string, limit int) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts.id, ts.period_type, ts.snapshot_date, ts.created_at, COUNT(te.song_id)
		FROM trending_snapshots ts
		LEFT JOIN trending_entries te ON te.snapshot_id = ts.id
		WHERE ts.period_type = $1
		GROUP BY ts.id, ts.period_type, ts.snapshot_date, ts.created_at
		ORDER BY ts.snapshot_date DESC
		LIMIT $2
	`, periodType, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.PeriodType, &snap.Date, &snap.CreatedAt, &snap.EntryCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snapshots, nil
}

func (s *Store) loadSnapshot(ctx context.Context, row *sql.Row) (Snapshot, error) {
	var snap Snapshot
	if err := row.Scan(&snap.ID, &snap.PeriodType, &snap.Date, &snap.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrSnapshotNotFound
		}
		return Snapshot{}, fmt.Errorf("lookup snapshot: %w", err)
	}

	entries, err := s.snapshotEntries(ctx, snap.ID)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Entries = entries
	snap.EntryCount = len(entries)
	return snap, nil
}

func (s *Store) snapshotEntries(ctx context.Context, snapshotID int64) ([]SnapshotEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT song_id, play_count, previous_play_count, rank, previous_rank, rank_change,
		       trending_score, growth_percent
		FROM trending_entries
		WHERE snapshot_id = $1
		ORDER BY rank ASC
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot entries: %w", err)
	}
	defer rows.Close()

	var entries []SnapshotEntry
	for rows.Next() {
		var (
			e            SnapshotEntry
			previousRank sql.NullInt32
			rankChange   sql.NullInt32
			score        sql.NullFloat64
			growth       sql.NullFloat64
		)
		if err := rows.Scan(&e.SongID, &e.PlayCount, &e.PreviousPlayCount, &e.Rank,
			&previousRank, &rankChange, &score, &growth); err != nil {
			return nil, fmt.Errorf("scan snapshot entry: %w", err)
		}
		if previousRank.Valid {
			v := int(previousRank.Int32)
			e.PreviousRank = &v
		}
		if rankChange.Valid {
			v := int(rankChange.Int32)
			e.RankChange = &v
		}
		if score.Valid {
			e.Score = &score.Float64
		}
		if growth.Valid {
			e.GrowthPercent = &growth.Float64
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot entries: %w", err)
	}

	return entries, nil
}

func nullInt(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
