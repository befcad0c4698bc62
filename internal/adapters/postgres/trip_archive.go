package postgres

import (
	"context"
	"encoding/json"

	"github.com/hyunwoojo/gilro/internal/core/domain"
	"github.com/hyunwoojo/gilro/internal/core/ports"
)

// TripArchive implements ports.TripArchive. Completed runs are append-only;
// the final progress snapshot is stored as JSONB since nothing queries its
// fields individually.
type TripArchive struct {
	db *DB
}

func NewTripArchive(db *DB) *TripArchive {
	return &TripArchive{db: db}
}

func (a *TripArchive) Record(ctx context.Context, rec ports.TripRecord) error {
	var progress []byte
	if rec.FinalProgress != nil {
		var err error
		progress, err = json.Marshal(rec.FinalProgress)
		if err != nil {
			return err
		}
	}

	_, err := a.db.Pool.Exec(ctx, `
		INSERT INTO trip_archive (session_id, origin_label, dest_label, waypoints, distance_meters, duration_seconds, started_at, ended_at, final_progress)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.SessionID, rec.OriginLabel, rec.DestLabel, rec.Waypoints,
		rec.DistanceMeters, rec.DurationSeconds, rec.StartedAt, rec.EndedAt, progress)
	return err
}

func (a *TripArchive) Recent(ctx context.Context, limit int) ([]ports.TripRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.Pool.Query(ctx, `
		SELECT session_id, origin_label, dest_label, waypoints, distance_meters, duration_seconds, started_at, ended_at, COALESCE(final_progress, 'null'::jsonb)
		FROM trip_archive
		ORDER BY ended_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ports.TripRecord
	for rows.Next() {
		var rec ports.TripRecord
		var progress []byte
		if err := rows.Scan(&rec.SessionID, &rec.OriginLabel, &rec.DestLabel, &rec.Waypoints,
			&rec.DistanceMeters, &rec.DurationSeconds, &rec.StartedAt, &rec.EndedAt, &progress); err != nil {
			return nil, err
		}
		if len(progress) > 0 && string(progress) != "null" {
			var snap domain.ProgressSnapshot
			if err := json.Unmarshal(progress, &snap); err == nil {
				rec.FinalProgress = &snap
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
