package database

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"geolife-loader/internal/metrics"
)

// InsertTrackPoints bulk inserts trackpoints in a single transaction. Either
// all of them are stored or none are.
func (db *SQLite) InsertTrackPoints(ctx context.Context, points []*TrackPoint) error {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpInsertTrackPoints))
	defer timer.ObserveDuration()

	if len(points) == 0 {
		return nil
	}

	if err := db.insertTrackPoints(ctx, points); err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpInsertTrackPoints).Inc()
		return err
	}
	return nil
}

func (db *SQLite) insertTrackPoints(ctx context.Context, points []*TrackPoint) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trackpoints (id, activity_id, lat, lon, altitude, date_days, date_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare trackpoint insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.ExecContext(ctx, p.ID, p.ActivityID,
			p.Latitude, p.Longitude, p.Altitude, p.DateDays, p.DateTime.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert trackpoint %s: %w", p.ID, wrapSQLiteError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trackpoints: %w", err)
	}
	return nil
}

// ListTrackPoints returns an activity's trackpoints in file order
func (db *SQLite) ListTrackPoints(ctx context.Context, activityID string) ([]*TrackPoint, error) {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpListTrackPoints))
	defer timer.ObserveDuration()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, activity_id, lat, lon, altitude, date_days, date_time
		FROM trackpoints
		WHERE activity_id = ?
		ORDER BY rowid
	`, activityID)
	if err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpListTrackPoints).Inc()
		return nil, fmt.Errorf("failed to list trackpoints: %w", err)
	}
	defer rows.Close()

	var points []*TrackPoint
	for rows.Next() {
		var p TrackPoint
		var ts int64
		err := rows.Scan(&p.ID, &p.ActivityID, &p.Latitude, &p.Longitude, &p.Altitude, &p.DateDays, &ts)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trackpoint: %w", err)
		}
		p.DateTime = time.Unix(ts, 0).UTC()
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trackpoints: %w", err)
	}

	return points, nil
}
