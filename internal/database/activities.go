package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"geolife-loader/internal/metrics"
)

// InsertActivity inserts a new activity
func (db *SQLite) InsertActivity(ctx context.Context, a *Activity) error {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpInsertActivity))
	defer timer.ObserveDuration()

	trackpoints := a.TrackPoints
	if trackpoints == nil {
		trackpoints = []string{}
	}
	trackpointsJSON, err := json.Marshal(trackpoints)
	if err != nil {
		return fmt.Errorf("failed to encode activity trackpoints: %w", err)
	}

	var mode *string
	if a.TransportationMode != "" {
		mode = &a.TransportationMode
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO activities (
			id, user_id, transportation_mode,
			start_date_time, end_date_time, trackpoints_json
		) VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.UserID, mode,
		a.StartDateTime.Unix(), a.EndDateTime.Unix(), string(trackpointsJSON))

	if err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpInsertActivity).Inc()
		return fmt.Errorf("failed to insert activity %s: %w", a.ID, wrapSQLiteError(err))
	}
	return nil
}

// GetActivity retrieves an activity by ID. It returns nil, nil when the
// activity does not exist.
func (db *SQLite) GetActivity(ctx context.Context, id string) (*Activity, error) {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpGetActivity))
	defer timer.ObserveDuration()

	var a Activity
	var mode sql.NullString
	var start, end int64
	var trackpointsJSON string

	err := db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, transportation_mode,
		       start_date_time, end_date_time, trackpoints_json
		FROM activities WHERE id = ?
	`, id).Scan(&a.ID, &a.UserID, &mode, &start, &end, &trackpointsJSON)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpGetActivity).Inc()
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	a.TransportationMode = mode.String
	a.StartDateTime = time.Unix(start, 0).UTC()
	a.EndDateTime = time.Unix(end, 0).UTC()
	if err := json.Unmarshal([]byte(trackpointsJSON), &a.TrackPoints); err != nil {
		return nil, fmt.Errorf("failed to decode activity trackpoints: %w", err)
	}

	return &a, nil
}
