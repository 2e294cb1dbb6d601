package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"geolife-loader/internal/metrics"
)

// InsertUser inserts a new user. An existing id fails with ErrDuplicate.
func (db *SQLite) InsertUser(ctx context.Context, u *User) error {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpInsertUser))
	defer timer.ObserveDuration()

	activities := u.Activities
	if activities == nil {
		activities = []string{}
	}
	activitiesJSON, err := json.Marshal(activities)
	if err != nil {
		return fmt.Errorf("failed to encode user activities: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO users (id, has_labels, activities_json)
		VALUES (?, ?, ?)
	`, u.ID, u.HasLabels, string(activitiesJSON))
	if err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpInsertUser).Inc()
		return fmt.Errorf("failed to insert user %s: %w", u.ID, wrapSQLiteError(err))
	}
	return nil
}

// GetUser retrieves a user by ID. It returns nil, nil when the user does not exist.
func (db *SQLite) GetUser(ctx context.Context, id string) (*User, error) {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpGetUser))
	defer timer.ObserveDuration()

	var u User
	var activitiesJSON string
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, has_labels, activities_json FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.HasLabels, &activitiesJSON)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpGetUser).Inc()
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := json.Unmarshal([]byte(activitiesJSON), &u.Activities); err != nil {
		return nil, fmt.Errorf("failed to decode user activities: %w", err)
	}
	return &u, nil
}
