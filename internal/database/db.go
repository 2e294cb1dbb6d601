package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"geolife-loader/internal/metrics"
)

// SQLite is a file-backed document store. Each collection is a table; list
// fields are stored as JSON.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens a connection to the SQLite database at the specified path
func OpenSQLite(path string) (*SQLite, error) {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpConnect))
	defer timer.ObserveDuration()

	// Open the database with appropriate pragmas
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpConnect).Inc()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(1) // SQLite works best with a single writer
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	// Test the connection
	if err := conn.Ping(); err != nil {
		conn.Close()
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpConnect).Inc()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Ensure foreign keys are enabled (redundant with DSN but ensures it's set)
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpConnect).Inc()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLite{conn: conn}, nil
}

// Init creates all tables and indexes
func (db *SQLite) Init(ctx context.Context) error {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpInit))
	defer timer.ObserveDuration()

	if _, err := db.conn.ExecContext(ctx, Schema); err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpInit).Inc()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Drop removes all tables. Init must be called before the store is used again.
func (db *SQLite) Drop(ctx context.Context) error {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpDrop))
	defer timer.ObserveDuration()

	if _, err := db.conn.ExecContext(ctx, DropSchema); err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpDrop).Inc()
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

// Count returns the number of documents in a collection
func (db *SQLite) Count(ctx context.Context, collection string) (int64, error) {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpCount))
	defer timer.ObserveDuration()

	table, ok := collectionTables[collection]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	var n int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpCount).Inc()
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return n, nil
}

// Ping checks if the database connection is healthy
func (db *SQLite) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection
func (db *SQLite) Close(ctx context.Context) error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Conn returns the underlying *sql.DB connection for direct use
func (db *SQLite) Conn() *sql.DB {
	return db.conn
}

// wrapSQLiteError maps constraint violations on a primary key to ErrDuplicate
func wrapSQLiteError(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, code == sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "UNIQUE constraint failed"):
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
	}
	return err
}
