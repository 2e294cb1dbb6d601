package database

// Schema contains all SQL statements for creating tables and indexes.
// Timestamps are Unix seconds of the recorded wall-clock time.
const Schema = `
-- Users table: one row per Geolife user directory
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,  -- folder name, e.g. "010"
    has_labels BOOLEAN NOT NULL DEFAULT 0,
    activities_json TEXT NOT NULL DEFAULT '[]'
);

-- Activities table: one row per loaded trajectory file
CREATE TABLE IF NOT EXISTS activities (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    transportation_mode TEXT,  -- NULL when no label matched
    start_date_time INTEGER NOT NULL,
    end_date_time INTEGER NOT NULL,
    trackpoints_json TEXT NOT NULL DEFAULT '[]'
);

-- Trackpoints table: rows are inserted in file order
CREATE TABLE IF NOT EXISTS trackpoints (
    id TEXT PRIMARY KEY,
    activity_id TEXT NOT NULL,
    lat REAL NOT NULL,
    lon REAL NOT NULL,
    altitude REAL NOT NULL,
    date_days REAL NOT NULL,
    date_time INTEGER NOT NULL,

    FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_activities_user_id ON activities(user_id);
CREATE INDEX IF NOT EXISTS idx_activities_start ON activities(start_date_time);
CREATE INDEX IF NOT EXISTS idx_trackpoints_activity_id ON trackpoints(activity_id);
`

// DropSchema removes every table created by Schema
const DropSchema = `
DROP TABLE IF EXISTS trackpoints;
DROP TABLE IF EXISTS activities;
DROP TABLE IF EXISTS users;
`

var collectionTables = map[string]string{
	CollectionUser:       "users",
	CollectionActivity:   "activities",
	CollectionTrackPoint: "trackpoints",
}
