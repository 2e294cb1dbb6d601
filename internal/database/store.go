package database

import (
	"context"
	"fmt"

	"geolife-loader/internal/config"
)

// Store is implemented by both document store backends
type Store interface {
	Init(ctx context.Context) error
	Drop(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	InsertUser(ctx context.Context, u *User) error
	InsertActivity(ctx context.Context, a *Activity) error
	InsertTrackPoints(ctx context.Context, points []*TrackPoint) error

	Count(ctx context.Context, collection string) (int64, error)
	GetUser(ctx context.Context, id string) (*User, error)
	GetActivity(ctx context.Context, id string) (*Activity, error)
	ListTrackPoints(ctx context.Context, activityID string) ([]*TrackPoint, error)
}

var (
	_ Store = (*Mongo)(nil)
	_ Store = (*SQLite)(nil)
)

// Open connects to the backend selected by cfg.StoreDriver
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		m, err := OpenMongo(ctx, MongoOptionsFromConfig(cfg))
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// MongoOptionsFromConfig extracts the connection settings from cfg
func MongoOptionsFromConfig(cfg *config.Config) MongoOptions {
	return MongoOptions{
		Host:           cfg.MongoHost,
		Port:           cfg.MongoPort,
		Database:       cfg.MongoDatabase,
		Username:       cfg.MongoUsername,
		Password:       cfg.MongoPassword,
		ConnectTimeout: cfg.MongoConnectTimeout,
	}
}
