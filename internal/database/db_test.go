package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *SQLite {
	t.Helper()

	dbPath := t.TempDir() + "/test.db"
	db, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		db.Close(context.Background())
	})

	if err := db.Init(context.Background()); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	return db
}

func testActivity(id, userID string, trackpoints ...string) *Activity {
	return &Activity{
		ID:            id,
		UserID:        userID,
		StartDateTime: time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC),
		EndDateTime:   time.Date(2008, 10, 23, 11, 11, 12, 0, time.UTC),
		TrackPoints:   trackpoints,
	}
}

func TestDatabaseOperations(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	t.Run("InitIsIdempotent", func(t *testing.T) {
		if err := db.Init(ctx); err != nil {
			t.Fatalf("Expected second Init to succeed, got %v", err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := db.Ping(ctx); err != nil {
			t.Fatalf("Failed to ping: %v", err)
		}
	})

	t.Run("CountEmpty", func(t *testing.T) {
		for _, c := range []string{CollectionUser, CollectionActivity, CollectionTrackPoint} {
			n, err := db.Count(ctx, c)
			if err != nil {
				t.Fatalf("Failed to count %s: %v", c, err)
			}
			if n != 0 {
				t.Errorf("Expected 0 documents in %s, got %d", c, n)
			}
		}
	})

	t.Run("CountUnknownCollection", func(t *testing.T) {
		_, err := db.Count(ctx, "Athletes")
		if !errors.Is(err, ErrUnknownCollection) {
			t.Errorf("Expected ErrUnknownCollection, got %v", err)
		}
	})

	t.Run("CountAfterInserts", func(t *testing.T) {
		if err := db.InsertActivity(ctx, testActivity("a1", "000", "t1", "t2")); err != nil {
			t.Fatalf("Failed to insert activity: %v", err)
		}
		points := []*TrackPoint{
			{ID: "t1", ActivityID: "a1", DateTime: time.Now()},
			{ID: "t2", ActivityID: "a1", DateTime: time.Now()},
		}
		if err := db.InsertTrackPoints(ctx, points); err != nil {
			t.Fatalf("Failed to insert trackpoints: %v", err)
		}
		if err := db.InsertUser(ctx, &User{ID: "000", Activities: []string{"a1"}}); err != nil {
			t.Fatalf("Failed to insert user: %v", err)
		}

		want := map[string]int64{CollectionUser: 1, CollectionActivity: 1, CollectionTrackPoint: 2}
		for c, expected := range want {
			n, err := db.Count(ctx, c)
			if err != nil {
				t.Fatalf("Failed to count %s: %v", c, err)
			}
			if n != expected {
				t.Errorf("Expected %d documents in %s, got %d", expected, c, n)
			}
		}
	})

	t.Run("DropAndInit", func(t *testing.T) {
		if err := db.Drop(ctx); err != nil {
			t.Fatalf("Failed to drop: %v", err)
		}
		if _, err := db.Count(ctx, CollectionUser); err == nil {
			t.Error("Expected count to fail after drop")
		}
		if err := db.Init(ctx); err != nil {
			t.Fatalf("Failed to re-init: %v", err)
		}
		n, err := db.Count(ctx, CollectionTrackPoint)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if n != 0 {
			t.Errorf("Expected empty trackpoints after drop, got %d", n)
		}
	})
}
