package database

import (
	"context"
	"errors"
	"testing"
)

func TestInsertAndGetUser(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	user := &User{ID: "010", HasLabels: true, Activities: []string{"a1", "a2"}}
	if err := db.InsertUser(ctx, user); err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	retrieved, err := db.GetUser(ctx, "010")
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Expected user, got nil")
	}
	if retrieved.ID != "010" {
		t.Errorf("Expected id 010 with leading zero, got %s", retrieved.ID)
	}
	if !retrieved.HasLabels {
		t.Error("Expected has_labels true")
	}
	if len(retrieved.Activities) != 2 || retrieved.Activities[0] != "a1" || retrieved.Activities[1] != "a2" {
		t.Errorf("Expected activities [a1 a2], got %v", retrieved.Activities)
	}
}

func TestUserWithoutActivities(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	if err := db.InsertUser(ctx, &User{ID: "000"}); err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	retrieved, err := db.GetUser(ctx, "000")
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if retrieved.HasLabels {
		t.Error("Expected has_labels false")
	}
	if retrieved.Activities == nil || len(retrieved.Activities) != 0 {
		t.Errorf("Expected empty activity list, got %v", retrieved.Activities)
	}
}

func TestGetUserNotFound(t *testing.T) {
	db := setupTestDB(t)

	user, err := db.GetUser(context.Background(), "999")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if user != nil {
		t.Errorf("Expected nil user, got %+v", user)
	}
}

func TestInsertUserDuplicate(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	if err := db.InsertUser(ctx, &User{ID: "000"}); err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	err := db.InsertUser(ctx, &User{ID: "000", HasLabels: true})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}
}
