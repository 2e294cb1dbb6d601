package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"geolife-loader/internal/config"
	"geolife-loader/internal/database"
)

func main() {
	// Disable structured logging for CLI
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors
	})))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "help" {
		printUsage()
		return
	}

	switch command {
	case "init", "drop", "count":
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown command '%s'\n\n", command)
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, err := database.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open document store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close(ctx)

	var cmdErr error
	switch command {
	case "init":
		cmdErr = handleInit(ctx, store)
	case "drop":
		cmdErr = handleDrop(ctx, store)
	case "count":
		cmdErr = handleCount(ctx, store)
	}
	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		store.Close(ctx)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`geolife-loader CLI - Document Store Management

Usage:
  cli <command>

Commands:
  init         Create the User, Activity and TrackPoint collections and indexes
  drop         Drop all three collections
  count        Show the number of documents in each collection
  help         Show this help message

Environment Variables:
  STORE_DRIVER           - mongo or sqlite (default: mongo)
  MONGO_HOST             - MongoDB host (default: localhost)
  MONGO_PORT             - MongoDB port (default: 27017)
  MONGO_DATABASE         - MongoDB database (default: geolife)
  MONGO_USERNAME         - MongoDB user (optional)
  MONGO_PASSWORD         - MongoDB password (optional)
  DATABASE_PATH          - SQLite file (default: ./geolife.db)`)
}

func handleInit(ctx context.Context, store database.Store) error {
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("failed to create collections: %w", err)
	}
	fmt.Println("✓ Collections created")
	return nil
}

func handleDrop(ctx context.Context, store database.Store) error {
	if err := store.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop collections: %w", err)
	}
	fmt.Println("✓ Collections dropped")
	return nil
}

func handleCount(ctx context.Context, store database.Store) error {
	fmt.Println("Documents per collection:")
	for _, name := range []string{database.CollectionUser, database.CollectionActivity, database.CollectionTrackPoint} {
		n, err := store.Count(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to count %s: %w", name, err)
		}
		fmt.Printf("  %-10s %d\n", name, n)
	}
	return nil
}
