package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"

	"geolife-loader/internal/config"
	"geolife-loader/internal/database"
	"geolife-loader/internal/loader"
	"geolife-loader/internal/metrics"
	"geolife-loader/internal/middleware"
)

const pushJob = "geolife_load"

func main() {
	drop := flag.Bool("drop", false, "Drop and recreate the User, Activity and TrackPoint collections before loading")
	showProgress := flag.Bool("progress", false, "Show a progress bar over user directories on stderr")
	dataPath := flag.String("data", "", "Path to the Geolife Data directory (overrides DATASET_PATH)")

	flag.Parse()

	os.Exit(run(*drop, *showProgress, *dataPath))
}

func run(drop, showProgress bool, dataPath string) int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}
	if dataPath != "" {
		cfg.DatasetPath = dataPath
	}

	// Set up logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting geolife-loader",
		"dataset", cfg.DatasetPath,
		"store", cfg.StoreDriver,
		"log_level", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open document store
	store, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open document store", "error", err)
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("Failed to close document store", "error", err)
		}
	}()

	if drop {
		logger.Info("Dropping collections")
		if err := store.Drop(ctx); err != nil {
			logger.Error("Failed to drop collections", "error", err)
			return 1
		}
	}
	if err := store.Init(ctx); err != nil {
		logger.Error("Failed to create collections", "error", err)
		return 1
	}

	// Start metrics server if enabled
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metricsAddr := fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort)
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: middleware.MetricsMux(store, promhttp.Handler()),
		}

		go func() {
			logger.Info("Metrics server listening", "addr", metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", "error", err)
			}
		}()

		collectorCtx, collectorCancel := context.WithCancel(ctx)
		defer collectorCancel()
		go func() {
			logger.Info("Starting collection count collector")
			metrics.StartCollectionCountCollector(collectorCtx, store, 15*time.Second)
		}()
	}

	opts := loader.Options{}
	if showProgress {
		bar, err := newProgressBar(cfg.DatasetPath)
		if err != nil {
			logger.Error("Failed to read dataset directory", "error", err)
			return 1
		}
		opts.OnUser = func(loader.UserSummary) {
			bar.Add(1)
		}
		defer bar.Finish()
	}

	summary, err := loader.New(store, opts).Load(ctx, cfg.DatasetPath)

	status := 0
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("Load interrupted", "users", summary.Users)
		status = 1
	case err != nil:
		logger.Error("Load failed", "error", err)
		status = 1
	}

	if cfg.MetricsPushURL != "" {
		metrics.CollectCollectionCounts(context.Background(), store, logger)
		if err := metrics.Push(cfg.MetricsPushURL, pushJob); err != nil {
			logger.Error("Failed to push metrics", "url", cfg.MetricsPushURL, "error", err)
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", "error", err)
		}
	}

	return status
}

func newProgressBar(root string) (*progressbar.ProgressBar, error) {
	users, err := loader.ListUsers(root)
	if err != nil {
		return nil, err
	}

	return progressbar.NewOptions(
		len(users),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Loading users"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	), nil
}
