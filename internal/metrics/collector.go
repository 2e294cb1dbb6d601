package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Counter is the part of the document store the collector needs
type Counter interface {
	Count(ctx context.Context, collection string) (int64, error)
}

var collections = []string{CollectionUser, CollectionActivity, CollectionTrackPoint}

// StartCollectionCountCollector periodically records the number of documents
// in each collection until ctx is cancelled
func StartCollectionCountCollector(ctx context.Context, store Counter, interval time.Duration) {
	logger := slog.Default()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect once immediately
	CollectCollectionCounts(ctx, store, logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Collection count collector stopping")
			return
		case <-ticker.C:
			CollectCollectionCounts(ctx, store, logger)
		}
	}
}

// CollectCollectionCounts records one sample per collection
func CollectCollectionCounts(ctx context.Context, store Counter, logger *slog.Logger) {
	for _, name := range collections {
		n, err := store.Count(ctx, name)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("Failed to count documents", "collection", name, "error", err)
			}
			continue
		}
		CollectionDocuments.WithLabelValues(name).Set(float64(n))
	}
}

// Push sends everything in the default registry to a Prometheus Pushgateway
func Push(url, job string) error {
	return push.New(url, job).
		Gatherer(prometheus.DefaultGatherer).
		Push()
}
