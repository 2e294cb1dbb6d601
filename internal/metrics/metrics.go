package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Trajectory outcomes
	ResultLoaded    = "loaded"
	ResultOversized = "oversized"
	ResultMalformed = "malformed"
	ResultFailed    = "failed"

	// Collections
	CollectionUser       = "User"
	CollectionActivity   = "Activity"
	CollectionTrackPoint = "TrackPoint"

	// Store operations
	StoreOpConnect           = "connect"
	StoreOpInit              = "init"
	StoreOpDrop              = "drop"
	StoreOpInsertUser        = "insert_user"
	StoreOpInsertActivity    = "insert_activity"
	StoreOpInsertTrackPoints = "insert_trackpoints"
	StoreOpCount             = "count"
	StoreOpGetUser           = "get_user"
	StoreOpGetActivity       = "get_activity"
	StoreOpListTrackPoints   = "list_trackpoints"

	// Metrics listener endpoints
	EndpointMetrics = "metrics"
	EndpointHealth  = "health"
)

// Load Metrics
var (
	UsersLoadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geolife_users_loaded_total",
			Help: "Total number of user directories processed",
		},
	)

	TrajectoriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geolife_trajectories_total",
			Help: "Total number of trajectory files processed by outcome",
		},
		[]string{"result"},
	)

	DocumentsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geolife_documents_written_total",
			Help: "Total number of documents written per collection",
		},
		[]string{"collection"},
	)

	LabeledActivitiesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geolife_labeled_activities_total",
			Help: "Total number of activities that matched a transportation mode label",
		},
	)

	ActivityTrackpoints = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geolife_activity_trackpoints",
			Help:    "Number of trackpoints per loaded activity",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 1500, 2000, 2500},
		},
	)

	InvalidCoordinatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geolife_invalid_coordinates_total",
			Help: "Total number of stored trackpoints outside the latitude/longitude ranges",
		},
	)

	CollectionDocuments = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "geolife_collection_documents",
			Help: "Number of documents currently stored per collection",
		},
		[]string{"collection"},
	)
)

// Store Metrics
var (
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Document store operation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	StoreOperationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of document store operation errors",
		},
		[]string{"operation"},
	)
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests to the metrics listener",
		},
		[]string{"endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)
)
