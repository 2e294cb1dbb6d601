package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"geolife-loader/internal/database"
	"geolife-loader/internal/geolife"
	"geolife-loader/internal/metrics"
)

const (
	labelsFile    = "labels.txt"
	trajectoryDir = "Trajectory"
)

// Store is the write side of the document store used by the loader
type Store interface {
	InsertUser(ctx context.Context, u *database.User) error
	InsertActivity(ctx context.Context, a *database.Activity) error
	InsertTrackPoints(ctx context.Context, points []*database.TrackPoint) error
}

// Options configures a Loader. Zero values select the defaults.
type Options struct {
	// MaxTrackpoints is the largest trajectory loaded; larger files are skipped
	MaxTrackpoints int

	// ActivityIDs and TrackPointIDs default to UUIDGenerator
	ActivityIDs   IDGenerator
	TrackPointIDs IDGenerator

	// OnUser is called after each user directory has been processed
	OnUser func(UserSummary)
}

// Summary totals one run over a dataset
type Summary struct {
	Users             int
	LabeledUsers      int
	FailedUsers       int
	Activities        int
	LabeledActivities int
	TrackPoints       int
	Oversized         int
	Malformed         int
	Failed            int

	// InvalidCoordinates counts stored trackpoints outside the lat/lon ranges
	InvalidCoordinates int
}

// UserSummary totals one user directory
type UserSummary struct {
	UserID            string
	HasLabels         bool
	ActivityIDs       []string
	LabeledActivities int
	TrackPoints       int
	Oversized         int
	Malformed         int
	Failed            int

	InvalidCoordinates int
}

func (s *Summary) add(u UserSummary) {
	s.Users++
	if u.HasLabels {
		s.LabeledUsers++
	}
	s.Activities += len(u.ActivityIDs)
	s.LabeledActivities += u.LabeledActivities
	s.TrackPoints += u.TrackPoints
	s.Oversized += u.Oversized
	s.Malformed += u.Malformed
	s.Failed += u.Failed
	s.InvalidCoordinates += u.InvalidCoordinates
}

// Loader walks a Geolife Data directory and writes User, Activity and
// TrackPoint documents. It is not safe for concurrent use.
//
// Loading is not idempotent: running twice against the same store writes a
// second copy of every activity and trackpoint under fresh ids, and every
// User insert fails as a duplicate.
type Loader struct {
	store  Store
	opts   Options
	logger *slog.Logger
}

// New creates a loader writing to store
func New(store Store, opts Options) *Loader {
	if opts.MaxTrackpoints <= 0 {
		opts.MaxTrackpoints = geolife.DefaultMaxTrackpoints
	}
	if opts.ActivityIDs == nil {
		opts.ActivityIDs = UUIDGenerator{}
	}
	if opts.TrackPointIDs == nil {
		opts.TrackPointIDs = UUIDGenerator{}
	}

	return &Loader{
		store:  store,
		opts:   opts,
		logger: slog.Default(),
	}
}

// ListUsers returns the user directory names under root in natural order, so
// that unpadded names sort numerically. Hidden entries and plain files are
// ignored.
func ListUsers(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	var users []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		users = append(users, e.Name())
	}
	sort.Slice(users, func(i, j int) bool {
		return natural.Less(users[i], users[j])
	})
	return users, nil
}

// Load processes every user directory under root. Failures inside one user's
// directory are logged and do not stop the walk; only an unreadable root or a
// cancelled context is returned as an error.
func (l *Loader) Load(ctx context.Context, root string) (Summary, error) {
	var summary Summary

	users, err := ListUsers(root)
	if err != nil {
		return summary, err
	}

	l.logger.Info("Starting load", "root", root, "users", len(users))

	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		us, err := l.LoadUser(ctx, root, userID)
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return summary, ctxErr
		}
		summary.add(us)
		if err != nil {
			summary.FailedUsers++
			l.logger.Error("Failed to load user", "user_id", userID, "error", err)
		}

		if l.opts.OnUser != nil {
			l.opts.OnUser(us)
		}
	}

	l.logger.Info("Load finished",
		"users", summary.Users,
		"activities", summary.Activities,
		"trackpoints", summary.TrackPoints,
		"labeled_activities", summary.LabeledActivities,
		"oversized", summary.Oversized,
		"malformed", summary.Malformed,
		"failed", summary.Failed,
		"invalid_coordinates", summary.InvalidCoordinates)

	return summary, nil
}

// LoadUser processes one user directory. The User document is written last so
// that it can carry the ids of the activities that were stored. The returned
// error reports a failed User write; per-file problems are only counted.
func (l *Loader) LoadUser(ctx context.Context, root, userID string) (UserSummary, error) {
	us := UserSummary{UserID: userID, ActivityIDs: []string{}}
	userDir := filepath.Join(root, userID)
	logger := l.logger.With("user_id", userID)

	labels, hasLabels, err := geolife.LoadLabels(filepath.Join(userDir, labelsFile))
	if err != nil {
		logger.Warn("Failed to read labels, continuing without them", "error", err)
		labels = geolife.NewLabelTable()
	}
	us.HasLabels = hasLabels
	if labels.Skipped() > 0 {
		logger.Warn("Skipped unparseable label lines", "count", labels.Skipped())
	}

	files, err := listTrajectories(filepath.Join(userDir, trajectoryDir))
	if err != nil {
		logger.Warn("Failed to list trajectories", "error", err)
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return us, err
		}
		l.loadTrajectory(ctx, logger, &us, path, labels)
	}

	user := &database.User{
		ID:         userID,
		HasLabels:  hasLabels,
		Activities: us.ActivityIDs,
	}
	if err := l.store.InsertUser(ctx, user); err != nil {
		return us, err
	}
	metrics.UsersLoadedTotal.Inc()
	metrics.DocumentsWrittenTotal.WithLabelValues(metrics.CollectionUser).Inc()

	logger.Info("User loaded",
		"has_labels", hasLabels,
		"labels", labels.Len(),
		"activities", len(us.ActivityIDs),
		"trackpoints", us.TrackPoints,
		"skipped", us.Oversized+us.Malformed+us.Failed)

	return us, nil
}

// listTrajectories returns the .plt files in dir in name order. A missing
// directory yields no files.
func listTrajectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".plt") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

func (l *Loader) loadTrajectory(ctx context.Context, logger *slog.Logger, us *UserSummary, path string, labels *geolife.LabelTable) {
	logger = logger.With("file", filepath.Base(path))

	points, err := geolife.ParseTrajectoryFile(path, l.opts.MaxTrackpoints)
	switch {
	case errors.Is(err, geolife.ErrTooManyPoints):
		us.Oversized++
		metrics.TrajectoriesTotal.WithLabelValues(metrics.ResultOversized).Inc()
		logger.Debug("Skipping oversized trajectory")
		return
	case err != nil:
		us.Malformed++
		metrics.TrajectoriesTotal.WithLabelValues(metrics.ResultMalformed).Inc()
		logger.Warn("Skipping unreadable trajectory", "error", err)
		return
	}

	invalid := 0
	for _, p := range points {
		if !p.ValidCoordinates() {
			invalid++
		}
	}
	if invalid > 0 {
		logger.Warn("Trajectory has points outside the coordinate range, storing as read", "invalid_coordinates", invalid)
	}

	activity, trackpoints := l.buildDocuments(us.UserID, points, labels)

	if err := l.store.InsertActivity(ctx, activity); err != nil {
		us.Failed++
		metrics.TrajectoriesTotal.WithLabelValues(metrics.ResultFailed).Inc()
		logger.Error("Failed to write activity", "activity_id", activity.ID, "error", err)
		return
	}
	metrics.DocumentsWrittenTotal.WithLabelValues(metrics.CollectionActivity).Inc()

	if err := l.store.InsertTrackPoints(ctx, trackpoints); err != nil {
		us.Failed++
		metrics.TrajectoriesTotal.WithLabelValues(metrics.ResultFailed).Inc()
		logger.Error("Failed to write trackpoints, activity left without trackpoints",
			"activity_id", activity.ID, "error", err)
		return
	}
	metrics.DocumentsWrittenTotal.WithLabelValues(metrics.CollectionTrackPoint).Add(float64(len(trackpoints)))

	us.ActivityIDs = append(us.ActivityIDs, activity.ID)
	us.TrackPoints += len(trackpoints)
	us.InvalidCoordinates += invalid
	metrics.InvalidCoordinatesTotal.Add(float64(invalid))
	if activity.TransportationMode != "" {
		us.LabeledActivities++
		metrics.LabeledActivitiesTotal.Inc()
	}
	metrics.TrajectoriesTotal.WithLabelValues(metrics.ResultLoaded).Inc()
	metrics.ActivityTrackpoints.Observe(float64(len(trackpoints)))

	logger.Debug("Activity loaded",
		"activity_id", activity.ID,
		"trackpoints", len(trackpoints),
		"transportation_mode", activity.TransportationMode)
}

// buildDocuments assigns ids and converts parsed points into an Activity and
// its TrackPoints. points must not be empty.
func (l *Loader) buildDocuments(userID string, points []geolife.Trackpoint, labels *geolife.LabelTable) (*database.Activity, []*database.TrackPoint) {
	first, last := points[0], points[len(points)-1]

	activity := &database.Activity{
		ID:            l.opts.ActivityIDs.NewID(),
		UserID:        userID,
		StartDateTime: first.Time,
		EndDateTime:   last.Time,
		TrackPoints:   make([]string, 0, len(points)),
	}
	if mode, ok := labels.Match(first.Time, last.Time); ok {
		activity.TransportationMode = mode
	}

	trackpoints := make([]*database.TrackPoint, 0, len(points))
	for _, p := range points {
		tp := &database.TrackPoint{
			ID:         l.opts.TrackPointIDs.NewID(),
			ActivityID: activity.ID,
			Latitude:   p.Latitude,
			Longitude:  p.Longitude,
			Altitude:   p.Altitude,
			DateDays:   p.DateDays,
			DateTime:   p.Time,
		}
		trackpoints = append(trackpoints, tp)
		activity.TrackPoints = append(activity.TrackPoints, tp.ID)
	}

	return activity, trackpoints
}
