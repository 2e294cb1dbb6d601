package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"geolife-loader/internal/metrics"
)

const codeNamespaceExists = 48

// MongoOptions describes how to reach the document store
type MongoOptions struct {
	Host           string
	Port           int
	Database       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

// URI returns the mongodb:// connection string. Credentials are escaped.
func (o MongoOptions) URI() string {
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(o.Host, strconv.Itoa(o.Port)),
		Path:   "/",
	}
	if o.Username != "" {
		u.User = url.UserPassword(o.Username, o.Password)
	}
	return u.String()
}

// Mongo stores users, activities and trackpoints as MongoDB documents
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to MongoDB and pings it. An unreachable server is an
// error; there is no retry.
func OpenMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpConnect))
	defer timer.ObserveDuration()

	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	clientOptions := options.Client().
		ApplyURI(opts.URI()).
		SetAppName("geolife-loader")
	if opts.ConnectTimeout > 0 {
		clientOptions.SetServerSelectionTimeout(opts.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpConnect).Inc()
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpConnect).Inc()
		return nil, fmt.Errorf("failed to ping mongodb at %s:%d: %w", opts.Host, opts.Port, err)
	}

	return &Mongo{client: client, db: client.Database(opts.Database)}, nil
}

func (m *Mongo) collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Init creates the three collections and their secondary indexes. Existing
// collections are left as they are.
func (m *Mongo) Init(ctx context.Context) error {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpInit))
	defer timer.ObserveDuration()

	if err := m.init(ctx); err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpInit).Inc()
		return err
	}
	return nil
}

func (m *Mongo) init(ctx context.Context) error {
	for _, name := range []string{CollectionUser, CollectionActivity, CollectionTrackPoint} {
		err := m.db.CreateCollection(ctx, name)
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}

	indexes := []struct {
		collection string
		field      string
	}{
		{CollectionActivity, "user_id"},
		{CollectionActivity, "start_date_time"},
		{CollectionTrackPoint, "activity_id"},
	}
	for _, idx := range indexes {
		_, err := m.collection(idx.collection).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: idx.field, Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("failed to index %s.%s: %w", idx.collection, idx.field, err)
		}
	}
	return nil
}

// Drop removes the three collections
func (m *Mongo) Drop(ctx context.Context) error {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpDrop))
	defer timer.ObserveDuration()

	for _, name := range []string{CollectionTrackPoint, CollectionActivity, CollectionUser} {
		if err := m.collection(name).Drop(ctx); err != nil {
			metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpDrop).Inc()
			return fmt.Errorf("failed to drop collection %s: %w", name, err)
		}
	}
	return nil
}

// InsertUser inserts a new user document
func (m *Mongo) InsertUser(ctx context.Context, u *User) error {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpInsertUser))
	defer timer.ObserveDuration()

	doc := *u
	if doc.Activities == nil {
		doc.Activities = []string{}
	}

	if _, err := m.collection(CollectionUser).InsertOne(ctx, doc); err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpInsertUser).Inc()
		return fmt.Errorf("failed to insert user %s: %w", u.ID, wrapMongoError(err))
	}
	return nil
}

// InsertActivity inserts a new activity document
func (m *Mongo) InsertActivity(ctx context.Context, a *Activity) error {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpInsertActivity))
	defer timer.ObserveDuration()

	doc := *a
	if doc.TrackPoints == nil {
		doc.TrackPoints = []string{}
	}

	if _, err := m.collection(CollectionActivity).InsertOne(ctx, doc); err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpInsertActivity).Inc()
		return fmt.Errorf("failed to insert activity %s: %w", a.ID, wrapMongoError(err))
	}
	return nil
}

// InsertTrackPoints bulk inserts trackpoints with a single ordered
// insertMany. Documents before a failing one remain stored.
func (m *Mongo) InsertTrackPoints(ctx context.Context, points []*TrackPoint) error {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpInsertTrackPoints))
	defer timer.ObserveDuration()

	if len(points) == 0 {
		return nil
	}

	docs := make([]interface{}, len(points))
	for i, p := range points {
		docs[i] = p
	}

	if _, err := m.collection(CollectionTrackPoint).InsertMany(ctx, docs); err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpInsertTrackPoints).Inc()
		return fmt.Errorf("failed to insert trackpoints: %w", wrapMongoError(err))
	}
	return nil
}

// Count returns the number of documents in a collection
func (m *Mongo) Count(ctx context.Context, collection string) (int64, error) {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpCount))
	defer timer.ObserveDuration()

	if _, ok := collectionTables[collection]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	n, err := m.collection(collection).CountDocuments(ctx, bson.D{})
	if err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpCount).Inc()
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return n, nil
}

// GetUser retrieves a user by ID. It returns nil, nil when the user does not exist.
func (m *Mongo) GetUser(ctx context.Context, id string) (*User, error) {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpGetUser))
	defer timer.ObserveDuration()

	var u User
	err := m.collection(CollectionUser).FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpGetUser).Inc()
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetActivity retrieves an activity by ID. It returns nil, nil when the
// activity does not exist.
func (m *Mongo) GetActivity(ctx context.Context, id string) (*Activity, error) {
	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpGetActivity))
	defer timer.ObserveDuration()

	var a Activity
	err := m.collection(CollectionActivity).FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpGetActivity).Inc()
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	a.StartDateTime = a.StartDateTime.UTC()
	a.EndDateTime = a.EndDateTime.UTC()
	return &a, nil
}

// ListTrackPoints returns an activity's trackpoints in the order recorded on
// the activity document
func (m *Mongo) ListTrackPoints(ctx context.Context, activityID string) ([]*TrackPoint, error) {
	activity, err := m.GetActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, nil
	}

	timer := prometheus.NewTimer(metrics.StoreOperationDuration.WithLabelValues(metrics.StoreOpListTrackPoints))
	defer timer.ObserveDuration()

	cursor, err := m.collection(CollectionTrackPoint).Find(ctx, bson.M{"activity_id": activityID})
	if err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpListTrackPoints).Inc()
		return nil, fmt.Errorf("failed to list trackpoints: %w", err)
	}
	defer cursor.Close(ctx)

	var found []*TrackPoint
	if err := cursor.All(ctx, &found); err != nil {
		metrics.StoreOperationErrorsTotal.WithLabelValues(metrics.StoreOpListTrackPoints).Inc()
		return nil, fmt.Errorf("failed to decode trackpoints: %w", err)
	}

	return orderTrackPoints(activity.TrackPoints, found), nil
}

// orderTrackPoints arranges points to follow ids. Points not named in ids are
// appended at the end in the order they were found.
func orderTrackPoints(ids []string, points []*TrackPoint) []*TrackPoint {
	byID := make(map[string]*TrackPoint, len(points))
	for _, p := range points {
		p.DateTime = p.DateTime.UTC()
		byID[p.ID] = p
	}

	ordered := make([]*TrackPoint, 0, len(points))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
			delete(byID, id)
		}
	}
	for _, p := range points {
		if _, ok := byID[p.ID]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// Ping checks that the server is reachable
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Close disconnects the client
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func wrapMongoError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
