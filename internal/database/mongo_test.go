package database

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"geolife-loader/internal/config"
)

func TestMongoURI(t *testing.T) {
	tests := []struct {
		name string
		opts MongoOptions
		want string
	}{
		{
			name: "no credentials",
			opts: MongoOptions{Host: "localhost", Port: 27017},
			want: "mongodb://localhost:27017/",
		},
		{
			name: "credentials",
			opts: MongoOptions{Host: "db", Port: 27018, Username: "loader", Password: "secret"},
			want: "mongodb://loader:secret@db:27018/",
		},
		{
			name: "escaped password",
			opts: MongoOptions{Host: "db", Port: 27017, Username: "loader", Password: "p@ss/word"},
			want: "mongodb://loader:p%40ss%2Fword@db:27017/",
		},
		{
			name: "ipv6 host",
			opts: MongoOptions{Host: "::1", Port: 27017},
			want: "mongodb://[::1]:27017/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.URI(); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestMongoOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		MongoHost:           "db",
		MongoPort:           27019,
		MongoDatabase:       "geolife",
		MongoUsername:       "u",
		MongoPassword:       "p",
		MongoConnectTimeout: 2 * time.Second,
	}

	opts := MongoOptionsFromConfig(cfg)
	if opts.Host != "db" || opts.Port != 27019 || opts.Database != "geolife" {
		t.Errorf("Unexpected options: %+v", opts)
	}
	if opts.Username != "u" || opts.Password != "p" {
		t.Errorf("Expected credentials u/p, got %s/%s", opts.Username, opts.Password)
	}
	if opts.ConnectTimeout != 2*time.Second {
		t.Errorf("Expected timeout 2s, got %v", opts.ConnectTimeout)
	}
}

func TestOrderTrackPoints(t *testing.T) {
	found := []*TrackPoint{{ID: "b"}, {ID: "stray"}, {ID: "c"}, {ID: "a"}}

	ordered := orderTrackPoints([]string{"a", "b", "c", "missing"}, found)

	want := []string{"a", "b", "c", "stray"}
	if len(ordered) != len(want) {
		t.Fatalf("Expected %d trackpoints, got %d", len(want), len(ordered))
	}
	for i, id := range want {
		if ordered[i].ID != id {
			t.Errorf("Expected position %d to be %s, got %s", i, id, ordered[i].ID)
		}
	}
}

func TestActivityDocumentOmitsEmptyMode(t *testing.T) {
	activity := testActivity("a1", "000", "t1")

	raw, err := bson.Marshal(activity)
	if err != nil {
		t.Fatalf("Failed to marshal activity: %v", err)
	}

	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Failed to unmarshal activity: %v", err)
	}
	if _, ok := doc["transportation_mode"]; ok {
		t.Error("Expected transportation_mode to be absent when no label matched")
	}
	if doc["_id"] != "a1" {
		t.Errorf("Expected _id a1, got %v", doc["_id"])
	}
	if doc["user_id"] != "000" {
		t.Errorf("Expected user_id 000, got %v", doc["user_id"])
	}

	activity.TransportationMode = "walk"
	raw, _ = bson.Marshal(activity)
	doc = bson.M{}
	bson.Unmarshal(raw, &doc)
	if doc["transportation_mode"] != "walk" {
		t.Errorf("Expected transportation_mode walk, got %v", doc["transportation_mode"])
	}
}
