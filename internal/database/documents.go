package database

import (
	"errors"
	"time"
)

// Collection names
const (
	CollectionUser       = "User"
	CollectionActivity   = "Activity"
	CollectionTrackPoint = "TrackPoint"
)

var (
	// ErrDuplicate is wrapped by insert errors caused by an existing _id
	ErrDuplicate = errors.New("duplicate document id")

	ErrUnknownCollection = errors.New("unknown collection")
)

// User is one Geolife subject. ID is the three-digit folder name and keeps
// its leading zeros.
type User struct {
	ID         string   `bson:"_id" json:"_id"`
	HasLabels  bool     `bson:"has_labels" json:"has_labels"`
	Activities []string `bson:"activities" json:"activities"`
}

// Activity is one trajectory file. TrackPoints holds the trackpoint ids in
// file order. TransportationMode is empty, and omitted on the wire, when no
// label matched.
type Activity struct {
	ID                 string    `bson:"_id" json:"_id"`
	UserID             string    `bson:"user_id" json:"user_id"`
	TransportationMode string    `bson:"transportation_mode,omitempty" json:"transportation_mode,omitempty"`
	StartDateTime      time.Time `bson:"start_date_time" json:"start_date_time"`
	EndDateTime        time.Time `bson:"end_date_time" json:"end_date_time"`
	TrackPoints        []string  `bson:"trackpoints" json:"trackpoints"`
}

// TrackPoint is one GPS sample referencing its activity
type TrackPoint struct {
	ID         string    `bson:"_id" json:"_id"`
	ActivityID string    `bson:"activity_id" json:"activity_id"`
	Latitude   float64   `bson:"lat" json:"lat"`
	Longitude  float64   `bson:"lon" json:"lon"`
	Altitude   float64   `bson:"altitude" json:"altitude"`
	DateDays   float64   `bson:"date_days" json:"date_days"`
	DateTime   time.Time `bson:"date_time" json:"date_time"`
}
