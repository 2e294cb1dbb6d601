package geolife

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/s2"
)

const (
	// DefaultMaxTrackpoints is the largest trajectory that is loaded as an activity
	DefaultMaxTrackpoints = 2500

	// UnknownAltitude is the altitude value Geolife writes when no altitude was recorded
	UnknownAltitude = -777

	// TimestampLayout is the single textual form used for trackpoint and label timestamps
	TimestampLayout = "2006-01-02 15:04:05"

	headerLines = 6
	pltColumns  = 7
)

var (
	ErrTooManyPoints   = errors.New("trajectory exceeds trackpoint limit")
	ErrEmptyTrajectory = errors.New("trajectory has no trackpoints")
	ErrMalformedLine   = errors.New("malformed trajectory line")
)

// Trackpoint is one parsed row of a .plt file
type Trackpoint struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
	DateDays  float64
	Time      time.Time // wall-clock time, no zone recorded
}

// HasAltitude reports whether the altitude is a real measurement
func (p Trackpoint) HasAltitude() bool {
	return p.Altitude != UnknownAltitude
}

// ValidCoordinates reports whether the point lies within the latitude and
// longitude ranges. Geolife contains rows that do not; they are kept as read.
func (p Trackpoint) ValidCoordinates() bool {
	return s2.LatLngFromDegrees(p.Latitude, p.Longitude).IsValid()
}

// ParseTrajectoryFile reads a .plt file from disk. See ReadTrajectory.
func ParseTrajectoryFile(path string, maxPoints int) ([]Trackpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trajectory: %w", err)
	}
	defer f.Close()

	return ReadTrajectory(f, maxPoints)
}

// ReadTrajectory parses Geolife .plt content. The first six lines are metadata
// and are discarded. Every remaining non-blank line must hold seven
// comma-separated fields:
//
//	latitude,longitude,0,altitude,days,date,time
//
// A single bad line rejects the whole trajectory. If maxPoints is positive and
// the trajectory holds more rows than that, ErrTooManyPoints is returned as
// soon as the extra row is reached.
func ReadTrajectory(r io.Reader, maxPoints int) ([]Trackpoint, error) {
	scanner := bufio.NewScanner(r)

	var points []Trackpoint
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo <= headerLines {
			continue
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if maxPoints > 0 && len(points) == maxPoints {
			return nil, fmt.Errorf("%w: more than %d rows", ErrTooManyPoints, maxPoints)
		}

		p, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedLine, lineNo, err)
		}
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trajectory: %w", err)
	}

	if len(points) == 0 {
		return nil, ErrEmptyTrajectory
	}
	return points, nil
}

func parseRow(line string) (Trackpoint, error) {
	fields := strings.Split(line, ",")
	if len(fields) != pltColumns {
		return Trackpoint{}, fmt.Errorf("expected %d fields, got %d", pltColumns, len(fields))
	}

	var p Trackpoint
	var err error
	if p.Latitude, err = parseFloat("latitude", fields[0]); err != nil {
		return Trackpoint{}, err
	}
	if p.Longitude, err = parseFloat("longitude", fields[1]); err != nil {
		return Trackpoint{}, err
	}
	if p.Altitude, err = parseFloat("altitude", fields[3]); err != nil {
		return Trackpoint{}, err
	}
	if p.DateDays, err = parseFloat("days", fields[4]); err != nil {
		return Trackpoint{}, err
	}

	stamp := strings.TrimSpace(fields[5]) + " " + strings.TrimSpace(fields[6])
	p.Time, err = time.Parse(TimestampLayout, stamp)
	if err != nil {
		return Trackpoint{}, fmt.Errorf("invalid timestamp %q: %v", stamp, err)
	}

	return p, nil
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

// FormatTimestamp renders t the way trackpoint and label timestamps are compared
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
