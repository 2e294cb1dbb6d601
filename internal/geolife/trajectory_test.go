package geolife

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const pltHeader = `Geolife trajectory
WGS 84
Altitude is in Feet
Reserved 3
0,2,255,My Track,0,0,2,8421376
0
`

// buildPLT returns a .plt body with n rows one second apart starting at start
func buildPLT(start time.Time, n int) string {
	var b strings.Builder
	b.WriteString(pltHeader)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * time.Second)
		fmt.Fprintf(&b, "39.984702,116.318417,0,492,39744.1201851852,%s,%s\n",
			ts.Format("2006-01-02"), ts.Format("15:04:05"))
	}
	return b.String()
}

func TestReadTrajectory(t *testing.T) {
	content := pltHeader +
		"39.984702,116.318417,0,492,39744.1201851852,2008-10-23,02:53:04\n" +
		"39.984683,116.31845,0,-777,39744.1202546296,2008-10-23,02:53:10\n" +
		"39.984686,116.318417,0,492,39744.1203125,2008-10-23,02:53:15\n"

	points, err := ReadTrajectory(strings.NewReader(content), DefaultMaxTrackpoints)
	if err != nil {
		t.Fatalf("Failed to read trajectory: %v", err)
	}

	if len(points) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(points))
	}

	first := points[0]
	if first.Latitude != 39.984702 {
		t.Errorf("Expected latitude 39.984702, got %v", first.Latitude)
	}
	if first.Longitude != 116.318417 {
		t.Errorf("Expected longitude 116.318417, got %v", first.Longitude)
	}
	if first.Altitude != 492 {
		t.Errorf("Expected altitude 492, got %v", first.Altitude)
	}
	if first.DateDays != 39744.1201851852 {
		t.Errorf("Expected days 39744.1201851852, got %v", first.DateDays)
	}
	if got := FormatTimestamp(first.Time); got != "2008-10-23 02:53:04" {
		t.Errorf("Expected first timestamp 2008-10-23 02:53:04, got %s", got)
	}
	if got := FormatTimestamp(points[2].Time); got != "2008-10-23 02:53:15" {
		t.Errorf("Expected last timestamp 2008-10-23 02:53:15, got %s", got)
	}

	if !first.HasAltitude() {
		t.Error("Expected first point to have altitude")
	}
	if points[1].HasAltitude() {
		t.Error("Expected -777 altitude to be reported as unknown")
	}
}

func TestReadTrajectoryCRLFAndTrailingBlankLines(t *testing.T) {
	content := strings.ReplaceAll(buildPLT(time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC), 4), "\n", "\r\n") + "\r\n\r\n"

	points, err := ReadTrajectory(strings.NewReader(content), DefaultMaxTrackpoints)
	if err != nil {
		t.Fatalf("Failed to read trajectory: %v", err)
	}
	if len(points) != 4 {
		t.Errorf("Expected 4 points, got %d", len(points))
	}
}

func TestReadTrajectoryLimit(t *testing.T) {
	start := time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC)

	tests := []struct {
		name    string
		rows    int
		wantErr error
	}{
		{"single row", 1, nil},
		{"at limit", DefaultMaxTrackpoints, nil},
		{"one over limit", DefaultMaxTrackpoints + 1, ErrTooManyPoints},
		{"far over limit", 4000, ErrTooManyPoints},
		{"no rows", 0, ErrEmptyTrajectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := ReadTrajectory(strings.NewReader(buildPLT(start, tt.rows)), DefaultMaxTrackpoints)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				if points != nil {
					t.Errorf("Expected no points on error, got %d", len(points))
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(points) != tt.rows {
				t.Errorf("Expected %d points, got %d", tt.rows, len(points))
			}
		})
	}
}

func TestReadTrajectoryNoLimit(t *testing.T) {
	start := time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC)

	points, err := ReadTrajectory(strings.NewReader(buildPLT(start, 3000)), 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(points) != 3000 {
		t.Errorf("Expected 3000 points, got %d", len(points))
	}
}

func TestReadTrajectoryMalformed(t *testing.T) {
	good := "39.984702,116.318417,0,492,39744.1201851852,2008-10-23,02:53:04\n"

	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "39.984702,116.318417,0,492,39744.12,2008-10-23\n"},
		{"too many fields", "39.984702,116.318417,0,492,39744.12,2008-10-23,02:53:04,x\n"},
		{"bad latitude", "abc,116.318417,0,492,39744.12,2008-10-23,02:53:04\n"},
		{"bad longitude", "39.98,,0,492,39744.12,2008-10-23,02:53:04\n"},
		{"bad altitude", "39.98,116.31,0,high,39744.12,2008-10-23,02:53:04\n"},
		{"bad days", "39.98,116.31,0,492,soon,2008-10-23,02:53:04\n"},
		{"bad date", "39.98,116.31,0,492,39744.12,2008/10/23,02:53:04\n"},
		{"bad time", "39.98,116.31,0,492,39744.12,2008-10-23,25:61:00\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := pltHeader + good + tt.line + good
			points, err := ReadTrajectory(strings.NewReader(content), DefaultMaxTrackpoints)
			if !errors.Is(err, ErrMalformedLine) {
				t.Fatalf("Expected ErrMalformedLine, got %v", err)
			}
			if points != nil {
				t.Errorf("Expected no partial result, got %d points", len(points))
			}
			if !strings.Contains(err.Error(), "line 8") {
				t.Errorf("Expected error to name line 8, got %v", err)
			}
		})
	}
}

func TestParseTrajectoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "20081023025304.plt")
	start := time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC)
	if err := os.WriteFile(path, []byte(buildPLT(start, 400)), 0644); err != nil {
		t.Fatalf("Failed to write trajectory: %v", err)
	}

	points, err := ParseTrajectoryFile(path, DefaultMaxTrackpoints)
	if err != nil {
		t.Fatalf("Failed to parse trajectory: %v", err)
	}
	if len(points) != 400 {
		t.Errorf("Expected 400 points, got %d", len(points))
	}
	if !points[0].Time.Equal(start) {
		t.Errorf("Expected first time %v, got %v", start, points[0].Time)
	}

	if _, err := ParseTrajectoryFile(filepath.Join(t.TempDir(), "missing.plt"), DefaultMaxTrackpoints); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestReadTrajectoryKeepsOutOfRangeCoordinates(t *testing.T) {
	content := pltHeader +
		"39.984702,116.318417,0,492,39744.12,2008-10-23,02:53:04\n" +
		"400.166666666667,116.318417,0,492,39744.12,2008-10-23,02:53:06\n" +
		"39.98,181,0,492,39744.12,2008-10-23,02:53:08\n"

	points, err := ReadTrajectory(strings.NewReader(content), DefaultMaxTrackpoints)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(points))
	}
	if points[1].Latitude != 400.166666666667 {
		t.Errorf("Expected latitude stored as read, got %v", points[1].Latitude)
	}

	want := []bool{true, false, false}
	for i, p := range points {
		if p.ValidCoordinates() != want[i] {
			t.Errorf("Expected point %d valid=%v, got %v", i, want[i], p.ValidCoordinates())
		}
	}
}
