package geolife

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
)

type labelKey struct {
	start string
	end   string
}

// LabelTable maps an exact (start, end) interval to a transportation mode.
// It belongs to a single user; build a new one for every user directory.
type LabelTable struct {
	modes   map[labelKey]string
	skipped int
}

// NewLabelTable returns an empty table
func NewLabelTable() *LabelTable {
	return &LabelTable{modes: make(map[labelKey]string)}
}

// Add records mode for the interval. Both timestamps are normalized first.
// A later entry for the same interval replaces an earlier one.
func (t *LabelTable) Add(start, end, mode string) error {
	s, err := NormalizeTimestamp(start)
	if err != nil {
		return err
	}
	e, err := NormalizeTimestamp(end)
	if err != nil {
		return err
	}
	t.modes[labelKey{start: s, end: e}] = strings.TrimSpace(mode)
	return nil
}

// Match returns the mode labelled for exactly [start, end]. There is no
// tolerance window: an interval that differs by one second does not match.
func (t *LabelTable) Match(start, end time.Time) (string, bool) {
	if t == nil {
		return "", false
	}
	mode, ok := t.modes[labelKey{start: FormatTimestamp(start), end: FormatTimestamp(end)}]
	if !ok || mode == "" {
		return "", false
	}
	return mode, true
}

// Len is the number of labelled intervals
func (t *LabelTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.modes)
}

// Skipped is the number of label lines that could not be parsed
func (t *LabelTable) Skipped() int {
	if t == nil {
		return 0
	}
	return t.skipped
}

// LoadLabels reads a user's labels.txt. The boolean result reports whether
// the file exists, and stays true when it exists but cannot be read; a
// missing file yields an empty table and no error.
func LoadLabels(path string) (*LabelTable, bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewLabelTable(), false, nil
	}
	if err != nil {
		return nil, true, fmt.Errorf("failed to open labels: %w", err)
	}
	defer f.Close()

	table, err := ReadLabels(f)
	if err != nil {
		return nil, true, err
	}
	return table, true, nil
}

// ReadLabels parses tab-separated "start<TAB>end<TAB>mode" rows after a single
// header line. Rows that do not have three fields or carry unparseable
// timestamps are skipped and counted.
func ReadLabels(r io.Reader) (*LabelTable, error) {
	table := NewLabelTable()
	scanner := bufio.NewScanner(r)

	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) != 3 {
			table.skipped++
			continue
		}
		if err := table.Add(parts[0], parts[1], parts[2]); err != nil {
			table.skipped++
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}

	return table, nil
}

// NormalizeTimestamp accepts "2008/10/23 02:53:04" or "2008-10-23 02:53:04"
// and renders it through FormatTimestamp.
func NormalizeTimestamp(s string) (string, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "/", "-")
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid label timestamp %q: %w", s, err)
	}
	return FormatTimestamp(t), nil
}
