// Package audit appends a CSV row for every accepted video generation job.
package audit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Header is the first line of every audit file.
var Header = []string{"DateTime", "Prompt", "URLPath"}

const timeLayout = "2006-01-02T15:04:05Z"

// Entry is one audit record.
type Entry struct {
	DateTime time.Time
	Prompt   string
	URLPath  string
}

// Logger writes CSV audit records. It is safe for concurrent use.
type Logger struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewLogger returns a logger writing to path. An empty path disables it.
func NewLogger(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// Enabled reports whether records are written anywhere.
func (l *Logger) Enabled() bool {
	return l != nil && l.path != ""
}

// Path returns the audit file location.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// VideoURLPath is the upstream resource path recorded for a job id.
func VideoURLPath(id string) string {
	return "/v1/videos/generations/" + id
}

// RecordVideo appends one row for an accepted video job.
func (l *Logger) RecordVideo(prompt, id string) error {
	if !l.Enabled() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("audit mkdir: %w", err)
		}
	}

	needsHeader := true
	if info, err := os.Stat(l.path); err == nil && info.Size() > 0 {
		needsHeader = false
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit open: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if needsHeader {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("audit write header: %w", err)
		}
	}
	row := []string{l.now().UTC().Format(timeLayout), prompt, VideoURLPath(id)}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("audit write: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("audit flush: %w", err)
	}
	return nil
}

// ReadEntries parses an audit file. A missing file yields no entries.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("audit open: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	var entries []Entry
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("audit read: %w", err)
		}
		if line == 1 && rec[0] == Header[0] {
			continue
		}
		ts, err := time.Parse(timeLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("audit line %d: %w", line, err)
		}
		entries = append(entries, Entry{DateTime: ts, Prompt: rec[1], URLPath: rec[2]})
	}
	return entries, nil
}
