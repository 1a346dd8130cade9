// Package audit writes the append-only status log. One timestamped line per
// status transition; free-form text, nothing else parses it.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Log appends transition lines to a file. Safe to keep open for the life of
// a watch daemon.
type Log struct {
	runID string
	file  *os.File
}

// Open creates (or appends to) the log at path, creating parent directories
// as needed. Every Open gets a fresh run ID so overlapping runs can be told
// apart in a shared file.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return &Log{runID: uuid.NewString()[:8], file: f}, nil
}

// Transition records a status change.
func (l *Log) Transition(target, mode, from, to string, pass, total int) error {
	line := fmt.Sprintf("%s run=%s target=%s mode=%s status=%s previous=%s checks=%d/%d\n",
		time.Now().UTC().Format(time.RFC3339), l.runID, target, mode, to, from, pass, total)
	if _, err := l.file.WriteString(line); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	return nil
}

// Close releases the underlying file.
func (l *Log) Close() error { return l.file.Close() }
