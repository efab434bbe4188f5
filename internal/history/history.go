package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultLimit = 200

// Entry records one submission attempt, demo or real.
type Entry struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Mode         string    `json:"mode"`
	Success      bool      `json:"success"`
	VideoID      string    `json:"videoId,omitempty"`
	VideoURL     string    `json:"videoUrl,omitempty"`
	Error        string    `json:"error,omitempty"`
	ScheduleTime string    `json:"scheduleTime,omitempty"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// Log is a bounded, file-backed submission history. When full, the oldest
// entry is dropped. An empty path keeps the log in memory only.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	path    string
	limit   int
}

func Open(path string, limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	l := &Log{
		entries: make([]Entry, 0, min(limit, 16)),
		path:    path,
		limit:   limit,
	}
	l.load()
	return l
}

func (l *Log) Append(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = append([]Entry(nil), l.entries[over:]...)
	}
	return l.save()
}

// List returns entries newest first.
func (l *Log) List() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[len(l.entries)-1-i] = e
	}
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
	return l.save()
}

func (l *Log) load() {
	if l.path == "" {
		return
	}

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		slog.Warn("Failed to read history", "path", l.path, "error", err)
		return
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("Ignoring corrupt history file", "path", l.path, "error", err)
		return
	}

	if over := len(entries) - l.limit; over > 0 {
		entries = entries[over:]
	}
	l.entries = entries
}

func (l *Log) save() error {
	if l.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
