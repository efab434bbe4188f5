package history

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLogAppendAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "uploads.json")
	l := Open(path, 10)

	for _, title := range []string{"first", "second", "third"} {
		if err := l.Append(Entry{Title: title, Success: true}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	entries := l.List()
	if len(entries) != 3 {
		t.Fatalf("List() len = %d, want 3", len(entries))
	}
	if entries[0].Title != "third" || entries[2].Title != "first" {
		t.Errorf("List() should be newest first, got %q..%q", entries[0].Title, entries[2].Title)
	}
	if entries[0].ID == "" || entries[0].SubmittedAt.IsZero() {
		t.Errorf("Append() should fill ID and SubmittedAt: %+v", entries[0])
	}

	reopened := Open(path, 10)
	if reopened.Len() != 3 {
		t.Errorf("reopened Len() = %d, want 3", reopened.Len())
	}
}

func TestLogDropsOldest(t *testing.T) {
	l := Open("", 2)

	_ = l.Append(Entry{Title: "a"})
	_ = l.Append(Entry{Title: "b"})
	_ = l.Append(Entry{Title: "c"})

	entries := l.List()
	if len(entries) != 2 {
		t.Fatalf("Len = %d, want 2", len(entries))
	}
	if entries[0].Title != "c" || entries[1].Title != "b" {
		t.Errorf("entries = %q, %q; want c, b", entries[0].Title, entries[1].Title)
	}
}

func TestLogClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uploads.json")
	l := Open(path, 5)
	_ = l.Append(Entry{Title: "a"})

	if err := l.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d after Clear", l.Len())
	}
	if Open(path, 5).Len() != 0 {
		t.Error("Clear() was not persisted")
	}
}

func TestLogIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uploads.json")
	_ = os.WriteFile(path, []byte("{not json"), 0644)

	l := Open(path, 5)
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
	if err := l.Append(Entry{Title: "fresh"}); err != nil {
		t.Errorf("Append() error = %v", err)
	}
}

func TestLogListIsCopy(t *testing.T) {
	l := Open("", 5)
	_ = l.Append(Entry{Title: "a"})

	entries := l.List()
	entries[0].Title = "mutated"

	if l.List()[0].Title != "a" {
		t.Error("List() exposes internal state")
	}
}
