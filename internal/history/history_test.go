package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendRecent_OldestFirst(t *testing.T) {
	s := openTestStore(t)

	for _, sql := range []string{"SELECT 1", "SELECT 2", "SELECT 3"} {
		if err := s.Append(Entry{Time: time.Now(), Tool: "analyze", SQL: sql}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := s.Recent(0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, want := range []string{"SELECT 1", "SELECT 2", "SELECT 3"} {
		if entries[i].SQL != want {
			t.Errorf("entries[%d].SQL = %q, want %q", i, entries[i].SQL, want)
		}
	}
}

func TestRecent_WindowKeepsNewest(t *testing.T) {
	s := openTestStore(t)

	for _, sql := range []string{"SELECT 1", "SELECT 2", "SELECT 3", "SELECT 4", "SELECT 5"} {
		if err := s.Append(Entry{Tool: "optimize", SQL: sql}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].SQL != "SELECT 4" || entries[1].SQL != "SELECT 5" {
		t.Errorf("window = %q, %q, want the two newest oldest-first", entries[0].SQL, entries[1].SQL)
	}
}

func TestRecent_EmptyStore(t *testing.T) {
	s := openTestStore(t)

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries from empty store", len(entries))
	}
}

func TestReopen_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Append(Entry{Tool: "indexes", SQL: "SELECT id FROM t"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	entries, err := s2.Recent(0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 || entries[0].SQL != "SELECT id FROM t" {
		t.Errorf("entries after reopen = %+v", entries)
	}
	if entries[0].Tool != "indexes" {
		t.Errorf("Tool = %q, want indexes", entries[0].Tool)
	}
}

func TestOpen_BadPath(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("expected error opening a directory as the database")
	}
}
