package store

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s, dir
}

func TestFileStore_SnippetCRUD(t *testing.T) {
	s, _ := newTestFileStore(t)
	testSnippetCRUD(t, s)
}

func TestFileStore_SnippetIDsUnique(t *testing.T) {
	s, _ := newTestFileStore(t)
	testSnippetIDsUnique(t, s)
}

func TestFileStore_HistoryCap(t *testing.T) {
	s, _ := newTestFileStore(t)
	testHistoryCap(t, s)
}

func TestFileStore_HistoryRecentAndClear(t *testing.T) {
	s, _ := newTestFileStore(t)
	testHistoryRecentAndClear(t, s)
}

func TestFileStore_CorruptFileDegradesToEmpty(t *testing.T) {
	s, dir := newTestFileStore(t)

	for _, name := range []string{"snippets.json", "history.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{not json"), 0644); err != nil {
			t.Fatalf("write corrupt file: %v", err)
		}
	}

	snippets, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snippets) != 0 {
		t.Errorf("List = %+v, want empty", snippets)
	}

	history, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("All = %+v, want empty", history)
	}

	// Writes still work after corruption: the store starts fresh.
	if _, err := s.Add("fresh", "print(1)", "python"); err != nil {
		t.Fatalf("Add after corruption: %v", err)
	}
	snippets, _ = s.List()
	if len(snippets) != 1 {
		t.Fatalf("len(snippets) = %d, want 1", len(snippets))
	}
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	s, dir := newTestFileStore(t)

	sn, err := s.Add("keep", "print('hi')", "python")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	list, _ := reopened.List()
	if len(list) != 1 || list[0].ID != sn.ID {
		t.Fatalf("List after reopen = %+v, want the saved snippet", list)
	}
}
