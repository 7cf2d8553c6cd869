package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/PSCyberGeek/forge-ai/internal/provider"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "forge.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_SnippetCRUD(t *testing.T) {
	s := newTestSQLite(t)
	testSnippetCRUD(t, s)
}

func TestSQLite_SnippetIDsUnique(t *testing.T) {
	s := newTestSQLite(t)
	testSnippetIDsUnique(t, s)
}

func TestSQLite_HistoryCap(t *testing.T) {
	s := newTestSQLite(t)
	testHistoryCap(t, s)
}

func TestSQLite_HistoryRecentAndClear(t *testing.T) {
	s := newTestSQLite(t)
	testHistoryRecentAndClear(t, s)
}

// ── Shared backend conformance checks ────────────────────────────────────────

func testSnippetCRUD(t *testing.T, s Store) {
	t.Helper()

	sn, err := s.Add("fib", "def fib(n): ...", "python")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sn.ID == 0 {
		t.Fatal("expected non-zero snippet id")
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != sn.ID || list[0].Name != "fib" {
		t.Fatalf("List = %+v, want the saved snippet", list)
	}

	if err := s.Delete(sn.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ = s.List()
	if len(list) != 0 {
		t.Fatalf("List after delete = %+v, want empty", list)
	}

	// Deleting again is a no-op success.
	if err := s.Delete(sn.ID); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func testSnippetIDsUnique(t *testing.T, s Store) {
	t.Helper()

	seen := make(map[int64]bool)
	for i := 0; i < 10; i++ {
		sn, err := s.Add(fmt.Sprintf("s%d", i), "code", "python")
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if seen[sn.ID] {
			t.Fatalf("duplicate snippet id %d", sn.ID)
		}
		seen[sn.ID] = true
	}
}

func testHistoryCap(t *testing.T, s Store) {
	t.Helper()

	for i := 0; i < 60; i++ {
		err := s.Append(
			provider.Message{Role: provider.RoleUser, Content: fmt.Sprintf("q%d", i)},
			provider.Message{Role: provider.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != MaxHistoryEntries {
		t.Fatalf("len(history) = %d, want %d", len(all), MaxHistoryEntries)
	}
	// FIFO truncation: the oldest entries are gone, the newest survive.
	if all[0].Content != "q10" {
		t.Errorf("oldest entry = %q, want q10", all[0].Content)
	}
	if all[len(all)-1].Content != "a59" {
		t.Errorf("newest entry = %q, want a59", all[len(all)-1].Content)
	}
}

func testHistoryRecentAndClear(t *testing.T, s Store) {
	t.Helper()

	for i := 0; i < 30; i++ {
		if err := s.Append(provider.Message{Role: provider.RoleUser, Content: fmt.Sprintf("m%d", i)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	recent, err := s.Recent(20)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 20 {
		t.Fatalf("len(recent) = %d, want 20", len(recent))
	}
	if recent[0].Content != "m10" || recent[19].Content != "m29" {
		t.Errorf("recent window = %q..%q, want m10..m29", recent[0].Content, recent[19].Content)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	all, _ := s.All()
	if len(all) != 0 {
		t.Fatalf("len(history) after clear = %d, want 0", len(all))
	}
}
