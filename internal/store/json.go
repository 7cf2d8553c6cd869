package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/PSCyberGeek/forge-ai/internal/provider"
)

// FileStore implements Store over two flat JSON array documents
// (snippets.json and history.json). Every operation is a full
// read-modify-write of the backing file; a mutex serializes writers within
// this process. Parse failures degrade to an empty collection rather than
// failing the request.
type FileStore struct {
	mu          sync.Mutex
	snippetPath string
	historyPath string
}

// NewFileStore creates a flat-file store rooted at dataDir.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{
		snippetPath: filepath.Join(dataDir, "snippets.json"),
		historyPath: filepath.Join(dataDir, "history.json"),
	}, nil
}

func (s *FileStore) Close() error { return nil }

// ── Snippets ─────────────────────────────────────────────────────────────────

func (s *FileStore) List() ([]Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadSnippets(), nil
}

func (s *FileStore) Add(name, code, language string) (*Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snippets := s.loadSnippets()
	sn := Snippet{
		Name:      name,
		Code:      code,
		Language:  language,
		CreatedAt: time.Now(),
	}
	sn.ID = newSnippetID(func(id int64) bool {
		for _, existing := range snippets {
			if existing.ID == id {
				return true
			}
		}
		return false
	})

	snippets = append(snippets, sn)
	if err := writeJSON(s.snippetPath, snippets); err != nil {
		return nil, err
	}
	return &sn, nil
}

func (s *FileStore) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snippets := s.loadSnippets()
	kept := snippets[:0]
	for _, sn := range snippets {
		if sn.ID != id {
			kept = append(kept, sn)
		}
	}
	if len(kept) == len(snippets) {
		// Unknown id: no-op success, nothing to rewrite.
		return nil
	}
	return writeJSON(s.snippetPath, kept)
}

// ── History ──────────────────────────────────────────────────────────────────

func (s *FileStore) All() ([]provider.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadHistory(), nil
}

func (s *FileStore) Recent(n int) ([]provider.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lastN(s.loadHistory(), n), nil
}

func (s *FileStore) Append(msgs ...provider.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.loadHistory(), msgs...)
	return writeJSON(s.historyPath, truncateHistory(history))
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.historyPath, []provider.Message{})
}

// loadSnippets reads the snippet document. Missing or corrupt files yield an
// empty collection.
func (s *FileStore) loadSnippets() []Snippet {
	var out []Snippet
	readJSON(s.snippetPath, &out)
	return out
}

func (s *FileStore) loadHistory() []provider.Message {
	var out []provider.Message
	readJSON(s.historyPath, &out)
	return out
}

func readJSON(path string, v any) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, v)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrStorage, filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, filepath.Base(path), err)
	}
	return nil
}
