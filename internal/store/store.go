// Package store persists saved snippets and the shared conversation log.
// Two backends implement the repository interfaces: SQLite (default) and
// flat JSON files.
package store

import (
	"errors"
	"time"

	"github.com/PSCyberGeek/forge-ai/internal/provider"
)

// MaxHistoryEntries caps the conversation log; the oldest entries are
// dropped first on overflow.
const MaxHistoryEntries = 100

// ErrStorage wraps backend read/write failures surfaced to handlers.
var ErrStorage = errors.New("storage error")

// Snippet is a named, saved piece of source code.
type Snippet struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// SnippetStore is flat CRUD over saved snippets.
type SnippetStore interface {
	// List returns all snippets in insertion order.
	List() ([]Snippet, error)

	// Add assigns a creation-time id and persists the snippet.
	Add(name, code, language string) (*Snippet, error)

	// Delete removes the snippet with the given id.
	// Deleting an unknown id is a no-op success.
	Delete(id int64) error
}

// HistoryStore persists the shared conversation log. The log is process-wide
// singleton state: one authorized user per deployment.
type HistoryStore interface {
	// All returns the full log, oldest first.
	All() ([]provider.Message, error)

	// Recent returns at most n of the newest entries, oldest first.
	Recent(n int) ([]provider.Message, error)

	// Append adds entries and truncates the log to MaxHistoryEntries.
	Append(msgs ...provider.Message) error

	// Clear removes every entry.
	Clear() error
}

// Store bundles both collections behind one handle.
type Store interface {
	SnippetStore
	HistoryStore
	Close() error
}

// newSnippetID derives an id from the creation-time clock reading.
// Collisions within the same millisecond are nudged forward rather than
// prevented; uniqueness checks happen against the loaded collection.
func newSnippetID(taken func(int64) bool) int64 {
	id := time.Now().UnixMilli()
	for taken(id) {
		id++
	}
	return id
}

// truncateHistory drops the oldest entries so len(msgs) <= MaxHistoryEntries.
func truncateHistory(msgs []provider.Message) []provider.Message {
	if len(msgs) > MaxHistoryEntries {
		return msgs[len(msgs)-MaxHistoryEntries:]
	}
	return msgs
}

// lastN returns at most n of the newest entries, oldest first.
func lastN(msgs []provider.Message, n int) []provider.Message {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
