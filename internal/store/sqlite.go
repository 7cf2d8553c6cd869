package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PSCyberGeek/forge-ai/internal/provider"
	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS snippets (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    code       TEXT NOT NULL,
    language   TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS history (
    seq     INTEGER PRIMARY KEY AUTOINCREMENT,
    role    TEXT NOT NULL,
    content TEXT NOT NULL
);
`

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// ── Snippets ─────────────────────────────────────────────────────────────────

func (s *SQLiteStore) List() ([]Snippet, error) {
	rows, err := s.db.Query(`
		SELECT id, name, code, language, created_at
		FROM snippets ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("%w: list snippets: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []Snippet
	for rows.Next() {
		var sn Snippet
		var created string
		if err := rows.Scan(&sn.ID, &sn.Name, &sn.Code, &sn.Language, &created); err != nil {
			return nil, fmt.Errorf("%w: scan snippet: %v", ErrStorage, err)
		}
		sn.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, sn)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Add(name, code, language string) (*Snippet, error) {
	sn := &Snippet{
		Name:      name,
		Code:      code,
		Language:  language,
		CreatedAt: time.Now(),
	}
	sn.ID = newSnippetID(func(id int64) bool {
		var n int
		_ = s.db.QueryRow(`SELECT COUNT(*) FROM snippets WHERE id = ?`, id).Scan(&n)
		return n > 0
	})

	_, err := s.db.Exec(`
		INSERT INTO snippets (id, name, code, language, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		sn.ID, sn.Name, sn.Code, sn.Language,
		sn.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert snippet: %v", ErrStorage, err)
	}
	return sn, nil
}

func (s *SQLiteStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM snippets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete snippet: %v", ErrStorage, err)
	}
	return nil
}

// ── History ──────────────────────────────────────────────────────────────────

func (s *SQLiteStore) All() ([]provider.Message, error) {
	rows, err := s.db.Query(`SELECT role, content FROM history ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: load history: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []provider.Message
	for rows.Next() {
		var m provider.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("%w: scan history: %v", ErrStorage, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Recent(n int) ([]provider.Message, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	return lastN(all, n), nil
}

func (s *SQLiteStore) Append(msgs ...provider.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	for _, m := range msgs {
		if _, err := tx.Exec(`INSERT INTO history (role, content) VALUES (?, ?)`,
			string(m.Role), m.Content); err != nil {
			return fmt.Errorf("%w: append history: %v", ErrStorage, err)
		}
	}

	// Enforce the log cap: keep only the newest MaxHistoryEntries rows.
	if _, err := tx.Exec(`
		DELETE FROM history WHERE seq NOT IN (
			SELECT seq FROM history ORDER BY seq DESC LIMIT ?
		)`, MaxHistoryEntries); err != nil {
		return fmt.Errorf("%w: truncate history: %v", ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorage, err)
	}
	return nil
}

func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("%w: clear history: %v", ErrStorage, err)
	}
	return nil
}
