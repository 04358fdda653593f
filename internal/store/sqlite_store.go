package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/kittclouds/treeinduce/pkg/span"
)

// SQLiteStore is the SQLite-backed example store.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS examples (
    id TEXT PRIMARY KEY,
    tokens TEXT NOT NULL,
    tree TEXT,
    spans TEXT,
    length INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);

-- Batches group by sequence length, so make that lookup cheap.
CREATE INDEX IF NOT EXISTS idx_examples_length ON examples(length);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) UpsertExample(ex *Example) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := json.Marshal(ex.Tokens)
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}
	spans, err := json.Marshal(ex.Spans)
	if err != nil {
		return fmt.Errorf("marshal spans: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO examples (id, tokens, tree, spans, length, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tokens = excluded.tokens,
			tree = excluded.tree,
			spans = excluded.spans,
			length = excluded.length`,
		ex.ID, string(tokens), ex.Tree, string(spans), len(ex.Tokens), ex.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert example: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetExample(id string) (*Example, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, tokens, tree, spans, length, created_at
		FROM examples WHERE id = ?`, id)
	ex, err := scanExample(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ex, err
}

func (s *SQLiteStore) DeleteExample(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM examples WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete example: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListByLength(length int) ([]*Example, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, tokens, tree, spans, length, created_at
		FROM examples WHERE length = ? ORDER BY id`, length)
	if err != nil {
		return nil, fmt.Errorf("list examples: %w", err)
	}
	defer rows.Close()

	var out []*Example
	for rows.Next() {
		ex, err := scanExample(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Lengths() ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT DISTINCT length FROM examples ORDER BY length`)
	if err != nil {
		return nil, fmt.Errorf("list lengths: %w", err)
	}
	defer rows.Close()

	var lengths []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		lengths = append(lengths, n)
	}
	return lengths, rows.Err()
}

func (s *SQLiteStore) CountExamples() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM examples`).Scan(&count)
	return count, err
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanExample(row scanner) (*Example, error) {
	var ex Example
	var tokens, spans string
	var tree sql.NullString
	if err := row.Scan(&ex.ID, &tokens, &tree, &spans, &ex.Length, &ex.CreatedAt); err != nil {
		return nil, err
	}
	ex.Tree = tree.String
	if err := json.Unmarshal([]byte(tokens), &ex.Tokens); err != nil {
		return nil, fmt.Errorf("unmarshal tokens: %w", err)
	}
	if spans != "" {
		var list []span.Span
		if err := json.Unmarshal([]byte(spans), &list); err != nil {
			return nil, fmt.Errorf("unmarshal spans: %w", err)
		}
		ex.Spans = list
	}
	return &ex, nil
}
