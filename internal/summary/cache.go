package summary

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/maypok86/otter"
)

const createSummariesTable = `
CREATE TABLE IF NOT EXISTS summaries (
	cache_key  TEXT PRIMARY KEY,
	provider   TEXT NOT NULL,
	summary    TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// Store persists summaries in SQLite behind an in-memory cache.
type Store struct {
	db  *sql.DB
	mem otter.Cache[string, string]
}

// OpenStore opens (creating if needed) the SQLite database at path.
// ":memory:" gives a throwaway store.
func OpenStore(path string, memEntries int) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// One connection so ":memory:" stays a single database.
	db.SetMaxOpenConns(1)

	store, err := NewStore(db, memEntries)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an open database, creating the schema if missing.
func NewStore(db *sql.DB, memEntries int) (*Store, error) {
	if _, err := db.Exec(createSummariesTable); err != nil {
		return nil, fmt.Errorf("failed to create summaries table: %w", err)
	}
	if memEntries < 1 {
		memEntries = 1
	}
	mem, err := otter.MustBuilder[string, string](memEntries).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &Store{db: db, mem: mem}, nil
}

// Key derives the cache key for one request.
func Key(provider, prompt, source string) string {
	h := sha256.New()
	for _, part := range []string{provider, prompt, source} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached summary for key.
func (s *Store) Get(key string) (string, bool, error) {
	if v, ok := s.mem.Get(key); ok {
		return v, true, nil
	}

	var summary string
	err := sq.Select("summary").
		From("summaries").
		Where(sq.Eq{"cache_key": key}).
		RunWith(s.db).
		QueryRow().
		Scan(&summary)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cached summary: %w", err)
	}

	s.mem.Set(key, summary)
	return summary, true, nil
}

// Put stores summary under key, replacing any previous value.
func (s *Store) Put(key, provider, summary string) error {
	_, err := sq.Insert("summaries").
		Columns("cache_key", "provider", "summary", "created_at").
		Values(key, provider, summary, time.Now().UTC().Format(time.RFC3339)).
		Options("OR REPLACE").
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}
	s.mem.Set(key, summary)
	return nil
}

// Len returns the number of persisted summaries.
func (s *Store) Len() (int, error) {
	var n int
	err := sq.Select("COUNT(*)").From("summaries").RunWith(s.db).QueryRow().Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count summaries: %w", err)
	}
	return n, nil
}

// Close closes the memory cache and the database.
func (s *Store) Close() error {
	s.mem.Close()
	return s.db.Close()
}

type cachingProvider struct {
	Provider
	store  *Store
	prompt string
}

// WithCache wraps p so identical requests are answered from store. Cache
// read and write failures are logged and otherwise ignored.
func WithCache(p Provider, store *Store, prompt string) Provider {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &cachingProvider{Provider: p, store: store, prompt: prompt}
}

func (c *cachingProvider) Summarize(ctx context.Context, source string) (string, error) {
	key := Key(c.Name(), c.prompt, source)

	summary, ok, err := c.store.Get(key)
	if err != nil {
		log.Printf("Warning: %v", err)
	} else if ok {
		return summary, nil
	}

	summary, err = c.Provider.Summarize(ctx, source)
	if err != nil {
		return "", err
	}

	if err := c.store.Put(key, c.Name(), summary); err != nil {
		log.Printf("Warning: %v", err)
	}
	return summary, nil
}
