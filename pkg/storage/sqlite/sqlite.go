// Package sqlite implements storage.Storage on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a key-value store backed by SQLite.
type Store struct {
	db *sql.DB
}

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// New opens (or creates) the database at dbPath and runs auto-migration.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	if _, err := db.Exec(createKVTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate storage db: %w", err)
	}

	return &Store{db: db}, nil
}

// Get implements storage.Storage.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage get: %w", err)
	}
	return value, true, nil
}

// Set implements storage.Storage.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage set: %w", err)
	}
	return nil
}

// Remove implements storage.Storage.
func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("storage remove: %w", err)
	}
	return nil
}

// ListKeysWithPrefix implements storage.Storage.
// LIKE wildcards in prefix are escaped so they match literally.
func (s *Store) ListKeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeLike(prefix) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv_entries WHERE key LIKE ? ESCAPE '\' ORDER BY key`, pattern)
	if err != nil {
		return nil, fmt.Errorf("storage list: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("storage list: %w", err)
		}
		// LIKE is case-insensitive for ASCII in SQLite.
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, rows.Err()
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
