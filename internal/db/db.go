// Package db opens and initializes the shared sqlite store.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxOpenConns limits concurrent sqlite connections.
	MaxOpenConns = 10
	// MaxIdleConns limits pooled idle connections.
	MaxIdleConns = 5
)

// Store wraps the shared application database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and initializes the
// schema. key, when non-empty, is a 64-hex-character SQLCipher key; an empty
// key opens the database unencrypted.
func Open(path, key string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open(SQLiteDriverName, dsn(path, key))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func dsn(path, key string) string {
	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	if key != "" {
		params = append([]string{fmt.Sprintf("_pragma_key=x'%s'", strings.ToUpper(key))}, params...)
	}
	return path + "?" + strings.Join(params, "&")
}
