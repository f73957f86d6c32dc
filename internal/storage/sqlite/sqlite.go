// Package sqlite provides the SQLite-backed persistence for cuaderno:
// the device-local key-value store and, on the server side, user
// accounts and per-user snapshot documents.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/jortega/cuaderno/internal/auth"
	"github.com/jortega/cuaderno/internal/remote"
	"github.com/jortega/cuaderno/internal/storage"
)

// One Store serves both roles; a device only touches the kv table, the
// server only touches users and snapshots.
var (
	_ storage.Local    = (*Store)(nil)
	_ auth.UserStorage = (*Store)(nil)
	_ remote.Store     = (*Store)(nil)
)

// Store implements the persistence interfaces on a single SQLite file.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath, creating parent
// directories and running migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
