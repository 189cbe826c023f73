// Package sqlite implements the Carthorse export database: a portable SQLite
// file holding processed trails, the routing graph, and route
// recommendations for a region.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// Backend wraps a single export database file. It is not attached until
// Attach or AttachFresh is called; all operations on a detached backend
// return ErrDetached.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	path     string
	db       *sql.DB
}

// NewBackend creates an unattached backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database at path, creating it and its schema if absent.
// Returns ErrAttached if already attached.
func (b *Backend) Attach(path string) error {
	return b.attach(path, false)
}

// AttachFresh removes any existing database at path before opening, so a
// build always starts from an empty schema.
func (b *Backend) AttachFresh(path string) error {
	return b.attach(path, true)
}

func (b *Backend) attach(path string, fresh bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAttached
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	if fresh {
		_ = os.Remove(path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("apply schema: %w", err)
	}

	b.db = db
	b.path = path
	b.attached = true
	return nil
}

// Detach closes the database. Idempotent; after Detach all operations return
// ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// Path returns the database file path, or "" when detached.
func (b *Backend) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// conn returns the open handle, or ErrDetached. Callers hold no lock; the
// sql.DB is itself safe for concurrent use.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.db, nil
}
