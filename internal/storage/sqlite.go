package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// Store owns the SQLite handle that repositories share.
type Store struct {
	db     *sql.DB
	tables map[string]struct{}
	dbPath string
	mu     sync.Mutex
}

// NewStore opens (creating if needed) the SQLite database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != MemoryPath {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive between calls
	// and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		db:     db,
		dbPath: dbPath,
		tables: make(map[string]struct{}),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the location the store was opened with.
func (s *Store) Path() string {
	return s.dbPath
}

// Tables returns the names of tables opened through this store, sorted.
func (s *Store) Tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewCheckpointManager creates a new checkpoint manager for this store.
func (s *Store) NewCheckpointManager() (*CheckpointManager, error) {
	return NewCheckpointManager(s)
}

func (s *Store) register(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = struct{}{}
}

// withTx runs fn inside a transaction that is committed when fn succeeds
// and rolled back on every other path.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
