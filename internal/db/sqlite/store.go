// Package sqlite implements db.Store on an embedded SQLite file.
// Vectors are scored in process with exact cosine similarity, which suits
// local development and small collections.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/catan-labs/catan/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		dim  INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS points (
		collection TEXT NOT NULL REFERENCES collections(name),
		id         TEXT NOT NULL,
		vector     BLOB NOT NULL,
		fields     TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	);`,
}

// Config holds the database location.
type Config struct {
	Path string
}

// Store implements db.Store on SQLite.
type Store struct {
	sqlDB *sql.DB
	mu    sync.Mutex
}

// NewStore opens or creates the database at cfg.Path and applies the schema.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", cfg.Path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	s := &Store{sqlDB: sqlDB}
	if err := s.migrate(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.sqlDB.ExecContext(ctx, stmt); err != nil {
			return &db.Error{Op: db.OpMigrate, Err: err}
		}
	}
	return nil
}

// Ping checks that the database file is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.sqlDB.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.sqlDB.Close()
}

// WaitForReady returns once Ping succeeds; a local file is ready immediately or never.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Ping(ctx)
}

// EnsureCollection registers the collection with its vector size unless it exists.
func (s *Store) EnsureCollection(ctx context.Context, name string, dim int) error {
	if name == "" {
		return errors.New("collection name is required")
	}
	if dim <= 0 {
		return fmt.Errorf("vector size must be positive, got %d", dim)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO collections (name, dim) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`, name, dim)
	if err != nil {
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	return nil
}

// dimension returns the vector size of a collection or ErrCollectionNotFound.
func (s *Store) dimension(ctx context.Context, q querier, name string) (int, error) {
	var dim int
	err := q.QueryRowContext(ctx, `SELECT dim FROM collections WHERE name = ?`, name).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", db.ErrCollectionNotFound, name)
	}
	if err != nil {
		return 0, err
	}
	return dim, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
