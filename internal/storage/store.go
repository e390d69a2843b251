// Package storage owns the single SQLite session backing the registry and
// exposes the execute/query/transaction primitives every other component
// builds on.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store wraps the process-wide database session.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open establishes the SQLite session. Foreign keys are enabled so the
// ownership cascades in the schema are enforced by the store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer, single session: the core is synchronous and the store
	// must behave as one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// NewStore wraps an existing database handle. Used by tests that substitute
// a mock driver.
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Close releases the session.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for report queries that manage their own
// row scanning.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Execute runs a parameterized statement.
func (s *Store) Execute(ctx context.Context, stmt string, args ...any) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, normalizeErr(err)
	}
	return res, nil
}

// Query runs a parameterized query and returns its rows.
func (s *Store) Query(ctx context.Context, stmt string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, normalizeErr(err)
	}
	return rows, nil
}

// QueryRow runs a parameterized single-row query.
func (s *Store) QueryRow(ctx context.Context, stmt string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, stmt, args...)
}

// WithTx runs fn inside one transaction, committing on success and rolling
// back on any failure. The returned error wraps the original cause.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return fmt.Errorf("%w: %w", ErrTxFailed, normalizeErr(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrTxFailed, normalizeErr(err))
	}
	return nil
}
