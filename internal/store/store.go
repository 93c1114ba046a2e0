// Package store persists tract, asset, and nonprofit registry data in a
// local SQLite file and exposes the derived tract-profile scoring view.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database holding one loaded region.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The dashboard is single-user and SQLite writes serialize anyway.
	db.SetMaxOpenConns(1)

	return &Store{db: db, path: path, logger: logger}, nil
}

// Init applies the schema, dropping any prior contents.
func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	s.logger.Debug("schema applied", "path", s.path)
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CheckReadiness reports whether the scoring view is queryable. An empty
// view is still ready; the dashboard renders an empty state.
func (s *Store) CheckReadiness(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vw_tract_profile`).Scan(&n); err != nil {
		return fmt.Errorf("tract profile view not queryable: %w", err)
	}
	return nil
}
