// Package store implements warden's persistence layer: a connection-pooled
// handle on a relational database, a generic repository/query engine, and
// the entity stores for users and sessions.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"  // mysql driver
	_ "github.com/jackc/pgx/v5/stdlib"  // postgres driver (database/sql mode)
	_ "modernc.org/sqlite"              // sqlite driver
)

// Config selects the backing database and its pool limits.
type Config struct {
	Driver          string        // sqlite, postgres, or mysql
	DSN             string        // driver-specific; ":memory:" for sqlite in-memory
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns an embedded SQLite store rooted at path.
func DefaultConfig(path string) Config {
	return Config{
		Driver:          "sqlite",
		DSN:             path + "?_journal_mode=WAL&_busy_timeout=5000",
		MaxOpenConns:    1, // SQLite has a single writer
		MaxIdleConns:    1,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Store owns the process-wide connection pool. It is initialized once at
// startup and closed at shutdown; requests borrow scoped connections from
// the pool through the repositories and never share them concurrently.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
}

// Open connects to the configured database, applies pool limits, and runs
// the idempotent schema bootstrap.
func Open(cfg Config) (*Store, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	driverName := cfg.Driver
	if cfg.Driver == "postgres" {
		driverName = "pgx"
	}

	db, err := sqlx.Connect(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if cfg.Driver == "sqlite" {
		// Off by default in SQLite; sessions.user_id depends on it.
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Ping reports whether the database is reachable. Used by the readiness
// probe; connectivity failure surfaces as a boolean, not a fatal error.
func (s *Store) Ping(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}
