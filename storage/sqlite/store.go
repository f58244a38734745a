// Package sqlite persists users and refresh token records in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	subject        TEXT NOT NULL UNIQUE,
	email          TEXT NOT NULL,
	name           TEXT NOT NULL DEFAULT '',
	picture        TEXT NOT NULL DEFAULT '',
	email_verified INTEGER NOT NULL DEFAULT 0,
	role           TEXT NOT NULL DEFAULT '',
	company_id     TEXT NOT NULL DEFAULT '',
	created_at     INTEGER NOT NULL,
	last_login     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	id          TEXT PRIMARY KEY,
	family_id   TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	token_hash  TEXT NOT NULL,
	issued_at   INTEGER NOT NULL,
	expires_at  INTEGER NOT NULL,
	revoked_at  INTEGER,
	replaced_by TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_refresh_tokens_family ON refresh_tokens (family_id);
CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires ON refresh_tokens (expires_at);
`

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements users.UserRepo and refresh.Repo over SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("[sqlite Open] storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("[sqlite Open] create dir: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("[sqlite Open] open db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("[sqlite Open] ping db: %w", err)
	}

	store := New(sqlDB)
	if err := store.Migrate(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an already opened database. The schema is not applied.
func New(sqlDB *sql.DB) *Store {
	return &Store{sqlDB: sqlDB}
}

// Migrate creates the tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("[sqlite Migrate] %w", err)
	}
	return nil
}

// Ping is used by the health check
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
