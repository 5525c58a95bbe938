// Package sqlite stores discovered manifests in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const memoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS manifests (
	id TEXT PRIMARY KEY,
	root_url TEXT NOT NULL,
	day TEXT NOT NULL,
	source TEXT NOT NULL,
	discovered_at TEXT NOT NULL,
	UNIQUE (root_url, day)
);

CREATE TABLE IF NOT EXISTS manifest_pages (
	manifest_id TEXT NOT NULL REFERENCES manifests(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	url TEXT NOT NULL,
	PRIMARY KEY (manifest_id, position)
);
`

// DB is the manifest database. It lives in the cache directory next to the
// page cache.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB returns a DB for path. Use ":memory:" in tests.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open connects, applies pragmas and creates the schema if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("open manifest database: %w", err)
	}
	// One writer at a time; concurrent fetch workers share this handle.
	conn.SetMaxOpenConns(1)

	if err := setup(conn, db.path); err != nil {
		conn.Close()
		return err
	}
	db.db = conn
	return nil
}

func setup(conn *sql.DB, path string) error {
	if err := conn.Ping(); err != nil {
		return fmt.Errorf("connect to manifest database: %w", err)
	}

	pragmas := []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"}
	// WAL is unavailable for in-memory databases.
	if path != memoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the connection. It is safe to call on an unopened DB.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	return db.db.Close()
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, nil)
}
