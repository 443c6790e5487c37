// Package sqlstore is the sqlite task repository behind `tasktime serve`.
package sqlstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/manav03panchal/tasktime/internal/errors"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	title         TEXT    NOT NULL,
	description   TEXT    NOT NULL DEFAULT '',
	priority      TEXT    NOT NULL,
	status        TEXT    NOT NULL,
	due_date      TEXT    NOT NULL DEFAULT '',
	time_logged   INTEGER NOT NULL DEFAULT 0,
	started_at    INTEGER,
	assigned_user TEXT    NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

// Open opens (creating if needed) the sqlite database at path and applies
// the schema.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	if path == "" {
		return nil, errors.Wrap(errors.ErrNotConfigured, "sqlite path")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.NewSystemErrorWithOp("open sqlite", "cannot create database directory", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewSystemErrorWithOp("open sqlite", "cannot open database", err)
	}
	// SQLite works best with a single writer, and :memory: is per connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=5000;"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, errors.NewSystemErrorWithOp("open sqlite", "cannot configure database", err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.NewSystemErrorWithOp("migrate sqlite", "cannot create schema", err)
	}
	return db, nil
}
