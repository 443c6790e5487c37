// Package storage provides the local task store for Tasktime, a badger
// database holding the task list used when the task API is unreachable.
package storage

import (
	"os"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/manav03panchal/tasktime/internal/errors"
)

// MemoryPath selects an in-memory database.
const MemoryPath = ":memory:"

// DB wraps a Badger database connection.
type DB struct {
	db   *badger.DB
	path string

	// MinFreeSpace is checked before writes to on-disk databases.
	MinFreeSpace uint64
}

// Options configures the database connection.
type Options struct {
	// Path is the database directory path. Empty string or ":memory:" uses
	// in-memory mode.
	Path string
	// InMemory forces in-memory mode regardless of Path.
	InMemory bool
	// MinFreeSpace is the free-space floor for writes. Zero disables the check.
	MinFreeSpace uint64
}

// Open opens or creates a database at the given path.
func Open(opts Options) (*DB, error) {
	var badgerOpts badger.Options
	path := opts.Path

	if opts.InMemory || path == "" || path == MemoryPath {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
		path = ""
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, errors.NewSystemErrorWithOp("open database", "cannot create data directory", err)
		}
		badgerOpts = badger.DefaultOptions(path)
	}

	// Reduce logging noise
	badgerOpts = badgerOpts.WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		if strings.Contains(err.Error(), "Cannot acquire directory lock") {
			return nil, errors.NewSystemErrorWithOp("open database", "database is in use", errors.ErrDatabaseLocked)
		}
		return nil, err
	}

	return &DB{db: db, path: path, MinFreeSpace: opts.MinFreeSpace}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the on-disk directory, or "" for in-memory databases.
func (d *DB) Path() string {
	return d.path
}

