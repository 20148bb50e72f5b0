// Package db provides SQLite persistence for the server inventory.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const defaultBusyTimeoutMs = 5000

// Options configures how the database is opened.
type Options struct {
	// Path is the SQLite database file path.
	Path string

	// BusyTimeoutMs is how long to wait for a locked database.
	BusyTimeoutMs int
}

// DB wraps the SQL handle.
type DB struct {
	*sql.DB
}

// Open opens (and migrates) the inventory database at the given path.
func Open(opts Options) (*DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if opts.BusyTimeoutMs <= 0 {
		opts.BusyTimeoutMs = defaultBusyTimeoutMs
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		opts.Path, opts.BusyTimeoutMs)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.migrate(context.Background()); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS servers (
			hostname               TEXT PRIMARY KEY,
			username               TEXT NOT NULL,
			port                   INTEGER NOT NULL DEFAULT 22,
			password               TEXT NOT NULL DEFAULT '',
			private_key_path       TEXT NOT NULL DEFAULT '',
			private_key_passphrase TEXT NOT NULL DEFAULT '',
			group_name             TEXT NOT NULL DEFAULT 'default',
			description            TEXT NOT NULL DEFAULT '',
			enabled                INTEGER NOT NULL DEFAULT 1,
			created_at             TEXT NOT NULL,
			updated_at             TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_servers_group ON servers(group_name);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
