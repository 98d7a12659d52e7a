// Package sqlite is the embedded SQLite implementation of store.Store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/dsaflash/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS topics (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	ord         INTEGER NOT NULL DEFAULT 0,
	icon        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS problems (
	id                TEXT PRIMARY KEY,
	topic_id          TEXT NOT NULL,
	title             TEXT NOT NULL,
	difficulty        TEXT NOT NULL DEFAULT 'Easy',
	leetcode_url      TEXT NOT NULL DEFAULT '',
	geeksforgeeks_url TEXT NOT NULL DEFAULT '',
	solution          TEXT NOT NULL DEFAULT '',
	notes             TEXT NOT NULL DEFAULT '',
	tags              TEXT NOT NULL DEFAULT '[]',
	time_complexity   TEXT NOT NULL DEFAULT '',
	space_complexity  TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_problems_topic ON problems(topic_id);
CREATE INDEX IF NOT EXISTS idx_problems_created ON problems(created_at);

CREATE TABLE IF NOT EXISTS topic_notes (
	topic_id   TEXT PRIMARY KEY,
	content    TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB is a store.Store backed by a single SQLite file.
type DB struct {
	conn *sql.DB
}

var _ store.Store = (*DB)(nil)

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Ping checks the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
