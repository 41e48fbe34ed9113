package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite schema: coordinate store and profile cache.
func InitSQLiteSchema(db *sql.DB) error {
	return initSchema(db, []string{
		`
	CREATE TABLE IF NOT EXISTS profile_coordinates (
        visitor TEXT NOT NULL,
        name TEXT NOT NULL,
        value REAL NOT NULL,
        expires_at INTEGER NOT NULL,
        PRIMARY KEY (visitor, name)
    );
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_profile_coordinates_expires_at
    ON profile_coordinates(expires_at);
	`,
		`
	CREATE TABLE IF NOT EXISTS profile_cache (
        query TEXT PRIMARY KEY,
        body TEXT NOT NULL,
        expires_at INTEGER NOT NULL
    );
	`,
	})
}

// Initialize the Postgres schema: coordinate store and profile cache.
func InitPostgresSchema(db *sql.DB) error {
	return initSchema(db, []string{
		`
	CREATE TABLE IF NOT EXISTS profile_coordinates (
        visitor TEXT NOT NULL,
        name TEXT NOT NULL,
        value DOUBLE PRECISION NOT NULL,
        expires_at TIMESTAMPTZ NOT NULL,
        PRIMARY KEY (visitor, name)
    );
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_profile_coordinates_expires_at
    ON profile_coordinates(expires_at);
	`,
		`
	CREATE TABLE IF NOT EXISTS profile_cache (
        query TEXT PRIMARY KEY,
        body TEXT NOT NULL,
        expires_at TIMESTAMPTZ NOT NULL
    );
	`,
	})
}

func initSchema(db *sql.DB, statements []string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
