// Package sqlite stores notes and users in SQLite through the pure-Go
// modernc.org/sqlite driver.
//
// A note's body, colors and position are kept exactly as clients send them,
// as JSON text. This package never looks inside them; internal/notefmt does.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB is the note repository. Users returns the user repository on the same
// pool.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and brings its schema up to
// date. ":memory:" gives a private throwaway database.
func New(dbPath string) (*DB, error) {
	// _pragma parameters are applied by the driver to every pooled
	// connection, not just the first one
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	// each connection to :memory: would see its own empty database
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: opening %s: %w", dbPath, err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping is used by the health endpoint.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// migrations run in order on every start. Each step is idempotent, which
// also lets databases created before accounts existed pick up the later
// steps.
var migrations = []func(ctx context.Context, tx *sql.Tx) error{
	// notes, from when the board had no accounts
	func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS notes (
				id          TEXT PRIMARY KEY,
				body        TEXT NOT NULL DEFAULT '""',
				colors      TEXT NOT NULL DEFAULT '{}',
				position    TEXT NOT NULL DEFAULT '{}',
				created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at);
		`)
		return err
	},
	// accounts
	func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
				role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
				password_hash TEXT NOT NULL DEFAULT '',
				github_id     INTEGER UNIQUE,
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`)
		return err
	},
	// note ownership; existing notes stay unowned
	func(ctx context.Context, tx *sql.Tx) error {
		if err := addColumnIfNotExists(ctx, tx, "notes", "user_id",
			"TEXT REFERENCES users(id) ON DELETE SET NULL"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_notes_user_id ON notes(user_id)`)
		return err
	},
}

func (db *DB) migrate() error {
	ctx := context.Background()
	for i, step := range migrations {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := step(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}

func addColumnIfNotExists(ctx context.Context, tx *sql.Tx, table, column, definition string) error {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition))
	return err
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// nullString maps "" to SQL NULL.
func nullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
