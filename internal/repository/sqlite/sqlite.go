// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, so you need a C toolchain and cross-compiling
// hurts. modernc.org/sqlite is a pure Go translation of SQLite.
//
// CONCURRENCY:
// SQLite is the single point of serialization for the whole service. Writers
// queue on the database lock; busy_timeout makes them wait up to 5s instead of
// failing immediately with SQLITE_BUSY. Every ownership check is folded into
// the mutating statement itself (WHERE id = ? AND owner_email = ?), so there
// is no read-then-write window for another request to slip into.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// connPragmas are applied by the driver to EVERY pooled connection.
//
// PRAGMA foreign_keys is per-connection in SQLite. Running it once with
// conn.Exec only configures whichever connection the pool happened to hand
// out, so we pass it through the DSN instead.
const connPragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// DB wraps a sql.DB connection pool and provides repository methods.
// The repositories themselves are the views returned by Users() and Tasks().
type DB struct {
	conn *sql.DB
}

// New opens the database, applies pragmas and runs migrations.
//
// dbPath examples:
//   - "data/tasklist.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath+"?"+connPragmas)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is its own empty database. Pin the pool to
	// one connection so every query sees the same tables.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress. Unlike
	// foreign_keys it is stored in the database file, so setting it once is
	// enough. In-memory databases silently stay in "memory" mode.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
//
// owner_email REFERENCES users(email) means SQLite itself refuses a task whose
// owner doesn't exist. The store can never hold an orphan, whatever the
// service layer does.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			email         TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			name          TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// AUTOINCREMENT (not just INTEGER PRIMARY KEY) guarantees ids are never
	// reused after a delete, so a stale id held by a client can't start
	// pointing at somebody's new task.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			title       TEXT NOT NULL,
			completed   BOOLEAN NOT NULL DEFAULT 0,
			owner_email TEXT NOT NULL REFERENCES users(email)
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_owner_id ON tasks(owner_email, id);
	`)
	if err != nil {
		return fmt.Errorf("creating tasks table: %w", err)
	}

	return nil
}

// isConstraintViolation reports whether err is a SQLite constraint failure
// (PRIMARY KEY, UNIQUE, FOREIGN KEY, NOT NULL...). The low byte of an
// extended result code is its primary code, so this works whether or not the
// connection reports extended codes.
func isConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
