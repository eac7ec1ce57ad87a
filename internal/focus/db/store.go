// Package db provides the durable SQLite session store for focuslog.
//
// The store is a single SQLite file opened through the ncruces/go-sqlite3
// driver (pure Go, wasm-embedded SQLite) in WAL mode. Its schema is created
// and evolved by the packaged migrations in migrations/*.sql; see Migrate.
//
// Architecture:
//   - Database file: configurable, default <data dir>/focuslog.db
//   - Lock file:     <database file>.lock (see internal/focus/lock)
//   - Schema:        sessions (unique goal+start), schema_migrations
//
// The only write path is InsertSession, which is idempotent: re-inserting a
// (goal, start) pair that already exists is reported as not inserted and is
// never an error.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/focuslog/focuslog/internal/focus/schema"
	"github.com/focuslog/focuslog/internal/logging"
)

var (
	// ErrStoreUnavailable means the store could not be opened, read or written.
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrSchemaMismatch means the store does not have the expected tables or columns.
	ErrSchemaMismatch = errors.New("session store schema mismatch")

	// ErrInvalidSession means a session failed validation before reaching the store.
	ErrInvalidSession = errors.New("invalid session")
)

// DB wraps the SQLite connection holding completed sessions.
type DB struct {
	conn   *sql.DB
	path   string
	logger *logging.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(db *DB) { db.logger = logging.OrNop(l).WithComponent("store") }
}

// Open opens (creating if needed) the session store at path.
//
// Opening does not create any table; run Migrate for that. The caller MUST
// call Close when done.
//
// Example:
//
//	store, err := db.Open("/path/to/focuslog.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func Open(path string, opts ...Option) (*DB, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve path: %w", ErrStoreUnavailable, err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create database directory: %w", ErrStoreUnavailable, err)
	}

	conn, err := sql.Open("sqlite3", dsn(abs))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrStoreUnavailable, err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", ErrStoreUnavailable, err)
	}

	// One writer at a time; a handful of readers is plenty for a CLI.
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{
		conn:   conn,
		path:   abs,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// dsn builds a file: URI with per-connection pragmas, so every pooled
// connection gets WAL, a busy timeout and foreign keys.
func dsn(abs string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(wal)")
	q.Add("_pragma", "foreign_keys(1)")
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: q.Encode()}
	return u.String()
}

// Path returns the absolute database file path.
func (db *DB) Path() string {
	return db.path
}

// RawDB returns the underlying sql.DB connection.
func (db *DB) RawDB() *sql.DB {
	return db.conn
}

// Close closes the database connection after a WAL checkpoint.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		db.logger.Warn("failed to checkpoint WAL", "error", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// InsertSession stores a completed session.
//
// It returns inserted=false and a nil error when a session with the same
// (goal, start) already exists; the duplicate is logged at info level and the
// stored row is left untouched. On success the session's ID is set.
//
// Errors wrap ErrInvalidSession, ErrSchemaMismatch or ErrStoreUnavailable.
func (db *DB) InsertSession(ctx context.Context, s *schema.Session) (bool, error) {
	if err := s.Validate(); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	query := `
	INSERT INTO sessions (goal, duration, start)
	VALUES (?, ?, ?)
	ON CONFLICT(goal, start) DO NOTHING
	`

	res, err := db.conn.ExecContext(ctx, query, s.Goal, s.Duration, s.StartMillis())
	if err != nil {
		return false, classify(fmt.Errorf("failed to insert session %q: %w", s.Goal, err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, classify(fmt.Errorf("failed to read insert result: %w", err))
	}
	if affected == 0 {
		db.logger.Info("session already stored, skipping",
			"goal", s.Goal,
			"start", s.StartMillis(),
		)
		return false, nil
	}

	if id, err := res.LastInsertId(); err == nil {
		s.ID = id
	}
	return true, nil
}

// SessionsBetween returns sessions whose start lies in [from, to], inclusive,
// ordered by start ascending.
func (db *DB) SessionsBetween(ctx context.Context, from, to time.Time) ([]*schema.Session, error) {
	query := `
	SELECT id, goal, duration, start
	FROM sessions
	WHERE start >= ? AND start <= ?
	ORDER BY start ASC, id ASC
	`

	rows, err := db.conn.QueryContext(ctx, query, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query sessions: %w", err))
	}
	defer rows.Close()

	return scanSessions(rows)
}

// ListSessions returns every stored session ordered by start ascending.
func (db *DB) ListSessions(ctx context.Context) ([]*schema.Session, error) {
	rows, err := db.conn.QueryContext(ctx, `
	SELECT id, goal, duration, start
	FROM sessions
	ORDER BY start ASC, id ASC
	`)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list sessions: %w", err))
	}
	defer rows.Close()

	return scanSessions(rows)
}

// LatestSession returns the session with the greatest start, or nil when the
// store is empty.
func (db *DB) LatestSession(ctx context.Context) (*schema.Session, error) {
	row := db.conn.QueryRowContext(ctx, `
	SELECT id, goal, duration, start
	FROM sessions
	ORDER BY start DESC, id DESC
	LIMIT 1
	`)

	var s schema.Session
	var start int64
	if err := row.Scan(&s.ID, &s.Goal, &s.Duration, &start); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(fmt.Errorf("failed to read latest session: %w", err))
	}
	s.Start = schema.FromMillis(start)
	return &s, nil
}

// CountSessions returns the number of stored sessions.
func (db *DB) CountSessions(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		return 0, classify(fmt.Errorf("failed to count sessions: %w", err))
	}
	return count, nil
}

// scanSessions is a helper to scan multiple sessions from query results.
func scanSessions(rows *sql.Rows) ([]*schema.Session, error) {
	var sessions []*schema.Session

	for rows.Next() {
		var s schema.Session
		var start int64
		if err := rows.Scan(&s.ID, &s.Goal, &s.Duration, &start); err != nil {
			return nil, classify(fmt.Errorf("failed to scan session: %w", err))
		}
		s.Start = schema.FromMillis(start)
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating sessions: %w", err))
	}

	return sessions, nil
}

// classify tags a driver error with ErrSchemaMismatch when SQLite reports a
// missing table or column, and with ErrStoreUnavailable otherwise.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSchemaMismatch) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	msg := err.Error()
	for _, marker := range []string{"no such table", "no such column", "has no column named"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
