package record

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSource is a SQLite implementation of Source.
//
// It stores completion records in a single-file database. Designed for:
//   - Development and testing with zero setup
//   - Single-process deployments requiring persistence
//   - Prototyping before migrating to a shared database
//
// SQLiteSource uses WAL mode for concurrent reads and auto-migrates its
// schema on first use.
//
// Schema:
//   - block_completions: one row per (user, scope, block), upserted on
//     every save so the row always carries the latest fraction and
//     modification time.
// modifiedLayout is the stored form of Record.Modified. Every field is
// fixed-width with nanoseconds zero-padded, so the TEXT column sorts
// lexicographically in chronological order and `ORDER BY modified` is
// a true time ordering. RFC3339Nano would not work here: it trims
// trailing fractional zeros, so "...00.15Z" sorts before "...00.1Z".
const modifiedLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteSource struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteSource creates a SQLite-backed record source.
//
// The path parameter specifies the database file location:
//   - "./completions.db" - file in current directory
//   - ":memory:" - in-memory database (data lost on close)
//
// The source automatically creates the database file and schema, and
// enables WAL mode for concurrent reads.
//
// Example:
//
//	src, err := record.NewSQLiteSource("./completions.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
func NewSQLiteSource(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	src := &SQLiteSource{db: db, path: path}
	if err := src.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return src, nil
}

// createTables creates the schema if it doesn't exist.
func (s *SQLiteSource) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS block_completions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			scope TEXT NOT NULL,
			block_key TEXT NOT NULL,
			completion REAL NOT NULL,
			modified TEXT NOT NULL,
			UNIQUE(user_id, scope, block_key)
		)
	`
	if _, err := s.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create block_completions table: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS idx_completions_user_scope ON block_completions(user_id, scope)"); err != nil {
		return fmt.Errorf("failed to create idx_completions_user_scope: %w", err)
	}
	return nil
}

// Save upserts a completion record for the user and scope.
//
// A later save for the same block replaces the stored fraction and
// modification time. Thread-safe for concurrent writes.
func (s *SQLiteSource) Save(ctx context.Context, user, scope string, rec Record) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	s.mu.RUnlock()

	query := `
		INSERT INTO block_completions (user_id, scope, block_key, completion, modified)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, scope, block_key) DO UPDATE SET
			completion = excluded.completion,
			modified = excluded.modified
	`
	_, err := s.db.ExecContext(ctx, query,
		user, scope, rec.BlockKey, rec.Completion, rec.Modified.UTC().Format(modifiedLayout))
	if err != nil {
		return fmt.Errorf("failed to save completion record: %w", err)
	}
	return nil
}

// Fetch returns the user's records within the scope ordered by modified
// time ascending (implements Source). Ties fall back to insertion
// order so the most recently written row wins.
func (s *SQLiteSource) Fetch(ctx context.Context, user, scope string) ([]Record, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrClosed
	}
	s.mu.RUnlock()

	query := `
		SELECT block_key, completion, modified
		FROM block_completions
		WHERE user_id = ? AND scope = ?
		ORDER BY modified ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, user, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query completion records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var (
			rec      Record
			modified string
		)
		if err := rows.Scan(&rec.BlockKey, &rec.Completion, &modified); err != nil {
			return nil, fmt.Errorf("failed to scan completion row: %w", err)
		}
		rec.Modified, err = time.Parse(modifiedLayout, modified)
		if err != nil {
			return nil, fmt.Errorf("failed to parse modified time: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completion rows: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
//
// After Close, all operations return ErrClosed. Calling Close multiple
// times is safe.
func (s *SQLiteSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLiteSource) Ping(ctx context.Context) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	s.mu.RUnlock()
	return s.db.PingContext(ctx)
}

// Path returns the database file path.
func (s *SQLiteSource) Path() string {
	return s.path
}

var _ Source = (*SQLiteSource)(nil)
