package record

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLSource is a MySQL/MariaDB implementation of Source.
//
// It stores completion records in a relational database. Designed for:
//   - Production deployments requiring persistence
//   - Distributed systems with multiple readers and writers
//   - Audit trails over the raw completion history
//
// MySQLSource uses connection pooling and upserts for reliability.
//
// Schema:
//   - block_completions: one row per (user, scope, block).
type MySQLSource struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLSource creates a MySQL-backed record source.
//
// The DSN (Data Source Name) format is:
//
//	[username[:password]@][protocol[(address)]]/dbname[?param1=value1&...]
//
// Example DSNs:
//
//	user:password@tcp(localhost:3306)/completions?parseTime=true
//	user:password@tcp(127.0.0.1:3306)/completions?parseTime=true
//
// The DSN must include parseTime=true so modified timestamps scan into
// time.Time values.
//
// Never hardcode credentials in source code; read the DSN from the
// environment:
//
//	dsn := os.Getenv("MYSQL_DSN")
//	src, err := record.NewMySQLSource(dsn)
//
// The source automatically creates its table and configures connection
// pooling.
func NewMySQLSource(dsn string) (*MySQLSource, error) {
	if dsn == "" {
		return nil, fmt.Errorf("mysql DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	src := &MySQLSource{db: db}
	if err := src.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return src, nil
}

// createTables creates the schema if it doesn't exist.
func (m *MySQLSource) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS block_completions (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			scope VARCHAR(255) NOT NULL,
			block_key VARCHAR(255) NOT NULL,
			completion DOUBLE NOT NULL,
			modified DATETIME(6) NOT NULL,
			INDEX idx_user_scope (user_id, scope),
			UNIQUE KEY unique_user_scope_block (user_id, scope, block_key)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create block_completions table: %w", err)
	}
	return nil
}

// Save upserts a completion record for the user and scope.
//
// Thread-safe for concurrent writes.
func (m *MySQLSource) Save(ctx context.Context, user, scope string, rec Record) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	m.mu.RUnlock()

	query := `
		INSERT INTO block_completions (user_id, scope, block_key, completion, modified)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			completion = VALUES(completion),
			modified = VALUES(modified)
	`
	_, err := m.db.ExecContext(ctx, query,
		user, scope, rec.BlockKey, rec.Completion, rec.Modified.UTC())
	if err != nil {
		return fmt.Errorf("failed to save completion record: %w", err)
	}
	return nil
}

// Fetch returns the user's records within the scope ordered by modified
// time ascending (implements Source).
func (m *MySQLSource) Fetch(ctx context.Context, user, scope string) ([]Record, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrClosed
	}
	m.mu.RUnlock()

	query := `
		SELECT block_key, completion, modified
		FROM block_completions
		WHERE user_id = ? AND scope = ?
		ORDER BY modified ASC, id ASC
	`
	rows, err := m.db.QueryContext(ctx, query, user, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query completion records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.BlockKey, &rec.Completion, &rec.Modified); err != nil {
			return nil, fmt.Errorf("failed to scan completion row: %w", err)
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
func (m *MySQLSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

// Ping verifies the database connection is alive.
func (m *MySQLSource) Ping(ctx context.Context) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	m.mu.RUnlock()
	return m.db.PingContext(ctx)
}

var _ Source = (*MySQLSource)(nil)
