// Package audit persists a record of every mutating operation to a local
// sqlite database. The store subscribes to the lifecycle event bus, so
// commands do not call it directly.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/DanilaBaxBax/wg-manager/pkg/logger"
)

//go:embed schema.sql
var ddl string

// Entry is one recorded operation.
type Entry struct {
	ID         int64
	EventID    string
	EventType  string
	Identity   string
	Address    string
	PublicKey  string
	Detail     string
	OccurredAt time.Time
}

// Store writes and reads the audit log.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewStore opens the database at path, creating directories and schema as
// needed.
func NewStore(path string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewDevelopment("audit")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, logger: log}
	if err := s.setupSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database schema: %w", err)
	}
	return s, nil
}

// NewStoreFromDB wraps an existing connection. Useful for testing.
func NewStoreFromDB(db *sql.DB, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewDevelopment("audit")
	}
	s := &Store{db: db, logger: log}
	if err := s.setupSchema(); err != nil {
		return nil, fmt.Errorf("failed to setup database schema: %w", err)
	}
	return s, nil
}

func (s *Store) setupSchema() error {
	// If the table already exists, assume the schema is present.
	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?;", "audit_log").Scan(&name)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check existing schema: %w", err)
	}
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	s.logger.Debug("initialized audit schema")
	return nil
}

// Record inserts one entry. Duplicate event IDs are ignored so replayed
// events never double-log.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO audit_log (event_id, event_type, identity, address, public_key, detail, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.EventID, e.EventType, e.Identity, e.Address, e.PublicKey, e.Detail, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, event_type, identity, address, public_key, detail, occurred_at
		 FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EventID, &e.EventType, &e.Identity, &e.Address, &e.PublicKey, &e.Detail, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ForIdentity returns every entry for one peer identity, oldest first.
func (s *Store) ForIdentity(ctx context.Context, identity string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, event_type, identity, address, public_key, detail, occurred_at
		 FROM audit_log WHERE identity = ? ORDER BY id ASC`, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EventID, &e.EventType, &e.Identity, &e.Address, &e.PublicKey, &e.Detail, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
