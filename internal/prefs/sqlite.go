package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bunkasai/festival/internal/db"
)

// SQLite keeps preferences in the preferences table.
type SQLite struct {
	db *db.DB
}

// NewSQLite creates a backend over an open database.
func NewSQLite(database *db.DB) *SQLite {
	return &SQLite{db: database}
}

// Scope returns the KV of one visitor.
func (s *SQLite) Scope(visitorID string) KV {
	return &sqliteKV{db: s.db, visitor: visitorID}
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }

type sqliteKV struct {
	db      *db.DB
	visitor string
}

func (kv *sqliteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := kv.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE visitor_id = ? AND key = ?`,
		kv.visitor, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying preference %s: %w", key, err)
	}
	return v, true, nil
}

func (kv *sqliteKV) Set(ctx context.Context, key, value string) error {
	_, err := kv.db.ExecContext(ctx, `
		INSERT INTO preferences (visitor_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(visitor_id, key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')`,
		kv.visitor, key, value)
	if err != nil {
		return fmt.Errorf("saving preference %s: %w", key, err)
	}
	return nil
}
