package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_values (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, key)
);`

// SQLite stores session values in a single table shared by every session.
type SQLite struct {
	sqlDB     *sql.DB
	sessionID string
	now       func() time.Time
}

// OpenSQLite opens (or creates) the database at path scoped to sessionID.
func OpenSQLite(path, sessionID string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store: sqlite path is required")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("store: ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &SQLite{sqlDB: sqlDB, sessionID: sessionID, now: time.Now}, nil
}

// Get returns the value for key in this session.
func (s *SQLite) Get(key string) (string, bool, error) {
	var value string
	err := s.sqlDB.QueryRow(
		`SELECT value FROM session_values WHERE session_id = ? AND key = ?`,
		s.sessionID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value under key.
func (s *SQLite) Set(key, value string) error {
	_, err := s.sqlDB.Exec(
		`INSERT INTO session_values (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.sessionID, key, value, s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key from this session.
func (s *SQLite) Remove(key string) error {
	if _, err := s.sqlDB.Exec(
		`DELETE FROM session_values WHERE session_id = ? AND key = ?`,
		s.sessionID, key,
	); err != nil {
		return fmt.Errorf("store: remove %s: %w", key, err)
	}
	return nil
}

// EndSession deletes every value recorded for this session.
func (s *SQLite) EndSession() error {
	if _, err := s.sqlDB.Exec(`DELETE FROM session_values WHERE session_id = ?`, s.sessionID); err != nil {
		return fmt.Errorf("store: end session: %w", err)
	}
	return nil
}

// Sessions lists the session IDs that still hold values.
func (s *SQLite) Sessions() ([]string, error) {
	rows, err := s.sqlDB.Query(`SELECT DISTINCT session_id FROM session_values ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
