// Package store provides the session-scoped key-value backends the visit
// ledger persists through.
package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kingrea/deckhand/internal/config"
)

// ErrMissingSession indicates a persistent backend was opened without an ID.
var ErrMissingSession = errors.New("store: session id is required")

// Backend names a storage implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
)

// Session is a ledger store bound to one presenting session.
type Session interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	EndSession() error
	Close() error
}

// Settings selects and locates the backend.
type Settings struct {
	Backend     Backend
	SessionID   string
	SessionsDir string
	SQLitePath  string
	// Keep preserves persisted values when the presenter exits.
	Keep bool
}

// SettingsFromConfig derives store settings from the project configuration.
// A missing session ID is replaced with a fresh one.
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := Settings{Backend: BackendMemory}
	if cfg != nil {
		raw := cfg.Deck.Session
		settings.Backend = Backend(strings.ToLower(strings.TrimSpace(raw.Store)))
		settings.SessionID = strings.TrimSpace(raw.ID)
		settings.Keep = raw.Keep
		settings.SessionsDir = cfg.SessionsDir()
		settings.SQLitePath = filepath.Join(cfg.StateDir(), "sessions.db")
	}
	switch settings.Backend {
	case BackendFile, BackendSQLite:
	default:
		settings.Backend = BackendMemory
	}
	if settings.SessionID == "" {
		settings.SessionID = NewSessionID()
	}
	return settings
}

// NewSessionID returns a random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Open constructs the configured backend.
func Open(settings Settings) (Session, error) {
	switch settings.Backend {
	case BackendFile:
		return NewFile(settings.SessionsDir, settings.SessionID)
	case BackendSQLite:
		return OpenSQLite(settings.SQLitePath, settings.SessionID)
	case BackendMemory, "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", settings.Backend)
	}
}

// ListSessions reports session IDs persisted by the configured backend.
func ListSessions(settings Settings) ([]string, error) {
	switch settings.Backend {
	case BackendFile:
		return ListFileSessions(settings.SessionsDir)
	case BackendSQLite:
		db, err := OpenSQLite(settings.SQLitePath, "list")
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.Sessions()
	default:
		return nil, nil
	}
}
