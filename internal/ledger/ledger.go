// internal/ledger/ledger.go
//
// The visit ledger remembers which slides were entered during the current
// presenting session. Revisited slides render in their final state instead
// of replaying entrance animations. Tracking is best-effort: storage errors
// are logged and treated as "not visited".

package ledger

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// StorageKey is the single key holding the serialized ledger.
const StorageKey = "visitedSlides"

// Store is the narrow key-value contract the ledger persists through.
// Implementations are scoped to one session and may fail.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Logger receives diagnostics for swallowed storage failures.
type Logger interface {
	Warn(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any) {}

// Ledger is the session-scoped set of visited slide filenames.
type Ledger struct {
	store  Store
	logger Logger
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithLogger routes storage failures to logger.
func WithLogger(logger Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New builds a ledger on top of store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, logger: nopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Normalize reduces a path or URL to the ledger key: the segment after the
// last "/" with any query string or fragment removed, matching
// catalog.Filename. Two directories serving the same filename map to the
// same key.
func Normalize(path string) string {
	key := strings.TrimSpace(path)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if i := strings.LastIndex(key, "/"); i >= 0 {
		key = key[i+1:]
	}
	return key
}

// RecordVisit adds path to the ledger. Repeated calls are no-ops.
func (l *Ledger) RecordVisit(path string) {
	if l == nil || l.store == nil {
		return
	}
	key := Normalize(path)
	if key == "" {
		return
	}
	visited, err := l.load()
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) {
			l.logger.Warn("ledger: read visited slides: %v", err)
			return
		}
		l.logger.Warn("ledger: discarding corrupt visited slides: %v", err)
		visited = nil
	}
	for _, existing := range visited {
		if existing == key {
			return
		}
	}
	visited = append(visited, key)
	data, err := json.Marshal(visited)
	if err != nil {
		l.logger.Warn("ledger: encode visited slides: %v", err)
		return
	}
	if err := l.store.Set(StorageKey, string(data)); err != nil {
		l.logger.Warn("ledger: persist visit %s: %v", key, err)
	}
}

// HasVisited reports whether path was recorded this session. Any storage or
// decode failure reports false.
func (l *Ledger) HasVisited(path string) bool {
	if l == nil || l.store == nil {
		return false
	}
	key := Normalize(path)
	if key == "" {
		return false
	}
	visited, err := l.load()
	if err != nil {
		l.logger.Warn("ledger: read visited slides: %v", err)
		return false
	}
	for _, existing := range visited {
		if existing == key {
			return true
		}
	}
	return false
}

// Visited returns the recorded keys sorted for display.
func (l *Ledger) Visited() []string {
	if l == nil || l.store == nil {
		return nil
	}
	visited, err := l.load()
	if err != nil {
		l.logger.Warn("ledger: read visited slides: %v", err)
		return nil
	}
	sort.Strings(visited)
	return visited
}

// Clear drops every entry. Only session reset calls it.
func (l *Ledger) Clear() {
	if l == nil || l.store == nil {
		return
	}
	if err := l.store.Remove(StorageKey); err != nil {
		l.logger.Warn("ledger: clear visited slides: %v", err)
	}
}

func (l *Ledger) load() ([]string, error) {
	raw, ok, err := l.store.Get(StorageKey)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var visited []string
	if err := json.Unmarshal([]byte(raw), &visited); err != nil {
		return nil, err
	}
	return visited, nil
}
