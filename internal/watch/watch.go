// Package watch reloads slides when their files change on disk. Editors
// tend to emit several events per save, so changes are debounced per file
// before the handler runs.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kingrea/deckhand/internal/catalog"
	"github.com/kingrea/deckhand/internal/presenter"
)

const (
	// DefaultDebounce is how long a file must stay quiet before it fires.
	DefaultDebounce = 200 * time.Millisecond
	tickInterval    = 25 * time.Millisecond
)

// Handler receives debounced file changes.
type Handler func(path string)

// Logger receives watcher diagnostics.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}

// Stats tracks watcher activity.
type Stats struct {
	Events    int
	Fired     int
	Errors    int
	LastPath  string
	LastEvent time.Time
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger routes diagnostics to logger.
func WithLogger(l Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher watches one slide directory.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dir      string
	handler  Handler
	logger   Logger
	debounce time.Duration
	pending  map[string]time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	closed   sync.Once
	stats    Stats
}

// New creates a watcher for dir. Nothing is watched until Start.
func New(dir string, handler Handler, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		dir:      dir,
		handler:  handler,
		logger:   nopLogger{},
		debounce: DefaultDebounce,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()
	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		w.release()
		return fmt.Errorf("watch: add %s: %w", w.dir, err)
	}
	w.logger.Info("Watching %s for slide changes", w.dir)
	go w.run(ctx)
	return nil
}

// Run starts the watcher and blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}

// Stop ends the event loop and releases the underlying watcher. It is safe
// to call on a watcher that never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}
	w.release()
}

func (w *Watcher) release() {
	w.closed.Do(func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("watch: close: %v", err)
		}
	})
}

// Stats returns a copy of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case now := <-ticker.C:
			w.fireDue(now)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	if !relevant(event.Name) {
		return
	}
	now := time.Now()
	w.mu.Lock()
	w.pending[event.Name] = now
	w.stats.Events++
	w.stats.LastPath = event.Name
	w.stats.LastEvent = now
	w.mu.Unlock()
}

func (w *Watcher) fireDue(now time.Time) {
	var due []string
	w.mu.Lock()
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.debounce {
			due = append(due, path)
			delete(w.pending, path)
		}
	}
	w.stats.Fired += len(due)
	w.mu.Unlock()
	for _, path := range due {
		if w.handler != nil {
			w.handler(path)
		}
	}
}

// relevant keeps slide documents and slide scripts; editor swap files and
// hidden files are ignored.
func relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".md", ".markdown", ".go":
		return true
	default:
		return false
	}
}

// Deck is the presenter surface ReloadCurrent needs.
type Deck interface {
	Snapshot() presenter.Snapshot
	Reload() (*presenter.Page, error)
}

// ReloadCurrent returns a handler that reloads the open slide when its own
// file or any slide script changes.
func ReloadCurrent(deck Deck, logger Logger) Handler {
	if logger == nil {
		logger = nopLogger{}
	}
	return func(path string) {
		snap := deck.Snapshot()
		if !snap.Open {
			return
		}
		base := filepath.Base(path)
		if base != catalog.Filename(snap.Location) && filepath.Ext(base) != ".go" {
			return
		}
		if _, err := deck.Reload(); err != nil {
			logger.Warn("Reload of %s failed: %v", snap.Location, err)
			return
		}
		logger.Info("Reloaded %s after change to %s", snap.Location, base)
	}
}
