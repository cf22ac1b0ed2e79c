// Package logbook keeps the presenter's journey log: one levelled line per
// navigation event, store failure or reset, in .deckhand/logs/journey.log.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileName is the journey log file inside the logs directory.
const FileName = "journey.log"

// keep bounds the in-memory history served by Tail.
const keep = 256

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one journey line.
type Entry struct {
	Time    time.Time
	Level   Level
	Scope   string
	Message string
}

// String formats the entry the way it is written to disk.
func (e Entry) String() string {
	msg := e.Message
	if e.Scope != "" {
		msg = "[" + e.Scope + "] " + msg
	}
	return fmt.Sprintf("%s %-5s %s", e.Time.UTC().Format(time.RFC3339), string(e.Level), msg)
}

// journal is the file and history shared by a logbook and its scopes.
type journal struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	recent []string
	total  int
}

func (j *journal) remember(line string) {
	j.total++
	j.recent = append(j.recent, line)
	if len(j.recent) > keep {
		j.recent = append(j.recent[:0], j.recent[len(j.recent)-keep:]...)
	}
}

// Logbook writes journey entries. Scoped logbooks share one journal.
type Logbook struct {
	j     *journal
	scope string
	clock func() time.Time
}

// New opens (or creates) the log at path for appending. Lines already in the
// file count towards Tail, so a resumed deck shows its earlier history.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: create dir: %w", err)
	}
	j := &journal{path: path}
	if existing, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(existing)
		for scanner.Scan() {
			j.remember(scanner.Text())
		}
		existing.Close()
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logbook: open %s: %w", path, err)
	}
	j.file = file
	return &Logbook{j: j, clock: time.Now}, nil
}

// Open creates the journey log inside logsDir.
func Open(logsDir string) (*Logbook, error) {
	return New(filepath.Join(logsDir, FileName))
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.j.path
}

// Scoped returns a logbook whose entries carry scope, e.g. "[remote]".
func (l *Logbook) Scoped(scope string) *Logbook {
	if l == nil {
		return nil
	}
	return &Logbook{j: l.j, scope: strings.TrimSpace(scope), clock: l.clock}
}

// Append writes a single entry. Write failures are dropped; the journey log
// never interrupts a presentation.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	line := Entry{Time: l.clock(), Level: level, Scope: l.scope, Message: strings.TrimSpace(message)}.String()
	l.j.mu.Lock()
	defer l.j.mu.Unlock()
	l.j.remember(line)
	if l.j.file != nil {
		_, _ = l.j.file.WriteString(line + "\n")
	}
}

// Tail returns up to maxLines of the most recent entries and the total
// number of entries seen.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil {
		return nil, 0
	}
	l.j.mu.Lock()
	defer l.j.mu.Unlock()
	total := l.j.total
	if maxLines <= 0 || len(l.j.recent) == 0 {
		return nil, total
	}
	start := max(0, len(l.j.recent)-maxLines)
	return append([]string(nil), l.j.recent[start:]...), total
}

// Close releases the file. Later entries still reach Tail.
func (l *Logbook) Close() error {
	if l == nil {
		return nil
	}
	l.j.mu.Lock()
	defer l.j.mu.Unlock()
	if l.j.file == nil {
		return nil
	}
	err := l.j.file.Close()
	l.j.file = nil
	return err
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
