package ledger

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type mapStore struct {
	values map[string]string
	sets   int
}

func newMapStore() *mapStore { return &mapStore{values: map[string]string{}} }

func (m *mapStore) Get(key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapStore) Set(key, value string) error {
	m.values[key] = value
	m.sets++
	return nil
}

func (m *mapStore) Remove(key string) error {
	delete(m.values, key)
	return nil
}

type brokenStore struct{ err error }

func (b brokenStore) Get(string) (string, bool, error) { return "", false, b.err }
func (b brokenStore) Set(string, string) error         { return b.err }
func (b brokenStore) Remove(string) error              { return b.err }

type captureLogger struct{ lines []string }

func (c *captureLogger) Warn(format string, args ...any) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"02-tools.md":                        "02-tools.md",
		"../02-tools.md":                     "02-tools.md",
		"/deck/slides/02-tools.md?skip=true": "02-tools.md",
		"02-tools.md?":                       "02-tools.md",
		"02-tools.md#demo":                   "02-tools.md",
		"/deck/02-tools.md?a=1/2#x/y":        "02-tools.md",
		"my intro.md?skipAnimations=true":    "my intro.md",
		"":                                   "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRecordVisitIsIdempotent(t *testing.T) {
	store := newMapStore()
	l := New(store)
	l.RecordVisit("x.md")
	once := store.values[StorageKey]
	l.RecordVisit("../x.md")
	if store.values[StorageKey] != once {
		t.Fatalf("second visit changed ledger: %q -> %q", once, store.values[StorageKey])
	}
	if store.sets != 1 {
		t.Fatalf("expected a single write, got %d", store.sets)
	}
}

func TestRecordThenClearRoundTrip(t *testing.T) {
	l := New(newMapStore())
	if l.HasVisited("x.md") {
		t.Fatalf("fresh ledger should be empty")
	}
	l.RecordVisit("x.md")
	if !l.HasVisited("x.md") {
		t.Fatalf("expected x.md to be visited")
	}
	if !l.HasVisited("/other/dir/x.md?skipAnimations=true") {
		t.Fatalf("filename-only keys should match across directories")
	}
	l.Clear()
	if l.HasVisited("x.md") {
		t.Fatalf("expected ledger cleared")
	}
}

func TestVisitedIsSorted(t *testing.T) {
	l := New(newMapStore())
	l.RecordVisit("b.md")
	l.RecordVisit("a.md")
	if diff := cmp.Diff([]string{"a.md", "b.md"}, l.Visited()); diff != "" {
		t.Fatalf("visited mismatch (-want +got):\n%s", diff)
	}
}

func TestStorageFailuresFailOpen(t *testing.T) {
	logger := &captureLogger{}
	l := New(brokenStore{err: errors.New("quota exceeded")}, WithLogger(logger))
	l.RecordVisit("x.md")
	if l.HasVisited("x.md") {
		t.Fatalf("broken storage must report not visited")
	}
	l.Clear()
	if len(logger.lines) != 3 {
		t.Fatalf("expected 3 logged failures, got %v", logger.lines)
	}
	if !strings.Contains(logger.lines[0], "quota exceeded") {
		t.Fatalf("log line missing cause: %q", logger.lines[0])
	}
}

func TestCorruptLedgerIsReplaced(t *testing.T) {
	store := newMapStore()
	store.values[StorageKey] = "{not-an-array"
	l := New(store)
	if l.HasVisited("x.md") {
		t.Fatalf("corrupt ledger should read as empty")
	}
	l.RecordVisit("x.md")
	if !l.HasVisited("x.md") {
		t.Fatalf("expected corrupt ledger to be replaced on write")
	}
}

func TestNilLedgerIsSafe(t *testing.T) {
	var l *Ledger
	l.RecordVisit("x.md")
	l.Clear()
	if l.HasVisited("x.md") {
		t.Fatalf("nil ledger reports nothing visited")
	}
}
