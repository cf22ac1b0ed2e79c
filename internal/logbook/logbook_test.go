package logbook

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestJourneyKeepsRecentEntries(t *testing.T) {
	book, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { book.Close() })
	for _, slide := range []string{"01-intro", "02-tools", "03-demo", "04-wrap", "05-qa"} {
		book.Info("entered %s", slide)
	}

	lines, total := book.Tail(3)
	if total != 5 || len(lines) != 3 {
		t.Fatalf("Tail(3) = %d lines of %d", len(lines), total)
	}
	for i, want := range []string{"03-demo", "04-wrap", "05-qa"} {
		if !strings.HasSuffix(lines[i], "INFO  entered "+want) {
			t.Fatalf("line %d = %q, want entry for %s", i, lines[i], want)
		}
	}
	if lines, total := book.Tail(0); lines != nil || total != 5 {
		t.Fatalf("Tail(0) = %v, %d", lines, total)
	}
}

func TestScopesShareTheJournal(t *testing.T) {
	book, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	book.clock = func() time.Time { return fixed }

	book.Scoped("ledger").Warn("store write failed: %s", "disk full")
	book.Error("reveal stuck")
	if err := book.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(book.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "2026-03-01T09:30:00Z WARN  [ledger] store write failed: disk full\n" +
		"2026-03-01T09:30:00Z ERROR reveal stuck\n"
	if string(data) != want {
		t.Fatalf("file contents:\n%s\nwant:\n%s", data, want)
	}
}

func TestReopenCountsEarlierHistory(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	first.Info("session a opened")
	first.Info("session a closed")
	first.Close()

	second, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	second.Info("session b opened")
	lines, total := second.Tail(10)
	if total != 3 || !strings.Contains(lines[0], "session a opened") {
		t.Fatalf("Tail after reopen = %v (%d)", lines, total)
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	book.Scoped("x").Warn("ignored")
	if lines, total := book.Tail(5); lines != nil || total != 0 {
		t.Fatalf("nil logbook tail = %v, %d", lines, total)
	}
	if err := book.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
