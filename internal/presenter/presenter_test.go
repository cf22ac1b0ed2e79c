package presenter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/deckhand/internal/catalog"
	"github.com/kingrea/deckhand/internal/ledger"
	"github.com/kingrea/deckhand/internal/ledger/store"
	"github.com/kingrea/deckhand/internal/navigation"
	"github.com/kingrea/deckhand/internal/reveal"
	"github.com/kingrea/deckhand/internal/slide"
)

type captureLogger struct {
	lines []string
}

func (c *captureLogger) Info(format string, args ...any) { c.lines = append(c.lines, "INFO "+format) }
func (c *captureLogger) Warn(format string, args ...any) { c.lines = append(c.lines, "WARN "+format) }

func writeDeck(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func newPresenter(t *testing.T, files map[string]string, records []catalog.SlideRecord) (*Presenter, *ledger.Ledger) {
	t.Helper()
	dir := writeDeck(t, files)
	cat, err := catalog.New(records)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	led := ledger.New(store.NewMemory())
	return New(cat, led, slide.NewLoader(dir), WithLogger(&captureLogger{})), led
}

var abc = []catalog.SlideRecord{
	{ID: "a", Path: "a.md"},
	{ID: "b", Path: "b.md"},
	{ID: "c", Path: "c.md"},
}

func abcFiles() map[string]string {
	return map[string]string{
		"a.md": "# A\n\nIntro",
		"b.md": "# B\n\n<!-- reveal-on-next-1 -->\nfirst\n\n<!-- reveal-on-next-2 -->\nsecond",
		"c.md": "# C\n\nThe end",
	}
}

func mustNext(t *testing.T, p *Presenter, want navigation.Result) {
	t.Helper()
	got, err := p.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got != want {
		t.Fatalf("next = %s, want %s", got, want)
	}
}

func TestWalkThroughDeck(t *testing.T) {
	p, led := newPresenter(t, abcFiles(), abc)
	if _, err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !p.AutoConfigure() {
		t.Fatalf("auto configuration should run on an unpinned slide")
	}
	mustNext(t, p, navigation.Navigated)

	page := p.Page()
	if page.Doc.Location != "b.md" || page.Skip {
		t.Fatalf("first visit to b should animate, got %+v", page.Doc.Location)
	}
	p.AutoConfigure()
	mustNext(t, p, navigation.Handled)
	mustNext(t, p, navigation.Handled)
	if got := p.Page().Engine.State(); got != reveal.Complete {
		t.Fatalf("reveal state = %s, want complete", got)
	}
	mustNext(t, p, navigation.Navigated)
	p.AutoConfigure()
	mustNext(t, p, navigation.Terminal)
	if !p.Snapshot().Terminal {
		t.Fatalf("snapshot should report terminal state")
	}

	if got, _ := p.Previous(); got != navigation.Navigated {
		t.Fatalf("previous = %s", got)
	}
	back := p.Page()
	if !back.Skip || back.Doc.Location != "b.md" {
		t.Fatalf("backward navigation should skip and strip the signal, got skip=%t location=%q", back.Skip, back.Doc.Location)
	}
	if back.Engine.State() != reveal.Complete || !back.Doc.AnimationsDisabled() {
		t.Fatalf("skip load should show every step without transitions")
	}
	p.AutoConfigure()
	mustNext(t, p, navigation.Navigated)
	if !p.Page().Skip {
		t.Fatalf("revisit of c should carry the skip signal")
	}

	if diff := cmp.Diff([]string{"a.md", "b.md", "c.md"}, led.Visited()); diff != "" {
		t.Fatalf("visited mismatch (-want +got):\n%s", diff)
	}
}

func TestPreviousOnFirstSlideIsNoop(t *testing.T) {
	p, _ := newPresenter(t, abcFiles(), abc)
	if _, err := p.Start(); err != nil {
		t.Fatal(err)
	}
	p.AutoConfigure()
	got, err := p.Previous()
	if err != nil || got != navigation.NoTarget {
		t.Fatalf("previous on first slide = %s, %v", got, err)
	}
	if p.Page().Doc.Location != "a.md" {
		t.Fatalf("page should not change")
	}
}

func TestPinnedNavigationSkipsAutoConfiguration(t *testing.T) {
	files := abcFiles()
	files["a.md"] = "---\nnext: c.md\n---\n# A"
	p, _ := newPresenter(t, files, abc)
	if _, err := p.Start(); err != nil {
		t.Fatal(err)
	}
	if p.AutoConfigure() {
		t.Fatalf("auto configuration must not run after a manual target")
	}
	mustNext(t, p, navigation.Navigated)
	if p.Page().Doc.Location != "c.md" {
		t.Fatalf("pinned next ignored, at %s", p.Page().Doc.Location)
	}
}

func TestResetSessionMakesRevisitFresh(t *testing.T) {
	p, led := newPresenter(t, abcFiles(), abc)
	if _, err := p.Jump("b"); err != nil {
		t.Fatal(err)
	}
	mustNext(t, p, navigation.Handled)
	p.ResetSession()
	if len(led.Visited()) != 0 {
		t.Fatalf("ledger should be empty after reset")
	}
	if p.Page().Engine.CurrentStep() != 0 {
		t.Fatalf("reveal engine should be back to idle")
	}
	if _, err := p.Jump("a"); err != nil {
		t.Fatal(err)
	}
	page, err := p.Jump("b")
	if err != nil {
		t.Fatal(err)
	}
	if page.Skip || page.Engine.State() != reveal.Idle {
		t.Fatalf("revisit after reset should behave like a first visit")
	}
}

func TestJumpSkipsVisitedSlides(t *testing.T) {
	p, _ := newPresenter(t, abcFiles(), abc)
	if _, err := p.Jump("c"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Jump("a"); err != nil {
		t.Fatal(err)
	}
	page, err := p.Jump("c")
	if err != nil {
		t.Fatal(err)
	}
	if !page.Skip {
		t.Fatalf("jump to a visited slide should skip")
	}
	if _, err := p.Jump("zzz"); !errors.Is(err, ErrUnknownSlide) {
		t.Fatalf("expected ErrUnknownSlide, got %v", err)
	}
}

func TestScriptHandlesBeforeReveal(t *testing.T) {
	files := abcFiles()
	files["b.md"] = "---\nscript: b.go\n---\n# B\n\n<!-- reveal-on-next-1 -->\nonly step"
	files["b.go"] = `package main

var calls int

func OnNext(ctx map[string]any) bool {
	calls++
	return calls == 1
}

func Reset() { calls = 0 }
`
	p, _ := newPresenter(t, files, abc)
	if _, err := p.Jump("b"); err != nil {
		t.Fatal(err)
	}
	if p.Page().Script == nil {
		t.Fatalf("script should be loaded")
	}
	p.AutoConfigure()
	mustNext(t, p, navigation.Handled)
	if p.Page().Engine.CurrentStep() != 0 {
		t.Fatalf("script should consume the first press")
	}
	mustNext(t, p, navigation.Handled)
	if p.Page().Engine.CurrentStep() != 1 {
		t.Fatalf("reveal should consume the second press")
	}
	mustNext(t, p, navigation.Navigated)
}

func TestBrokenScriptFallsBackToReveal(t *testing.T) {
	files := abcFiles()
	files["b.md"] = "---\nscript: missing.go\n---\n<!-- reveal-on-next-1 -->\nstep"
	p, _ := newPresenter(t, files, abc)
	page, err := p.Jump("b")
	if err != nil {
		t.Fatal(err)
	}
	if page.Script != nil {
		t.Fatalf("missing script should not load")
	}
	mustNext(t, p, navigation.Handled)
}

func TestReloadKeepsLocationAndSkips(t *testing.T) {
	p, _ := newPresenter(t, abcFiles(), abc)
	if _, err := p.Jump("b"); err != nil {
		t.Fatal(err)
	}
	page, err := p.Reload()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !page.Skip || page.Doc.Location != "b.md" {
		t.Fatalf("reload should skip in place, got %+v", page.Doc.Location)
	}
}

func TestNavigationFailureKeepsCurrentPage(t *testing.T) {
	p, _ := newPresenter(t, abcFiles(), []catalog.SlideRecord{{ID: "a", Path: "a.md"}, {ID: "x", Path: "missing.md"}})
	if _, err := p.Start(); err != nil {
		t.Fatal(err)
	}
	p.AutoConfigure()
	_, err := p.Next()
	if err == nil || !strings.Contains(err.Error(), "missing.md") {
		t.Fatalf("expected load error, got %v", err)
	}
	if p.Page().Doc.Location != "a.md" {
		t.Fatalf("failed navigation should keep the current page")
	}
}

func TestObserversReceiveSnapshots(t *testing.T) {
	p, _ := newPresenter(t, abcFiles(), abc)
	var got []Snapshot
	cancel := p.Observe(func(s Snapshot) { got = append(got, s) })
	if _, err := p.Start(); err != nil {
		t.Fatal(err)
	}
	p.AutoConfigure()
	cancel()
	mustNext(t, p, navigation.Navigated)
	if len(got) != 2 {
		t.Fatalf("observer calls = %d, want 2", len(got))
	}
	if got[1].ID != "a" || got[1].Next != "b.md" || got[1].Total != 3 {
		t.Fatalf("unexpected snapshot %+v", got[1])
	}
}

func TestOperationsBeforeOpen(t *testing.T) {
	p, _ := newPresenter(t, abcFiles(), abc)
	if _, err := p.Next(); !errors.Is(err, ErrNoPage) {
		t.Fatalf("expected ErrNoPage, got %v", err)
	}
	if p.AutoConfigure() {
		t.Fatalf("auto configure without page should not run")
	}
	if snap := p.Snapshot(); snap.Open || snap.Index != -1 {
		t.Fatalf("unexpected empty snapshot %+v", snap)
	}
}

func TestFilenamesWithSpacesSurviveSkipNavigation(t *testing.T) {
	records := []catalog.SlideRecord{{ID: "a", Path: "my intro.md"}, {ID: "b", Path: "b.md"}}
	files := map[string]string{"my intro.md": "# Intro", "b.md": "# B"}
	p, led := newPresenter(t, files, records)
	if _, err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.AutoConfigure()
	mustNext(t, p, navigation.Navigated)
	p.AutoConfigure()

	result, err := p.Previous()
	if err != nil || result != navigation.Navigated {
		t.Fatalf("previous = %s, %v", result, err)
	}
	snap := p.Snapshot()
	if snap.Location != "my intro.md" || !snap.Skip {
		t.Fatalf("expected a skip load of the spaced slide, got %+v", snap)
	}
	if !led.HasVisited("my intro.md") {
		t.Fatalf("spaced slide should be recorded as visited")
	}

	if _, err := p.Jump("a"); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if _, err := p.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := p.Snapshot().Location; got != "my intro.md" {
		t.Fatalf("location after reload = %q", got)
	}
}

func TestEarlyNextDoesNotLeaveEndMarker(t *testing.T) {
	p, _ := newPresenter(t, abcFiles(), abc)
	if _, err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	mustNext(t, p, navigation.Terminal)
	if !p.Snapshot().Terminal {
		t.Fatalf("next before configuration should mark the page terminal")
	}
	p.AutoConfigure()
	if snap := p.Snapshot(); snap.Terminal || snap.Next != "b.md" {
		t.Fatalf("configured page still terminal: %+v", snap)
	}
	mustNext(t, p, navigation.Navigated)
}
