package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/deckhand/internal/catalog"
	"github.com/kingrea/deckhand/internal/ledger"
	"github.com/kingrea/deckhand/internal/ledger/store"
	"github.com/kingrea/deckhand/internal/logbook"
	"github.com/kingrea/deckhand/internal/presenter"
	"github.com/kingrea/deckhand/internal/slide"
)

func newTestPresenter(t *testing.T) *presenter.Presenter {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"a.md": "---\ntitle: Welcome\nnotes: Say hello first.\n---\n# Welcome\n\nIntro",
		"b.md": "# Tools\n\n<!-- reveal-on-next-1 -->\nCopilot",
		"c.md": "# Done\n\nThanks",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	cat, err := catalog.New([]catalog.SlideRecord{
		{ID: "a", Path: "a.md", Title: "Welcome"},
		{ID: "b", Path: "b.md", Title: "Tools"},
		{ID: "c", Path: "c.md", Title: "Done"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return presenter.New(cat, ledger.New(store.NewMemory()), slide.NewLoader(dir))
}

func newTestApp(t *testing.T, p *presenter.Presenter, opts ...AppOption) *App {
	t.Helper()
	base := []AppOption{
		WithAutoConfigureDelay(time.Millisecond),
		WithSettleDelay(time.Millisecond),
		WithStyle("notty"),
	}
	return NewApp(p, append(base, opts...)...)
}

// runCommands drains cmd and everything it schedules, feeding each message
// back through Update.
func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case tea.QuitMsg:
			return app
		default:
			nextModel, nextCmd := app.Update(msg)
			app, ok = nextModel.(*App)
			if !ok {
				t.Fatalf("unexpected model type: %T", nextModel)
			}
			queue = append(queue, nextCmd)
		}
	}
	return app
}

func press(t *testing.T, app *App, msg tea.KeyMsg) *App {
	t.Helper()
	model, cmd := app.Update(msg)
	return runCommands(t, model, cmd)
}

var (
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestInitOpensFirstSlideAndAutoConfigures(t *testing.T) {
	p := newTestPresenter(t)
	app := newTestApp(t, p)
	app = runCommands(t, app, app.Init())
	snap := p.Snapshot()
	if snap.ID != "a" || snap.Next != "b.md" {
		t.Fatalf("unexpected snapshot after init: %+v", snap)
	}
	if !strings.Contains(app.View(), "slide 1/3") {
		t.Fatalf("footer missing position:\n%s", app.View())
	}
}

func TestKeysWalkTheDeck(t *testing.T) {
	p := newTestPresenter(t)
	app := newTestApp(t, p)
	app = runCommands(t, app, app.Init())

	app = press(t, app, keyRight)
	if got := p.Snapshot(); got.ID != "b" || got.Step != 0 {
		t.Fatalf("expected slide b at step 0, got %+v", got)
	}
	app = press(t, app, keyRight)
	if got := p.Snapshot(); got.ID != "b" || got.Step != 1 {
		t.Fatalf("expected reveal step 1, got %+v", got)
	}
	if !strings.Contains(app.View(), "Copilot") {
		t.Fatalf("revealed block missing from view")
	}
	app = press(t, app, keyRight)
	app = press(t, app, keyRight)
	if !p.Snapshot().Terminal || !strings.Contains(app.View(), "END") {
		t.Fatalf("expected terminal state at the end of the deck")
	}
	app = press(t, app, keyLeft)
	if got := p.Snapshot(); got.ID != "b" || !got.Skip || got.Step != 1 {
		t.Fatalf("backward navigation should land on b in its final state, got %+v", got)
	}
}

func TestNotesToggle(t *testing.T) {
	p := newTestPresenter(t)
	app := newTestApp(t, p)
	app = runCommands(t, app, app.Init())
	if strings.Contains(app.View(), "Say hello first.") {
		t.Fatalf("notes should start hidden")
	}
	app = press(t, app, runeKey('?'))
	if !strings.Contains(app.View(), "Say hello first.") {
		t.Fatalf("notes panel missing:\n%s", app.View())
	}
}

func TestResetKeyClearsHistory(t *testing.T) {
	p := newTestPresenter(t)
	app := newTestApp(t, p)
	app = runCommands(t, app, app.Init())
	app = press(t, app, keyRight)
	if len(p.Visited()) != 2 {
		t.Fatalf("expected two visited slides, got %v", p.Visited())
	}
	app = press(t, app, runeKey('r'))
	if len(p.Visited()) != 0 {
		t.Fatalf("reset should clear history, got %v", p.Visited())
	}
	if app.statusMsg != "Session reset" {
		t.Fatalf("status = %q", app.statusMsg)
	}
}

func TestOverviewJump(t *testing.T) {
	p := newTestPresenter(t)
	app := newTestApp(t, p)
	app = runCommands(t, app, app.Init())
	app = press(t, app, runeKey('g'))
	if app.state != stateOverview {
		t.Fatalf("expected overview state")
	}
	app.overview.Select(2)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if app.state != stateSlide {
		t.Fatalf("enter should return to the slide view")
	}
	if got := p.Snapshot(); got.ID != "c" || got.Previous != "b.md" {
		t.Fatalf("jump should open c and auto configure it, got %+v", got)
	}
}

func TestExternalChangeSchedulesAutoConfiguration(t *testing.T) {
	p := newTestPresenter(t)
	app := newTestApp(t, p)
	app = runCommands(t, app, app.Init())
	if _, err := p.Jump("c"); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if p.Snapshot().Previous != "" {
		t.Fatalf("target should be unset before the app reacts")
	}
	model, cmd := app.Update(StateChangedMsg{Snapshot: p.Snapshot()})
	runCommands(t, model, cmd)
	if p.Snapshot().Previous != "b.md" {
		t.Fatalf("auto configuration should run after an external change")
	}
}

func TestLogPanelShowsJourney(t *testing.T) {
	lb, err := logbook.Open(t.TempDir())
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	lb.Info("Presenting deck")
	p := newTestPresenter(t)
	app := newTestApp(t, p, WithLogbook(lb))
	app = runCommands(t, app, app.Init())
	if !strings.Contains(app.View(), "Presenting deck") {
		t.Fatalf("log panel missing entries")
	}
}

func TestQuit(t *testing.T) {
	app := newTestApp(t, newTestPresenter(t))
	_, cmd := app.Update(runeKey('q'))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
