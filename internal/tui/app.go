// internal/tui/app.go
//
// This is the presenter TUI for deckhand. It uses bubbletea, which follows
// The Elm Architecture:
//
// 1. Model: the App, wrapping the shared presenter
// 2. Update: key presses and remote messages turn into navigation intents
// 3. View: the current slide, a footer and the journey log
//
// The presenter is shared with the remote bridge and the file watcher, so the
// App never caches slide state. It only remembers which page load it last
// scheduled auto configuration for.

package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/deckhand/internal/config"
	"github.com/kingrea/deckhand/internal/logbook"
	"github.com/kingrea/deckhand/internal/navigation"
	"github.com/kingrea/deckhand/internal/presenter"
	"github.com/kingrea/deckhand/internal/slide"
)

// appState represents which screen is shown.
type appState int

const (
	stateSlide    appState = iota // The current slide
	stateOverview                 // Slide list for jumping
)

const (
	defaultSettleDelay = 400 * time.Millisecond
	logPanelLines      = 6
)

// StateChangedMsg tells the App that the presenter changed outside the
// event loop (remote control, file watcher).
type StateChangedMsg struct {
	Snapshot presenter.Snapshot
}

type autoConfigureMsg struct{ load int }

type settleMsg struct{ load int }

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook shows the journey log panel and records UI events.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) { a.logbook = lb }
}

// WithAutoConfigureDelay overrides the deferred auto configuration delay.
func WithAutoConfigureDelay(d time.Duration) AppOption {
	return func(a *App) {
		if d >= 0 {
			a.autoDelay = d
		}
	}
}

// WithSettleDelay overrides how long a reveal stays highlighted.
func WithSettleDelay(d time.Duration) AppOption {
	return func(a *App) {
		if d >= 0 {
			a.settleDelay = d
		}
	}
}

// WithStyle selects the glamour style for slide bodies.
func WithStyle(style string) AppOption {
	return func(a *App) { a.style = style }
}

// WithTitle sets the deck title shown in the header.
func WithTitle(title string) AppOption {
	return func(a *App) { a.title = strings.TrimSpace(title) }
}

// WithRemoteURL advertises the remote control address in the header.
func WithRemoteURL(url string) AppOption {
	return func(a *App) { a.remoteURL = strings.TrimSpace(url) }
}

// FromConfig applies deck configuration.
func FromConfig(cfg *config.Config) AppOption {
	return func(a *App) {
		if cfg == nil {
			return
		}
		a.autoDelay = cfg.AutoConfigureDelay()
		if a.title == "" {
			a.title = cfg.Deck.Title
		}
	}
}

type keyMap struct {
	Next     key.Binding
	Previous key.Binding
	Notes    key.Binding
	Reset    key.Binding
	Overview key.Binding
	Back     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:     key.NewBinding(key.WithKeys("right", " ", "space", "l"), key.WithHelp("→/space", "next")),
		Previous: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "previous")),
		Notes:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "notes")),
		Reset:    key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "reset session")),
		Overview: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "overview")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Previous, k.Notes, k.Reset, k.Overview, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Back}}
}

// slideItem implements list.Item for the overview.
type slideItem struct {
	id      string
	title   string
	path    string
	visited bool
}

func (i slideItem) Title() string {
	if i.visited {
		return "✓ " + i.title
	}
	return i.title
}
func (i slideItem) Description() string { return i.path }
func (i slideItem) FilterValue() string { return i.title }

// App is the main application model.
type App struct {
	state     appState
	presenter *presenter.Presenter
	logbook   *logbook.Logbook

	keys     keyMap
	help     help.Model
	overview list.Model
	renderer *slide.Renderer

	style       string
	title       string
	remoteURL   string
	autoDelay   time.Duration
	settleDelay time.Duration

	load      int
	showNotes bool
	statusMsg string
	err       error

	width  int
	height int
}

// NewApp wraps p. The first slide is opened by Init when nothing is open yet.
func NewApp(p *presenter.Presenter, opts ...AppOption) *App {
	overview := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	overview.Title = "Slides"
	overview.SetShowStatusBar(false)
	overview.SetFilteringEnabled(false)

	app := &App{
		state:       stateSlide,
		presenter:   p,
		keys:        defaultKeyMap(),
		help:        help.New(),
		overview:    overview,
		style:       slide.DefaultStyle,
		autoDelay:   config.DefaultAutoConfigureDelay,
		settleDelay: defaultSettleDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	if a.presenter.Page() == nil {
		if _, err := a.presenter.Start(); err != nil {
			a.err = err
			a.logWarn("Could not open first slide: %v", err)
			return nil
		}
	}
	return a.syncPage()
}

// syncPage schedules the per-page timers when the presenter loaded a new
// page since the last call.
func (a *App) syncPage() tea.Cmd {
	snap := a.presenter.Snapshot()
	if !snap.Open {
		return nil
	}
	var cmds []tea.Cmd
	if snap.Load != a.load {
		a.load = snap.Load
		a.showNotes = false
		load := a.load
		cmds = append(cmds, tea.Tick(a.autoDelay, func(time.Time) tea.Msg { return autoConfigureMsg{load: load} }))
	}
	cmds = append(cmds, a.scheduleSettle())
	return tea.Batch(cmds...)
}

func (a *App) scheduleSettle() tea.Cmd {
	animating := false
	a.presenter.WithPage(func(page *presenter.Page) {
		animating = page != nil && page.Doc.Animating()
	})
	if !animating {
		return nil
	}
	load := a.load
	return tea.Tick(a.settleDelay, func(time.Time) tea.Msg { return settleMsg{load: load} })
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.overview.SetSize(max(0, msg.Width-6), max(0, msg.Height-8))
		a.help.Width = msg.Width
		a.renderer = nil
		return a, nil

	case autoConfigureMsg:
		if msg.load == a.load {
			a.presenter.AutoConfigure()
		}
		return a, nil

	case settleMsg:
		if msg.load == a.load {
			a.presenter.Settle()
		}
		return a, nil

	case StateChangedMsg:
		return a, a.syncPage()

	case tea.KeyMsg:
		if a.state == stateOverview {
			return a.updateOverview(msg)
		}
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Next):
			return a, a.navigate(a.presenter.Next)
		case key.Matches(msg, a.keys.Previous):
			return a, a.navigate(a.presenter.Previous)
		case key.Matches(msg, a.keys.Notes):
			a.showNotes = !a.showNotes
			return a, nil
		case key.Matches(msg, a.keys.Reset):
			a.presenter.ResetSession()
			a.statusMsg = "Session reset"
			return a, a.syncPage()
		case key.Matches(msg, a.keys.Overview):
			a.openOverview()
			return a, nil
		}
	}
	return a, nil
}

func (a *App) navigate(intent func() (navigation.Result, error)) tea.Cmd {
	result, err := intent()
	a.err = err
	switch result {
	case navigation.Terminal:
		a.statusMsg = "End of deck"
	case navigation.NoTarget:
		a.statusMsg = "Start of deck"
	default:
		a.statusMsg = ""
	}
	if err != nil {
		a.logWarn("Navigation failed: %v", err)
	}
	return a.syncPage()
}

func (a *App) openOverview() {
	visited := map[string]bool{}
	for _, v := range a.presenter.Visited() {
		visited[v] = true
	}
	slides := a.presenter.Catalog().All()
	items := make([]list.Item, len(slides))
	for i, s := range slides {
		title := s.Title
		if title == "" {
			title = s.ID
		}
		items[i] = slideItem{id: s.ID, title: title, path: s.Path, visited: visited[filepath.Base(s.Path)]}
	}
	a.overview.SetItems(items)
	if idx := a.presenter.Snapshot().Index; idx >= 0 && idx < len(items) {
		a.overview.Select(idx)
	}
	a.state = stateOverview
}

func (a *App) updateOverview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return a, tea.Quit
	case key.Matches(msg, a.keys.Back), key.Matches(msg, a.keys.Overview):
		a.state = stateSlide
		return a, nil
	case msg.String() == "enter":
		a.state = stateSlide
		item, ok := a.overview.SelectedItem().(slideItem)
		if !ok {
			return a, nil
		}
		if _, err := a.presenter.Jump(item.id); err != nil {
			a.err = err
			a.logWarn("Jump to %s failed: %v", item.id, err)
			return a, nil
		}
		a.logInfo("Jumped to %s", item.id)
		return a, a.syncPage()
	}
	var cmd tea.Cmd
	a.overview, cmd = a.overview.Update(msg)
	return a, cmd
}

// View renders the screen.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	var content string
	switch a.state {
	case stateOverview:
		content = a.overview.View()
	default:
		content = a.renderSlide(width - 6)
	}
	return a.renderFrame(content, width)
}

func (a *App) renderSlide(width int) string {
	if a.renderer == nil || a.renderer.Width() != max(20, width) {
		r, err := slide.NewRenderer(a.style, width)
		if err != nil {
			return fmt.Sprintf("render error: %v", err)
		}
		a.renderer = r
	}
	var body, notes string
	a.presenter.WithPage(func(page *presenter.Page) {
		if page == nil {
			return
		}
		body = a.renderer.Render(page.Doc)
		notes = page.Doc.Meta.Notes
	})
	if body == "" && a.err != nil {
		return a.err.Error()
	}
	if a.showNotes {
		if notes == "" {
			notes = "No speaker notes for this slide."
		}
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5B8DEF")).
			Padding(0, 1).
			Render(notes)
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", box)
	}
	return body
}

func (a *App) renderFrame(content string, width int) string {
	title := a.title
	if title == "" {
		title = "deckhand"
	}
	if a.remoteURL != "" {
		title = fmt.Sprintf("%s · remote %s", title, a.remoteURL)
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render(title)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, width-2)).
		Render(content)
	sections := []string{header, box, a.renderFooter()}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, a.help.View(a.keys))
	return strings.Join(sections, "\n")
}

func (a *App) renderFooter() string {
	snap := a.presenter.Snapshot()
	var parts []string
	if snap.Open {
		if snap.Index >= 0 {
			parts = append(parts, fmt.Sprintf("slide %d/%d", snap.Index+1, snap.Total))
		} else {
			parts = append(parts, snap.Location)
		}
		if snap.Steps > 0 {
			parts = append(parts, fmt.Sprintf("step %d/%d", snap.Step, snap.Steps))
		}
		if snap.Terminal {
			parts = append(parts, "END")
		}
	}
	if a.statusMsg != "" {
		parts = append(parts, a.statusMsg)
	}
	if a.err != nil {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Render(a.err.Error()))
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(strings.Join(parts, " · "))
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s (%d)", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}
