package presenter

import (
	"github.com/kingrea/deckhand/internal/catalog"
	"github.com/kingrea/deckhand/internal/navigation"
	"github.com/kingrea/deckhand/internal/reveal"
	"github.com/kingrea/deckhand/internal/slide"
	"github.com/kingrea/deckhand/internal/slidescript"
)

// Page is everything built for one slide load. It is discarded on
// navigation.
type Page struct {
	Doc        *slide.Document
	Engine     *reveal.Engine
	Controller *navigation.Controller
	Script     *slidescript.Script
	// Skip reports whether the page was entered with the skip signal.
	Skip bool
	// Index is the catalog position, -1 for slides outside the deck.
	Index int
	// Load numbers page loads within the presenter, starting at 1.
	Load int

	terminal bool
}

// SetTerminal implements navigation.AdvanceControl.
func (pg *Page) SetTerminal(terminal bool) {
	pg.terminal = terminal
}

// Terminal reports whether "next" was pressed at the end of the deck.
func (pg *Page) Terminal() bool {
	return pg.terminal
}

func (pg *Page) scriptContext() map[string]any {
	return map[string]any{
		"slide":    catalog.Filename(pg.Doc.Location),
		"location": pg.Doc.Location,
		"step":     pg.Engine.CurrentStep(),
		"steps":    pg.Engine.TotalSteps(),
		"skip":     pg.Skip,
	}
}

// Snapshot is a JSON-friendly view of the presenter, served to remotes.
type Snapshot struct {
	Open     bool     `json:"open"`
	Load     int      `json:"load"`
	Index    int      `json:"index"`
	Total    int      `json:"total"`
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title,omitempty"`
	Location string   `json:"location,omitempty"`
	Step     int      `json:"step"`
	Steps    int      `json:"steps"`
	Reveal   string   `json:"reveal"`
	Skip     bool     `json:"skip"`
	Terminal bool     `json:"terminal"`
	Previous string   `json:"previous,omitempty"`
	Next     string   `json:"next,omitempty"`
	Visited  []string `json:"visited"`
}

// Snapshot returns the current state.
func (p *Presenter) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Presenter) snapshotLocked() Snapshot {
	snap := Snapshot{Index: -1, Total: p.catalog.Len(), Reveal: reveal.Disabled.String(), Visited: p.ledger.Visited()}
	if snap.Visited == nil {
		snap.Visited = []string{}
	}
	page := p.page
	if page == nil {
		return snap
	}
	snap.Open = true
	snap.Load = page.Load
	snap.Index = page.Index
	if rec, ok := p.catalog.ByIndex(page.Index); ok {
		snap.ID = rec.ID
	}
	snap.Title = page.Doc.Title()
	snap.Location = page.Doc.Location
	snap.Step = page.Engine.CurrentStep()
	snap.Steps = page.Engine.TotalSteps()
	snap.Reveal = page.Engine.State().String()
	snap.Skip = page.Skip
	snap.Terminal = page.terminal
	target := page.Controller.Target()
	snap.Previous, snap.Next = target.Previous, target.Next
	return snap
}

// Observe registers fn to receive a snapshot after every state change. The
// returned function unregisters it.
func (p *Presenter) Observe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	p.mu.Lock()
	id := p.nextObsID
	p.nextObsID++
	p.observers[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.observers, id)
		p.mu.Unlock()
	}
}

func (p *Presenter) notify(snap Snapshot) {
	p.mu.Lock()
	fns := make([]func(Snapshot), 0, len(p.observers))
	for _, fn := range p.observers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// WithPage calls fn with the current page while holding the presenter lock.
// fn receives nil before the first load and must not call back into the
// presenter.
func (p *Presenter) WithPage(fn func(page *Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.page)
}
