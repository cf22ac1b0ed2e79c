// internal/presenter/presenter.go
//
// The presenter owns the page lifecycle. Opening a location is a page load:
// the skip signal is consumed, the slide document is parsed, the visit is
// recorded, and a fresh reveal engine and navigation controller are built for
// that page alone. Navigation never mutates a page in place; it opens the
// destination and discards the previous page.
//
// Every exported method takes the presenter lock, so the terminal UI, the
// remote bridge and the file watcher can drive one presenter concurrently.

package presenter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kingrea/deckhand/internal/catalog"
	"github.com/kingrea/deckhand/internal/ledger"
	"github.com/kingrea/deckhand/internal/navigation"
	"github.com/kingrea/deckhand/internal/reveal"
	"github.com/kingrea/deckhand/internal/session"
	"github.com/kingrea/deckhand/internal/slide"
	"github.com/kingrea/deckhand/internal/slidescript"
)

// ErrNoPage indicates an operation that needs an open page.
var ErrNoPage = errors.New("presenter: no slide open")

// ErrUnknownSlide indicates a jump to an id missing from the catalog.
var ErrUnknownSlide = errors.New("presenter: unknown slide")

// Logger is the logbook contract used by the presenter and handed to the
// collaborators it builds.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}

// Option customizes a Presenter.
type Option func(*Presenter)

// WithLogger routes diagnostics to logger.
func WithLogger(l Logger) Option {
	return func(p *Presenter) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithScripts toggles evaluation of per-slide scripts.
func WithScripts(enabled bool) Option {
	return func(p *Presenter) { p.scripts = enabled }
}

// Presenter drives one deck for one session.
type Presenter struct {
	mu sync.Mutex

	catalog *catalog.Catalog
	ledger  *ledger.Ledger
	loader  *slide.Loader
	logger  Logger
	scripts bool

	page    *Page
	pending string
	loads   int

	observers map[int]func(Snapshot)
	nextObsID int
}

// New wires a presenter. Nothing is opened until Start or Open is called.
func New(cat *catalog.Catalog, led *ledger.Ledger, loader *slide.Loader, opts ...Option) *Presenter {
	p := &Presenter{
		catalog:   cat,
		ledger:    led,
		loader:    loader,
		logger:    nopLogger{},
		scripts:   true,
		observers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Catalog returns the deck index.
func (p *Presenter) Catalog() *catalog.Catalog {
	return p.catalog
}

// Start opens the first slide of the deck.
func (p *Presenter) Start() (*Page, error) {
	first, ok := p.catalog.ByIndex(0)
	if !ok {
		return nil, catalog.ErrEmptyCatalog
	}
	return p.Open(first.Path)
}

// Open loads location as a new page.
func (p *Presenter) Open(location string) (*Page, error) {
	p.mu.Lock()
	page, err := p.openLocked(location)
	snap := p.snapshotLocked()
	p.mu.Unlock()
	if err == nil {
		p.notify(snap)
	}
	return page, err
}

// Page returns the current page, or nil before the first load.
func (p *Presenter) Page() *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// AutoConfigure runs the deferred navigation derivation for the current
// page. It reports whether the derivation ran.
func (p *Presenter) AutoConfigure() bool {
	p.mu.Lock()
	page := p.page
	if page == nil {
		p.mu.Unlock()
		return false
	}
	ran := page.Controller.AutoConfigure(func(a navigation.Applier) bool {
		_, ok := p.catalog.DeriveAndApply(page.Doc.Location, a)
		return ok
	})
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snap)
	return ran
}

// Next handles a "next" intent.
func (p *Presenter) Next() (navigation.Result, error) {
	return p.intent(func(c *navigation.Controller) navigation.Result { return c.HandleNext() })
}

// Previous handles a "previous" intent.
func (p *Presenter) Previous() (navigation.Result, error) {
	return p.intent(func(c *navigation.Controller) navigation.Result { return c.HandlePrevious() })
}

func (p *Presenter) intent(handle func(*navigation.Controller) navigation.Result) (navigation.Result, error) {
	p.mu.Lock()
	if p.page == nil {
		p.mu.Unlock()
		return navigation.NoTarget, ErrNoPage
	}
	p.pending = ""
	result := handle(p.page.Controller)
	var err error
	if result == navigation.Navigated && p.pending != "" {
		dest := p.pending
		p.pending = ""
		if _, err = p.openLocked(dest); err != nil {
			p.logger.Warn("Navigation to %s failed: %v", dest, err)
		}
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snap)
	return result, err
}

// Jump opens the slide with id, carrying the skip signal when it was
// already visited.
func (p *Presenter) Jump(id string) (*Page, error) {
	rec, ok := p.catalog.LookupByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSlide, id)
	}
	dest := rec.Path
	if p.ledger.HasVisited(dest) {
		dest = navigation.WithSkipSignal(dest)
	}
	return p.Open(dest)
}

// Reload reopens the current slide in its final state, used after the file
// on disk changed.
func (p *Presenter) Reload() (*Page, error) {
	p.mu.Lock()
	if p.page == nil {
		p.mu.Unlock()
		return nil, ErrNoPage
	}
	location := p.page.Doc.Location
	p.mu.Unlock()
	return p.Open(navigation.WithSkipSignal(location))
}

// ResetSession clears the visit history and returns the current page to its
// first-visit state.
func (p *Presenter) ResetSession() {
	p.mu.Lock()
	r := session.Reset{Ledger: p.ledger, Logger: p.logger}
	if page := p.page; page != nil {
		r.Document = page.Doc
		r.Reveal = page.Engine
		if page.Script != nil {
			r.SlideLocal = page.Script
		}
		page.terminal = false
		page.Skip = false
	}
	r.Run()
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snap)
}

// Settle ends running reveal transitions on the current page.
func (p *Presenter) Settle() {
	p.mu.Lock()
	if p.page != nil {
		p.page.Doc.Settle()
	}
	p.mu.Unlock()
}

// Visited lists the ledger contents.
func (p *Presenter) Visited() []string {
	return p.ledger.Visited()
}

func (p *Presenter) openLocked(location string) (*Page, error) {
	cleaned, skip := navigation.ConsumeSkipSignal(location)
	doc, err := p.loader.Load(cleaned)
	if err != nil {
		return nil, err
	}
	doc.Location = cleaned
	for _, w := range doc.Warnings {
		p.logger.Warn("%s: %s", cleaned, w)
	}
	if skip {
		doc.SetAnimationsDisabled(true)
	} else {
		p.ledger.RecordVisit(cleaned)
	}

	p.loads++
	page := &Page{Doc: doc, Skip: skip, Index: p.catalog.CurrentIndex(cleaned), Load: p.loads}
	page.Engine = reveal.New()
	page.Engine.Load(doc.Markers(), doc.OnLoadElements(), skip)
	page.Controller = navigation.New(
		navigation.WithVisitChecker(p.ledger),
		navigation.WithNavigator(navigation.NavigatorFunc(func(url string) { p.pending = url })),
		navigation.WithAdvanceControl(page),
		navigation.WithLogger(p.logger),
	)
	if doc.Meta.PinsNavigation() {
		page.Controller.SetTarget(navigation.Target{Previous: doc.Meta.Previous, Next: doc.Meta.Next})
	}

	var scriptHandlers navigation.Handlers
	if p.scripts {
		if path := p.loader.ScriptPath(doc); path != "" {
			script, err := slidescript.Load(path, p.logger)
			if err != nil {
				p.logger.Warn("Slide script for %s not loaded: %v", cleaned, err)
			} else {
				page.Script = script
				scriptHandlers = script.Handlers(page.scriptContext)
			}
		}
	}
	page.Controller.SetCustomHandlers(navigation.Chain(scriptHandlers, page.Engine.Handlers()))

	p.page = page
	p.logger.Info("Opened %s (skip=%t, steps=%d)", cleaned, skip, page.Engine.TotalSteps())
	return page, nil
}
