// internal/navigation/navigation.go
//
// The controller turns "next" and "previous" intents into one of three
// outcomes: a slide-supplied handler consumes the intent, the presenter moves
// to an adjacent slide, or nothing happens at the deck boundary. Outgoing
// navigation carries the skip-animation signal when the destination should
// render in its final state.

package navigation

import "strings"

// Result reports which branch an intent took.
type Result int

const (
	// Handled means a custom handler consumed the intent.
	Handled Result = iota
	// Navigated means a page transition was issued.
	Navigated
	// Terminal means "next" was pressed on the final slide.
	Terminal
	// NoTarget means "previous" had nowhere to go.
	NoTarget
)

func (r Result) String() string {
	switch r {
	case Handled:
		return "handled"
	case Navigated:
		return "navigated"
	case Terminal:
		return "terminal"
	case NoTarget:
		return "no-target"
	default:
		return "unknown"
	}
}

// Target holds the adjacent slide paths; an empty string means none.
type Target struct {
	Previous string `json:"previous"`
	Next     string `json:"next"`
}

// Predicate intercepts an intent. Returning true stops default navigation.
type Predicate func() bool

// Handlers is the optional pair of slide-supplied predicates.
type Handlers struct {
	OnNext     Predicate
	OnPrevious Predicate
}

// IsZero reports whether neither predicate is set.
func (h Handlers) IsZero() bool {
	return h.OnNext == nil && h.OnPrevious == nil
}

// Chain returns a pair that asks each non-empty pair in order and stops at
// the first one that handles the intent.
func Chain(pairs ...Handlers) Handlers {
	var active []Handlers
	for _, p := range pairs {
		if !p.IsZero() {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return Handlers{}
	}
	if len(active) == 1 {
		return active[0]
	}
	return Handlers{
		OnNext: func() bool {
			for _, p := range active {
				if p.OnNext != nil && p.OnNext() {
					return true
				}
			}
			return false
		},
		OnPrevious: func() bool {
			for _, p := range active {
				if p.OnPrevious != nil && p.OnPrevious() {
					return true
				}
			}
			return false
		},
	}
}

// VisitChecker answers whether a destination was already seen.
type VisitChecker interface {
	HasVisited(path string) bool
}

// Navigator performs the page transition to a destination URL.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(url string)

// Navigate calls f.
func (f NavigatorFunc) Navigate(url string) { f(url) }

// AdvanceControl is the visual "next" control that can be marked terminal.
type AdvanceControl interface {
	SetTerminal(terminal bool)
}

// Logger receives console-style diagnostics.
type Logger interface {
	Info(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}

// Option customizes a Controller.
type Option func(*Controller)

// WithVisitChecker wires the visit ledger.
func WithVisitChecker(v VisitChecker) Option {
	return func(c *Controller) { c.visits = v }
}

// WithNavigator wires the page transition.
func WithNavigator(n Navigator) Option {
	return func(c *Controller) { c.navigator = n }
}

// WithAdvanceControl wires the terminal-state sink for the "next" control.
func WithAdvanceControl(a AdvanceControl) Option {
	return func(c *Controller) { c.advance = a }
}

// WithLogger routes diagnostics to logger.
func WithLogger(l Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller is created per page and discarded on navigation.
type Controller struct {
	target     Target
	configured bool
	handlers   Handlers

	visits    VisitChecker
	navigator Navigator
	advance   AdvanceControl
	logger    Logger
}

// New builds a controller with no target and no custom handlers.
func New(opts ...Option) *Controller {
	c := &Controller{logger: nopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SetTarget configures the adjacent paths explicitly. A page that calls it
// before the deferred auto configuration keeps its own target.
func (c *Controller) SetTarget(t Target) {
	c.target = Target{Previous: strings.TrimSpace(t.Previous), Next: strings.TrimSpace(t.Next)}
	c.configured = true
	// A "next" pressed before the target arrived may have marked the page
	// terminal; a real next target lifts that.
	if c.target.Next != "" && c.advance != nil {
		c.advance.SetTerminal(false)
	}
	c.logger.Info("Slide navigation configured: previous=%q next=%q", c.target.Previous, c.target.Next)
}

// ApplyNavigation satisfies catalog.Applier.
func (c *Controller) ApplyNavigation(previous, next string) {
	c.SetTarget(Target{Previous: previous, Next: next})
}

// Target returns the active target.
func (c *Controller) Target() Target {
	return c.target
}

// Configured reports whether a target has been set.
func (c *Controller) Configured() bool {
	return c.configured
}

// AutoConfigure runs the deferred derivation unless the page already set a
// target. It reports whether derive was invoked.
func (c *Controller) AutoConfigure(derive func(Applier) bool) bool {
	if c.configured {
		c.logger.Info("Navigation already configured; skipping auto configuration")
		return false
	}
	if derive == nil {
		return false
	}
	if !derive(c) {
		c.logger.Info("Current slide is not in the deck index; navigation left unconfigured")
	}
	return true
}

// Applier is the hook auto configuration pushes targets through.
type Applier interface {
	ApplyNavigation(previous, next string)
}

// SetCustomHandlers replaces the active handler pair.
func (c *Controller) SetCustomHandlers(h Handlers) {
	c.handlers = h
}

// ClearCustomHandlers removes the active handler pair.
func (c *Controller) ClearCustomHandlers() {
	c.handlers = Handlers{}
}

// CustomHandlers returns the active pair.
func (c *Controller) CustomHandlers() Handlers {
	return c.handlers
}

// HandleNext processes a "next" intent.
func (c *Controller) HandleNext() Result {
	if c.handlers.OnNext != nil && c.handlers.OnNext() {
		return Handled
	}
	next := c.target.Next
	if next == "" {
		if c.advance != nil {
			c.advance.SetTerminal(true)
		}
		c.logger.Info("Next navigation not configured for this slide")
		return Terminal
	}
	dest := next
	if c.visits != nil && c.visits.HasVisited(next) {
		dest = WithSkipSignal(next)
	}
	c.navigate(dest)
	return Navigated
}

// HandlePrevious processes a "previous" intent. Backward moves always carry
// the skip signal.
func (c *Controller) HandlePrevious() Result {
	if c.handlers.OnPrevious != nil && c.handlers.OnPrevious() {
		return Handled
	}
	prev := c.target.Previous
	if prev == "" {
		c.logger.Info("Previous navigation not configured for this slide")
		return NoTarget
	}
	c.navigate(WithSkipSignal(prev))
	return Navigated
}

func (c *Controller) navigate(dest string) {
	if c.navigator == nil {
		c.logger.Info("No navigator attached; dropping transition to %s", dest)
		return
	}
	c.navigator.Navigate(dest)
}
