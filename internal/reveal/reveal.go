// internal/reveal/reveal.go
//
// The reveal engine staggers on-slide content across repeated "next" presses.
// Each page builds a fresh engine from a typed list of (element, step)
// markers. While steps remain, "next" reveals the next step instead of
// leaving the slide; "previous" is never captured.

package reveal

import "github.com/kingrea/deckhand/internal/navigation"

// State is the engine lifecycle.
type State int

const (
	// Disabled means the slide declares no numbered reveal markers.
	Disabled State = iota
	// Idle means markers exist and nothing has been revealed yet.
	Idle
	// Revealing means some but not all steps are visible.
	Revealing
	// Complete means every step is visible.
	Complete
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Idle:
		return "idle"
	case Revealing:
		return "revealing"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Element is a piece of slide content whose visibility the engine controls.
type Element interface {
	// Reveal makes the element visible; animate=false shows it in its final
	// state with no transition.
	Reveal(animate bool)
	// Conceal hides the element and clears any transition override.
	Conceal()
	Revealed() bool
}

// Marker tags an element with the step that reveals it. Steps start at 1.
type Marker struct {
	Element Element
	Step    int
}

// Engine is the per-slide reveal state machine.
type Engine struct {
	markers []Marker
	onLoad  []Element
	current int
	total   int
	enabled bool
	instant bool
}

// New returns a disabled engine; call Load to scan a slide.
func New() *Engine {
	return &Engine{}
}

// Load derives the step count from markers and reveals on-load elements.
// With skip set the engine jumps straight to Complete and every marked
// element appears without transition.
func (e *Engine) Load(markers []Marker, onLoad []Element, skip bool) {
	e.markers = e.markers[:0]
	e.onLoad = e.onLoad[:0]
	e.current, e.total, e.enabled, e.instant = 0, 0, false, skip
	for _, m := range markers {
		if m.Element == nil || m.Step < 1 {
			continue
		}
		e.markers = append(e.markers, m)
		if m.Step > e.total {
			e.total = m.Step
		}
	}
	for _, el := range onLoad {
		if el != nil {
			e.onLoad = append(e.onLoad, el)
		}
	}
	e.enabled = e.total > 0
	for _, el := range e.onLoad {
		el.Reveal(!skip)
	}
	if !e.enabled || !skip {
		return
	}
	for _, m := range e.markers {
		m.Element.Reveal(false)
	}
	e.current = e.total
}

// State reports the lifecycle state.
func (e *Engine) State() State {
	switch {
	case !e.enabled:
		return Disabled
	case e.current == 0:
		return Idle
	case e.current < e.total:
		return Revealing
	default:
		return Complete
	}
}

// CurrentStep returns the number of revealed steps.
func (e *Engine) CurrentStep() int { return e.current }

// TotalSteps returns the highest declared step.
func (e *Engine) TotalSteps() int { return e.total }

// Enabled reports whether the slide has numbered markers.
func (e *Engine) Enabled() bool { return e.enabled }

// Instant reports whether this load suppressed transitions.
func (e *Engine) Instant() bool { return e.instant }

// Advance reveals the next step. It reports whether a step was revealed.
func (e *Engine) Advance() bool {
	switch e.State() {
	case Disabled, Complete:
		return false
	}
	e.current++
	for _, m := range e.markers {
		if m.Step == e.current {
			m.Element.Reveal(!e.instant)
		}
	}
	return true
}

// Reset hides every reveal-family element and returns to Idle so future
// reveals animate again. On-load elements are shown again afterwards, the
// way a fresh load would show them.
func (e *Engine) Reset() {
	for _, m := range e.markers {
		m.Element.Conceal()
	}
	for _, el := range e.onLoad {
		el.Conceal()
	}
	e.current = 0
	e.instant = false
	for _, el := range e.onLoad {
		el.Reveal(true)
	}
}

// HandleNext captures "next" while steps remain.
func (e *Engine) HandleNext() bool {
	switch e.State() {
	case Idle, Revealing:
		return e.Advance()
	default:
		return false
	}
}

// HandlePrevious never captures "previous"; stepping backwards through
// reveals is not supported.
func (e *Engine) HandlePrevious() bool {
	return false
}

// Handlers exposes the engine as a custom navigation handler pair. A
// disabled engine yields the zero pair.
func (e *Engine) Handlers() navigation.Handlers {
	if !e.enabled {
		return navigation.Handlers{}
	}
	return navigation.Handlers{OnNext: e.HandleNext, OnPrevious: e.HandlePrevious}
}
