// Package session implements the full-session reset: after it runs, entering
// any slide behaves exactly like a first visit.
package session

// VisitClearer is the visit ledger.
type VisitClearer interface {
	Clear()
}

// AnimationFlag is the document-level "animations disabled" flag.
type AnimationFlag interface {
	SetAnimationsDisabled(disabled bool)
}

// RevealResetter is the progressive reveal engine.
type RevealResetter interface {
	Reset()
}

// StateResetter is an optional slide-local collaborator that restores its
// own visual state.
type StateResetter interface {
	ResetSlideState()
}

// Logger receives a line when a reset runs.
type Logger interface {
	Info(format string, args ...any)
}

// Reset bundles the collaborators a session reset touches. Any field may be
// nil; missing collaborators are skipped.
type Reset struct {
	Ledger     VisitClearer
	Document   AnimationFlag
	Reveal     RevealResetter
	SlideLocal StateResetter
	Logger     Logger
}

// Run performs the reset.
func (r Reset) Run() {
	if r.Ledger != nil {
		r.Ledger.Clear()
	}
	if r.Document != nil {
		r.Document.SetAnimationsDisabled(false)
	}
	if r.Reveal != nil {
		r.Reveal.Reset()
	}
	if r.SlideLocal != nil {
		r.SlideLocal.ResetSlideState()
	}
	if r.Logger != nil {
		r.Logger.Info("Session reset: visit history cleared")
	}
}
