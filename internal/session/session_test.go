package session

import (
	"strings"
	"testing"
)

type calls struct{ order []string }

type fakeLedger struct{ c *calls }

func (f fakeLedger) Clear() { f.c.order = append(f.c.order, "ledger") }

type fakeDocument struct {
	c        *calls
	disabled bool
}

func (f *fakeDocument) SetAnimationsDisabled(disabled bool) {
	f.disabled = disabled
	f.c.order = append(f.c.order, "document")
}

type fakeReveal struct{ c *calls }

func (f fakeReveal) Reset() { f.c.order = append(f.c.order, "reveal") }

type fakeLocal struct{ c *calls }

func (f fakeLocal) ResetSlideState() { f.c.order = append(f.c.order, "local") }

func TestRunTouchesEveryCollaborator(t *testing.T) {
	c := &calls{}
	doc := &fakeDocument{c: c, disabled: true}
	Reset{
		Ledger:     fakeLedger{c},
		Document:   doc,
		Reveal:     fakeReveal{c},
		SlideLocal: fakeLocal{c},
	}.Run()
	if got := strings.Join(c.order, ","); got != "ledger,document,reveal,local" {
		t.Fatalf("unexpected reset order %s", got)
	}
	if doc.disabled {
		t.Fatalf("animations flag should be cleared")
	}
}

func TestRunSkipsMissingCollaborators(t *testing.T) {
	c := &calls{}
	Reset{Ledger: fakeLedger{c}}.Run()
	if got := strings.Join(c.order, ","); got != "ledger" {
		t.Fatalf("unexpected calls %s", got)
	}
}
