package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testDeck(t *testing.T, opts ...Option) *Catalog {
	t.Helper()
	c, err := New([]SlideRecord{
		{ID: "01-intro", Path: "01-intro.md"},
		{ID: "02-tools", Path: "02-tools.md"},
		{ID: "01-refinement", Path: "05-refinement.md"},
		{ID: "10-final", Path: "14-final-thoughts.md"},
	}, opts...)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return c
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]SlideRecord{{ID: "a", Path: "a.md"}, {ID: "a", Path: "b.md"}})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
	_, err = New([]SlideRecord{{ID: "a", Path: "a.md"}, {ID: "b", Path: "../a.md"}})
	if !errors.Is(err, ErrDuplicatePath) {
		t.Fatalf("expected duplicate path error, got %v", err)
	}
	if _, err := New(nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected empty catalog error, got %v", err)
	}
}

func TestPreviousAndNextPathsForEveryIndex(t *testing.T) {
	c := testDeck(t)
	n := c.Len()
	for i := 1; i < n; i++ {
		want, _ := c.ByIndex(i - 1)
		got, ok := c.PreviousPath(i)
		if !ok || got != want.Path {
			t.Fatalf("PreviousPath(%d) = %q, %v; want %q", i, got, ok, want.Path)
		}
	}
	if got, ok := c.PreviousPath(0); ok {
		t.Fatalf("PreviousPath(0) = %q, want none", got)
	}
	for i := 0; i < n-1; i++ {
		want, _ := c.ByIndex(i + 1)
		got, ok := c.NextPath(i)
		if !ok || got != want.Path {
			t.Fatalf("NextPath(%d) = %q, %v; want %q", i, got, ok, want.Path)
		}
	}
	if got, ok := c.NextPath(n - 1); ok {
		t.Fatalf("NextPath(last) = %q, want none", got)
	}
	if _, ok := c.NextPath(-1); ok {
		t.Fatalf("NextPath(-1) should be none")
	}
	for _, out := range []int{n, n + 1} {
		if got, ok := c.PreviousPath(out); ok {
			t.Fatalf("PreviousPath(%d) = %q, want none for an index past the deck", out, got)
		}
		if got, ok := c.NextPath(out); ok {
			t.Fatalf("NextPath(%d) = %q, want none", out, got)
		}
	}
}

func TestParentRelativeStyle(t *testing.T) {
	c := testDeck(t, WithPathStyle(PathStyleParentRelative))
	got, ok := c.NextPath(0)
	if !ok || got != "../02-tools.md" {
		t.Fatalf("NextPath(0) = %q, want ../02-tools.md", got)
	}
}

func TestLookups(t *testing.T) {
	c := testDeck(t)
	rec, ok := c.LookupByID("01-refinement")
	if !ok || rec.Path != "05-refinement.md" {
		t.Fatalf("LookupByID = %+v, %v", rec, ok)
	}
	for _, path := range []string{"05-refinement.md", "../05-refinement.md", "/05-refinement.md"} {
		if rec, ok := c.LookupByPath(path); !ok || rec.ID != "01-refinement" {
			t.Fatalf("LookupByPath(%q) = %+v, %v", path, rec, ok)
		}
	}
	if _, ok := c.LookupByID("missing"); ok {
		t.Fatalf("expected lookup miss")
	}
}

func TestCurrentIndexMatchesTrailingFilename(t *testing.T) {
	c := testDeck(t)
	cases := map[string]int{
		"/talks/ai/02-tools.md":                       1,
		"slides/14-final-thoughts.md?skipAnimations=1": 3,
		"05-refinement.md#notes":                      2,
		"/talks/ai/unknown.md":                        -1,
		"":                                            -1,
	}
	for location, want := range cases {
		if got := c.CurrentIndex(location); got != want {
			t.Fatalf("CurrentIndex(%q) = %d, want %d", location, got, want)
		}
	}
}

type recordingApplier struct {
	previous, next string
	calls          int
}

func (r *recordingApplier) ApplyNavigation(previous, next string) {
	r.previous, r.next = previous, next
	r.calls++
}

func TestDeriveAndApply(t *testing.T) {
	c := testDeck(t)
	applier := &recordingApplier{}
	derived, ok := c.DeriveAndApply("/deck/01-intro.md", applier)
	if !ok {
		t.Fatalf("expected derivation")
	}
	if derived.Previous != "" || derived.Next != "02-tools.md" || derived.Current.ID != "01-intro" {
		t.Fatalf("unexpected derivation %+v", derived)
	}
	if applier.calls != 1 || applier.next != "02-tools.md" || applier.previous != "" {
		t.Fatalf("applier not updated: %+v", applier)
	}
	if _, ok := c.DeriveAndApply("/deck/nope.md", applier); ok {
		t.Fatalf("expected unknown slide to be rejected")
	}
	if applier.calls != 1 {
		t.Fatalf("applier should not be called for unknown slides")
	}
}

func TestAllListsSlidesInOrder(t *testing.T) {
	c := testDeck(t)
	var ids []string
	for _, s := range c.All() {
		ids = append(ids, s.ID)
	}
	want := []string{"01-intro", "02-tools", "01-refinement", "10-final"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("All() ids mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverOrdersMarkdownFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"02-tools.md", "01-intro.md", "notes.txt", ".hidden.md", "03-end.markdown"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("# x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	records, err := Discover(dir)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want := []SlideRecord{
		{ID: "01-intro", Path: "01-intro.md"},
		{ID: "02-tools", Path: "02-tools.md"},
		{ID: "03-end", Path: "03-end.markdown"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	if _, err := Discover(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
