// internal/catalog/catalog.go
//
// The catalog is the ordered slide index for a deck. Array position is deck
// order: index 0 is the first slide, the last index is the final slide.
// Every lookup reports a miss with a sentinel (false or -1) instead of an
// error so callers can degrade quietly.

package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyCatalog indicates a deck without any slides.
	ErrEmptyCatalog = errors.New("catalog: no slides")
	// ErrDuplicateID indicates two records share an identifier.
	ErrDuplicateID = errors.New("catalog: duplicate slide id")
	// ErrDuplicatePath indicates two records share a path.
	ErrDuplicatePath = errors.New("catalog: duplicate slide path")
)

// PathStyle controls how previous/next paths are rendered for a deployment.
type PathStyle string

const (
	// PathStyleBare returns paths exactly as recorded ("02-tools.md").
	PathStyleBare PathStyle = "bare"
	// PathStyleParentRelative prefixes paths with "../" for decks whose
	// slides live one directory below the shared scripts.
	PathStyleParentRelative PathStyle = "parent-relative"
)

// SlideRecord is one entry of the deck. Records are immutable once loaded.
type SlideRecord struct {
	ID    string `yaml:"id" json:"id"`
	Path  string `yaml:"path" json:"path"`
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
}

// IndexedSlide pairs a record with its deck position.
type IndexedSlide struct {
	Index int `json:"index"`
	SlideRecord
}

// Derived is the result of deriving navigation for the current location.
type Derived struct {
	Previous string
	Next     string
	Current  SlideRecord
	Index    int
}

// Applier receives computed previous/next targets. The navigation controller
// implements it; an empty string means there is no slide in that direction.
type Applier interface {
	ApplyNavigation(previous, next string)
}

// Option customizes catalog construction.
type Option func(*Catalog)

// WithPathStyle fixes how adjacent paths are rendered.
func WithPathStyle(style PathStyle) Option {
	return func(c *Catalog) {
		if style == PathStyleParentRelative {
			c.style = PathStyleParentRelative
		}
	}
}

// Catalog is the ordered, read-only slide index.
type Catalog struct {
	slides []SlideRecord
	style  PathStyle
}

// New validates the records and builds a catalog. Records are copied, so
// later changes to the input slice do not leak into the deck.
func New(records []SlideRecord, opts ...Option) (*Catalog, error) {
	if len(records) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{style: PathStyleBare}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	ids := make(map[string]int, len(records))
	paths := make(map[string]int, len(records))
	c.slides = make([]SlideRecord, 0, len(records))
	for i, rec := range records {
		rec.ID = strings.TrimSpace(rec.ID)
		rec.Path = NormalizePath(rec.Path)
		rec.Title = strings.TrimSpace(rec.Title)
		if rec.ID == "" {
			return nil, fmt.Errorf("catalog: slides[%d]: id is required", i)
		}
		if rec.Path == "" {
			return nil, fmt.Errorf("catalog: slides[%d]: path is required", i)
		}
		if prev, ok := ids[rec.ID]; ok {
			return nil, fmt.Errorf("%w: %q at %d and %d", ErrDuplicateID, rec.ID, prev, i)
		}
		if prev, ok := paths[rec.Path]; ok {
			return nil, fmt.Errorf("%w: %q at %d and %d", ErrDuplicatePath, rec.Path, prev, i)
		}
		ids[rec.ID] = i
		paths[rec.Path] = i
		c.slides = append(c.slides, rec)
	}
	return c, nil
}

// Len returns the number of slides in the deck.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.slides)
}

// PathStyle reports the configured rendering style.
func (c *Catalog) PathStyle() PathStyle {
	return c.style
}

// ByIndex returns the record at a 0-based index.
func (c *Catalog) ByIndex(index int) (SlideRecord, bool) {
	if c == nil || index < 0 || index >= len(c.slides) {
		return SlideRecord{}, false
	}
	return c.slides[index], true
}

// LookupByID finds a slide by identifier.
func (c *Catalog) LookupByID(id string) (SlideRecord, bool) {
	return c.ByIndex(c.IndexByID(id))
}

// IndexByID returns the deck position of id, or -1.
func (c *Catalog) IndexByID(id string) int {
	if c == nil {
		return -1
	}
	id = strings.TrimSpace(id)
	for i, s := range c.slides {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// LookupByPath finds a slide by path after normalization.
func (c *Catalog) LookupByPath(path string) (SlideRecord, bool) {
	return c.ByIndex(c.IndexByPath(path))
}

// IndexByPath returns the deck position of path, or -1.
func (c *Catalog) IndexByPath(path string) int {
	if c == nil {
		return -1
	}
	normalized := NormalizePath(path)
	for i, s := range c.slides {
		if s.Path == normalized {
			return i
		}
	}
	return -1
}

// CurrentIndex resolves the active slide from a location such as
// "/deck/slides/02-tools.md?x=1". The trailing filename is matched as a
// suffix of each record path; the first match wins. Locations that match
// nothing return -1 so unregistered slides still render.
func (c *Catalog) CurrentIndex(location string) int {
	if c == nil {
		return -1
	}
	filename := Filename(location)
	if filename == "" {
		return -1
	}
	for i, s := range c.slides {
		if strings.HasSuffix(s.Path, filename) {
			return i
		}
	}
	return -1
}

// PreviousPath returns the path before index, or false at the deck start
// and for unknown slides.
func (c *Catalog) PreviousPath(index int) (string, bool) {
	if c == nil || index <= 0 || index >= len(c.slides) {
		return "", false
	}
	return c.render(c.slides[index-1].Path), true
}

// NextPath returns the path after index, or false at the deck end and for
// unknown slides.
func (c *Catalog) NextPath(index int) (string, bool) {
	if c == nil || index < 0 || index >= len(c.slides)-1 {
		return "", false
	}
	return c.render(c.slides[index+1].Path), true
}

// PreviousPathFor resolves the index from location first.
func (c *Catalog) PreviousPathFor(location string) (string, bool) {
	return c.PreviousPath(c.CurrentIndex(location))
}

// NextPathFor resolves the index from location first.
func (c *Catalog) NextPathFor(location string) (string, bool) {
	return c.NextPath(c.CurrentIndex(location))
}

// DeriveAndApply computes both adjacent paths for location and pushes them
// into applier. It returns false, without touching applier, when the current
// slide cannot be identified.
func (c *Catalog) DeriveAndApply(location string, applier Applier) (Derived, bool) {
	index := c.CurrentIndex(location)
	if index < 0 {
		return Derived{}, false
	}
	prev, _ := c.PreviousPath(index)
	next, _ := c.NextPath(index)
	if applier != nil {
		applier.ApplyNavigation(prev, next)
	}
	return Derived{Previous: prev, Next: next, Current: c.slides[index], Index: index}, true
}

// All lists every slide with its position.
func (c *Catalog) All() []IndexedSlide {
	if c == nil {
		return nil
	}
	out := make([]IndexedSlide, len(c.slides))
	for i, s := range c.slides {
		out[i] = IndexedSlide{Index: i, SlideRecord: s}
	}
	return out
}

func (c *Catalog) render(path string) string {
	if c.style == PathStyleParentRelative {
		return "../" + path
	}
	return path
}

// NormalizePath strips a single leading "../" and then a single leading "/".
func NormalizePath(path string) string {
	trimmed := strings.TrimSpace(path)
	trimmed = strings.TrimPrefix(trimmed, "../")
	return strings.TrimPrefix(trimmed, "/")
}

// Filename returns the segment after the last "/" with any query string or
// fragment removed.
func Filename(location string) string {
	name := strings.TrimSpace(location)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
