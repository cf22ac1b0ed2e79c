// internal/slide/document.go
//
// A slide document is a Markdown body split into blocks. Reveal markers are
// HTML comments on their own line and tag the block that follows:
//
//	<!-- reveal-on-next-2 -->   shown on the second "next" press
//	<!-- reveal-on-load -->     shown as soon as the slide loads
//
// Parsing happens once per load and yields typed (element, step) markers.

package slide

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kingrea/deckhand/internal/reveal"
)

// MaxStep bounds reveal-on-next step numbers. Larger markers are ignored
// so one typo cannot make a slide swallow "next" forever.
const MaxStep = 999

var (
	stepMarker   = regexp.MustCompile(`^<!--\s*reveal-on-next-(\d+)\s*-->$`)
	onLoadMarker = regexp.MustCompile(`^<!--\s*reveal-on-load\s*-->$`)
)

// Block is one paragraph, list, heading or fenced region of a slide.
type Block struct {
	Text   string
	Step   int
	OnLoad bool

	revealed bool
	fresh    bool
}

// Tagged reports whether the block belongs to the reveal family.
func (b *Block) Tagged() bool {
	return b.Step > 0 || b.OnLoad
}

// Visible reports whether the block should be drawn.
func (b *Block) Visible() bool {
	return !b.Tagged() || b.revealed
}

// Fresh reports whether the block is mid-transition.
func (b *Block) Fresh() bool {
	return b.fresh
}

// Reveal implements reveal.Element.
func (b *Block) Reveal(animate bool) {
	b.revealed = true
	b.fresh = animate
}

// Conceal implements reveal.Element.
func (b *Block) Conceal() {
	b.revealed = false
	b.fresh = false
}

// Revealed implements reveal.Element.
func (b *Block) Revealed() bool {
	return b.revealed
}

// Document is a loaded slide page.
type Document struct {
	// Path is the catalog path the document was loaded from.
	Path string
	// Location is the visible address, with the skip signal removed.
	Location string
	Meta     Meta
	Blocks   []*Block
	// Warnings lists markers that were ignored while parsing.
	Warnings []string

	animationsDisabled bool
}

// Parse builds a document from raw file content.
func Parse(path string, content []byte) (*Document, error) {
	meta, body, err := ParseFrontMatter(content)
	if err != nil {
		return nil, err
	}
	blocks, warnings := splitBlocks(string(body))
	return &Document{Path: path, Location: path, Meta: meta, Blocks: blocks, Warnings: warnings}, nil
}

// Title returns the frontmatter title or the first heading.
func (d *Document) Title() string {
	if d.Meta.Title != "" {
		return d.Meta.Title
	}
	for _, b := range d.Blocks {
		line := strings.TrimSpace(strings.SplitN(b.Text, "\n", 2)[0])
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return d.Path
}

// Markers returns the numbered reveal markers in document order.
func (d *Document) Markers() []reveal.Marker {
	var out []reveal.Marker
	for _, b := range d.Blocks {
		if b.Step > 0 {
			out = append(out, reveal.Marker{Element: b, Step: b.Step})
		}
	}
	return out
}

// OnLoadElements returns blocks revealed unconditionally at load.
func (d *Document) OnLoadElements() []reveal.Element {
	var out []reveal.Element
	for _, b := range d.Blocks {
		if b.OnLoad {
			out = append(out, b)
		}
	}
	return out
}

// SetAnimationsDisabled toggles the document-level flag that renders every
// block in its final state.
func (d *Document) SetAnimationsDisabled(disabled bool) {
	d.animationsDisabled = disabled
	if disabled {
		d.Settle()
	}
}

// AnimationsDisabled reports the document-level flag.
func (d *Document) AnimationsDisabled() bool {
	return d.animationsDisabled
}

// Animating reports whether any block is mid-transition.
func (d *Document) Animating() bool {
	for _, b := range d.Blocks {
		if b.fresh {
			return true
		}
	}
	return false
}

// Settle ends every running transition.
func (d *Document) Settle() {
	for _, b := range d.Blocks {
		b.fresh = false
	}
}

func splitBlocks(body string) ([]*Block, []string) {
	var (
		blocks   []*Block
		warnings []string
		current  []string
		pending  *Block
		inFence  bool
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		b := &Block{Text: strings.Join(current, "\n")}
		if pending != nil {
			b.Step, b.OnLoad = pending.Step, pending.OnLoad
			pending = nil
		}
		blocks = append(blocks, b)
		current = nil
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			current = append(current, line)
			continue
		}
		if inFence {
			current = append(current, line)
			continue
		}
		if m := stepMarker.FindStringSubmatch(trimmed); m != nil {
			flush()
			step, err := strconv.Atoi(m[1])
			if err != nil || step < 1 || step > MaxStep {
				warnings = append(warnings, fmt.Sprintf("ignored marker %q: step must be 1-%d", trimmed, MaxStep))
				pending = nil
				continue
			}
			pending = &Block{Step: step}
			continue
		}
		if onLoadMarker.MatchString(trimmed) {
			flush()
			pending = &Block{OnLoad: true}
			continue
		}
		if trimmed == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return blocks, warnings
}
