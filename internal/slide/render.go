package slide

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// DefaultStyle is the glamour style used when none is configured.
const DefaultStyle = "dark"

// Renderer turns visible blocks into terminal output.
type Renderer struct {
	style string
	width int
	term  *glamour.TermRenderer
}

// NewRenderer prepares a renderer wrapping at width columns.
func NewRenderer(style string, width int) (*Renderer, error) {
	if strings.TrimSpace(style) == "" {
		style = DefaultStyle
	}
	if width < 20 {
		width = 20
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("slide: build renderer: %w", err)
	}
	return &Renderer{style: style, width: width, term: term}, nil
}

// Width returns the wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Render draws the document. Hidden blocks are skipped; blocks that are
// mid-transition get an accent rule so the reveal is noticeable.
func (r *Renderer) Render(doc *Document) string {
	if doc == nil {
		return ""
	}
	accent := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("#5B8DEF")).
		PaddingLeft(1)
	var parts []string
	for _, b := range doc.Blocks {
		if !b.Visible() {
			continue
		}
		out, err := r.term.Render(b.Text)
		if err != nil {
			out = b.Text
		}
		out = strings.Trim(out, "\n")
		if b.Fresh() && !doc.AnimationsDisabled() {
			out = accent.Render(out)
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, "\n\n")
}
