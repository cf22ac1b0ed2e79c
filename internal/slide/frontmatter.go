package slide

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformedFrontMatter indicates an opening fence without a closing one.
var ErrMalformedFrontMatter = errors.New("slide: malformed frontmatter")

// Meta is the optional YAML block at the top of a slide document.
type Meta struct {
	Title string `yaml:"title,omitempty"`
	Notes string `yaml:"notes,omitempty"`
	// Previous and Next pin navigation for this slide and suppress the
	// deferred auto configuration.
	Previous string `yaml:"previous,omitempty"`
	Next     string `yaml:"next,omitempty"`
	// Script names a Go file, relative to the slide, that supplies custom
	// navigation handlers.
	Script string `yaml:"script,omitempty"`
}

// PinsNavigation reports whether the slide configures its own targets.
func (m Meta) PinsNavigation() bool {
	return m.Previous != "" || m.Next != ""
}

// ParseFrontMatter splits an optional `---` fenced YAML block from the body.
// Documents without a leading fence return zero Meta and the full content.
func ParseFrontMatter(content []byte) (Meta, []byte, error) {
	normalized := normalizeNewlines(content)
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return Meta{}, normalized, nil
	}
	rest := normalized[4:]
	var metaBytes, body []byte
	if bytes.HasPrefix(rest, []byte("---\n")) {
		body = rest[4:]
	} else {
		parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
		if len(parts) < 2 {
			return Meta{}, nil, ErrMalformedFrontMatter
		}
		metaBytes, body = parts[0], parts[1]
	}
	var meta Meta
	if err := yaml.Unmarshal(metaBytes, &meta); err != nil {
		return Meta{}, nil, fmt.Errorf("slide: parse frontmatter: %w", err)
	}
	meta.Title = strings.TrimSpace(meta.Title)
	meta.Notes = strings.TrimSpace(meta.Notes)
	meta.Previous = strings.TrimSpace(meta.Previous)
	meta.Next = strings.TrimSpace(meta.Next)
	meta.Script = strings.TrimSpace(meta.Script)
	return meta, body, nil
}

func normalizeNewlines(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}
