package slide

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Loader reads slide documents from a directory.
type Loader struct {
	dir string
}

// NewLoader returns a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Dir returns the slide directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Resolve maps a catalog path or location to a file path.
func (l *Loader) Resolve(path string) string {
	trimmed := strings.TrimSpace(path)
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimPrefix(trimmed, "../")
	trimmed = strings.TrimPrefix(trimmed, "/")
	return filepath.Join(l.dir, filepath.FromSlash(trimmed))
}

// Load reads and parses the slide at path.
func (l *Loader) Load(path string) (*Document, error) {
	file := l.Resolve(path)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("slide: read %s: %w", file, err)
	}
	doc, err := Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("slide: %s: %w", file, err)
	}
	return doc, nil
}

// ScriptPath resolves the document's script relative to its own file.
func (l *Loader) ScriptPath(doc *Document) string {
	if doc == nil || doc.Meta.Script == "" {
		return ""
	}
	if filepath.IsAbs(doc.Meta.Script) {
		return doc.Meta.Script
	}
	return filepath.Join(filepath.Dir(l.Resolve(doc.Path)), filepath.FromSlash(doc.Meta.Script))
}
