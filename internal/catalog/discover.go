package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover lists the Markdown files in dir in lexical order, for decks that
// rely on numbered filenames ("01-intro.md", "02-tools.md") instead of an
// explicit slide list.
func Discover(dir string) ([]SlideRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".md", ".markdown":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	records := make([]SlideRecord, len(names))
	for i, name := range names {
		records[i] = SlideRecord{ID: strings.TrimSuffix(name, filepath.Ext(name)), Path: name}
	}
	return records, nil
}
