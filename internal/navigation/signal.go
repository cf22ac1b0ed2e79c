package navigation

import (
	"net/url"
	"strings"
)

// SkipParam is the query parameter that tells the destination page to
// render without entrance animation.
const SkipParam = "skipAnimations"

// splitLocation cuts location into path, raw query and fragment. The path is
// returned exactly as given; slide filenames may hold spaces or non-ASCII
// text that must reach the loader unescaped.
func splitLocation(location string) (path, query, fragment string) {
	path = location
	if i := strings.Index(path, "#"); i >= 0 {
		path, fragment = path[:i], path[i:]
	}
	if i := strings.Index(path, "?"); i >= 0 {
		path, query = path[:i], path[i+1:]
	}
	return path, query, fragment
}

// isSkipPair reports whether one raw "key=value" query pair is the skip
// parameter, and whether its value is true.
func isSkipPair(pair string) (match, skip bool) {
	key, value, _ := strings.Cut(pair, "=")
	if k, err := url.QueryUnescape(key); err == nil {
		key = k
	}
	if key != SkipParam {
		return false, false
	}
	if v, err := url.QueryUnescape(value); err == nil {
		value = v
	}
	return true, strings.EqualFold(value, "true")
}

func joinLocation(path string, pairs []string, fragment string) string {
	if len(pairs) == 0 {
		return path + fragment
	}
	return path + "?" + strings.Join(pairs, "&") + fragment
}

// WithSkipSignal adds skipAnimations=true to dest. Existing query
// parameters keep their order and encoding; an earlier skip value is
// replaced.
func WithSkipSignal(dest string) string {
	path, query, fragment := splitLocation(dest)
	var pairs []string
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		if match, _ := isSkipPair(pair); match {
			continue
		}
		pairs = append(pairs, pair)
	}
	pairs = append(pairs, SkipParam+"=true")
	return joinLocation(path, pairs, fragment)
}

// HasSkipSignal reports whether location carries skipAnimations=true.
func HasSkipSignal(location string) bool {
	_, skip := ConsumeSkipSignal(location)
	return skip
}

// ConsumeSkipSignal strips the skip parameter from location and reports
// whether it asked for animations to be skipped. The cleaned location is
// what the page shows, so the signal never lingers in the visible address.
func ConsumeSkipSignal(location string) (string, bool) {
	path, query, fragment := splitLocation(location)
	if query == "" {
		return location, false
	}
	var (
		pairs []string
		found bool
		skip  bool
	)
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		if match, value := isSkipPair(pair); match {
			found = true
			skip = skip || value
			continue
		}
		pairs = append(pairs, pair)
	}
	if !found {
		return location, false
	}
	return joinLocation(path, pairs, fragment), skip
}
