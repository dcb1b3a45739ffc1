// Package ignore implements Hoard's per-pile glob ignore filter. A path is
// kept iff every glob pattern fails to match its pile-relative form.
// Grounded on mutagen's pkg/synchronization/core/ignore.go, which also
// matches relative paths against github.com/bmatcuk/doublestar patterns,
// but simplified to flat (non-negated, non-gitignore) match semantics.
package ignore

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter matches a pile-relative path against a sorted, deduplicated list
// of glob patterns.
type Filter struct {
	patterns []string
}

// New validates patterns and constructs a Filter. Patterns are sorted
// and deduplicated, so a Filter always holds a sorted-unique list of glob
// patterns, whatever the order and repetition of its input.
func New(patterns []string) (*Filter, error) {
	unique := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		if _, err := doublestar.Match(p, "sentinel"); err != nil {
			return nil, fmt.Errorf("ignore: invalid pattern %q: %w", p, err)
		}
		unique[p] = struct{}{}
	}
	sorted := make([]string, 0, len(unique))
	for p := range unique {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)
	return &Filter{patterns: sorted}, nil
}

// Patterns returns the sorted, deduplicated pattern list.
func (f *Filter) Patterns() []string {
	return f.patterns
}

// Keep reports whether relativePath should be kept (i.e. every pattern
// fails to match it). The empty relative path (pile-is-a-file case) is
// always kept, since no glob can sensibly describe "the file itself".
func (f *Filter) Keep(relativePath string) bool {
	if relativePath == "" {
		return true
	}
	for _, pattern := range f.patterns {
		if matched, _ := doublestar.Match(pattern, relativePath); matched {
			return false
		}
	}
	return true
}

// Union combines two ignore pattern lists (from different config layers)
// into one sorted, deduplicated Filter.
func Union(filters ...*Filter) (*Filter, error) {
	var all []string
	for _, f := range filters {
		if f == nil {
			continue
		}
		all = append(all, f.patterns...)
	}
	return New(all)
}
