package reconcile

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joe/nexus-library/internal/catalog"
)

// TitleFilter selects items whose title matches a glob, ignoring case.
type TitleFilter struct {
	pattern string
	isEmpty bool
}

// NewTitleFilter creates a TitleFilter. An empty pattern matches every item.
func NewTitleFilter(pattern string) *TitleFilter {
	return &TitleFilter{
		pattern: strings.ToLower(pattern),
		isEmpty: pattern == "",
	}
}

// Valid reports whether the pattern is a well-formed glob.
func (f *TitleFilter) Valid() bool {
	return f.isEmpty || doublestar.ValidatePattern(f.pattern)
}

// Matches reports whether item's title matches. Invalid patterns match
// nothing.
func (f *TitleFilter) Matches(item *catalog.GameItem) bool {
	if f.isEmpty {
		return true
	}

	matched, err := doublestar.Match(f.pattern, strings.ToLower(item.Title))
	if err != nil {
		return false
	}

	return matched
}

// Filter returns the items that match, in order.
func (f *TitleFilter) Filter(items []*catalog.GameItem) []*catalog.GameItem {
	out := make([]*catalog.GameItem, 0, len(items))

	for _, item := range items {
		if f.Matches(item) {
			out = append(out, item)
		}
	}

	return out
}
