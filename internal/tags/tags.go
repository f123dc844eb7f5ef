// Package tags defines the controlled vocabulary of cell tags.
package tags

import (
	"sort"
	"strings"
)

// Recognized cell tags.
const (
	Slide    = "slide"
	Subslide = "subslide"
	Notes    = "notes"
	Private  = "private"
	Keep     = "keep"
	Alt      = "alt"
	Del      = "del"
)

// Set is an unordered collection of tags.
type Set map[string]struct{}

// NewSet builds a Set from the given tags.
func NewSet(tags ...string) Set {
	s := make(Set, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Union returns a new Set holding the tags of s and every other set.
func (s Set) Union(others ...Set) Set {
	out := make(Set, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	for _, o := range others {
		for t := range o {
			out[t] = struct{}{}
		}
	}
	return out
}

// Has reports whether tag is in s.
func (s Set) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Intersects reports whether any of tags is in s.
func (s Set) Intersects(tags []string) bool {
	for _, t := range tags {
		if s.Has(t) {
			return true
		}
	}
	return false
}

// Sorted returns the members of s in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

var (
	// SlideTags control the role of a cell in a slideshow.
	SlideTags = NewSet(Slide, Subslide, Notes)
	// PrivateTags hide a cell from public documents.
	PrivateTags = NewSet(Notes, Private)
	// GenericTags may appear on any kind of cell.
	GenericTags = SlideTags.Union(PrivateTags)
	// CodeTags may appear on code cells.
	CodeTags = NewSet(Keep, Alt, Del).Union(GenericTags)
	// MarkdownTags may appear on markdown cells.
	MarkdownTags = NewSet(Notes).Union(GenericTags)
)

// slidePriority orders slide tags when a cell carries more than one.
var slidePriority = []string{Slide, Subslide, Notes}

// SlidePriority returns the slide tags from highest to lowest precedence.
func SlidePriority() []string {
	out := make([]string, len(slidePriority))
	copy(out, slidePriority)
	return out
}

// Normalize trims whitespace, drops empty entries and removes duplicates
// while preserving the first occurrence order.
func Normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
