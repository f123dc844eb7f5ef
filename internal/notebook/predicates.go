package notebook

import (
	"strings"

	"github.com/starford/clm/internal/diag"
	"github.com/starford/clm/internal/tags"
)

// IsDeleted reports whether the cell is dropped from every derived document.
func (c *Cell) IsDeleted() bool {
	return c.HasTag(tags.Del)
}

// IsPrivate reports whether the cell is only visible to the speaker.
func (c *Cell) IsPrivate() bool {
	return tags.PrivateTags.Intersects(c.Tags())
}

// IsPublic is the complement of IsPrivate.
func (c *Cell) IsPublic() bool {
	return !c.IsPrivate()
}

// IsAlternateSolution reports whether the cell holds an alternate solution.
// Such cells appear in completed documents but are removed, not emptied,
// from codealongs.
func (c *Cell) IsAlternateSolution() bool {
	return c.HasTag(tags.Alt)
}

// IsContentsIncludedInCodealongs reports whether the cell body survives in a
// codealong. Non-code cells always do; code cells only when tagged keep.
func (c *Cell) IsContentsIncludedInCodealongs() bool {
	return c.Type != Code || c.HasTag(tags.Keep)
}

// ShouldRetainForLanguage reports whether the cell belongs in the document
// for lang. Cells without a language belong everywhere.
func (c *Cell) ShouldRetainForLanguage(lang string) bool {
	cellLang := c.Language()
	return cellLang == "" || cellLang == lang
}

// SlideTag returns the cell's slide tag, or "" when it has none. When more
// than one slide tag is present a warning is recorded on d and the tag
// with the highest precedence (slide, subslide, notes) wins.
func (c *Cell) SlideTag(d *diag.Collector) string {
	found := tags.NewSet()
	for _, t := range c.Tags() {
		if tags.SlideTags.Has(t) {
			found[t] = struct{}{}
		}
	}
	if len(found) == 0 {
		return ""
	}
	var chosen string
	for _, t := range tags.SlidePriority() {
		if found.Has(t) {
			chosen = t
			break
		}
	}
	if len(found) > 1 {
		d.Warn("more than one slide tag",
			"tags", strings.Join(found.Sorted(), ","),
			"chosen", chosen)
	}
	return chosen
}
