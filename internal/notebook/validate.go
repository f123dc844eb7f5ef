package notebook

import (
	"fmt"
	"strconv"

	"github.com/starford/clm/internal/diag"
	"github.com/starford/clm/internal/tags"
)

// WarnOnInvalidTags records a warning on d for every entry of list that is
// not in allowed. kind names the cell kind in the message.
func WarnOnInvalidTags(list []string, allowed tags.Set, kind string, d *diag.Collector) {
	for _, t := range list {
		if !allowed.Has(t) {
			d.Warn("unknown tag for "+kind+" cell", "tag", t)
		}
	}
}

// WarnOnInvalidCodeTags checks list against the tags allowed on code cells.
func WarnOnInvalidCodeTags(list []string, d *diag.Collector) {
	WarnOnInvalidTags(list, tags.CodeTags, Code, d)
}

// WarnOnInvalidMarkdownTags checks list against the tags allowed on
// markdown cells.
func WarnOnInvalidMarkdownTags(list []string, d *diag.Collector) {
	WarnOnInvalidTags(list, tags.MarkdownTags, Markdown, d)
}

// ValidateTags checks the cell's tags against the vocabulary for its kind.
// Cells of other kinds are checked against the generic tags. A tags value
// that is not a list of strings is reported as malformed.
func (c *Cell) ValidateTags(d *diag.Collector) {
	if !c.WellFormedTags() {
		d.Warn("malformed tags attribute", "value", fmt.Sprint(c.Metadata[metaTags]))
	}
	switch c.Type {
	case Code:
		WarnOnInvalidCodeTags(c.Tags(), d)
	case Markdown:
		WarnOnInvalidMarkdownTags(c.Tags(), d)
	default:
		WarnOnInvalidTags(c.Tags(), tags.GenericTags, c.Type, d)
	}
}

// Validate checks the tags of every cell of nb, including conflicting
// slide tags. Records carry the cell index under the "cell" key.
func (nb *Notebook) Validate(d *diag.Collector) {
	for i, c := range nb.Cells {
		cd := d.With("cell", strconv.Itoa(i))
		c.ValidateTags(cd)
		c.SlideTag(cd)
	}
}
