package notebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/clm/internal/diag"
)

func langCell(kind, lang string, tags ...string) *Cell {
	c := NewCell(kind, "body", tags...)
	c.SetLanguage(lang)
	return c
}

func TestTagsRoundTrip(t *testing.T) {
	c := NewCell(Markdown, "")
	assert.Empty(t, c.Tags())

	c.SetTags([]string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, c.Tags())

	c.SetTags([]string{})
	assert.Empty(t, c.Tags())
	_, present := c.Metadata["tags"]
	assert.False(t, present, "empty tag list must remove the tags key")
}

func TestTagsFromDecodedJSON(t *testing.T) {
	c := &Cell{Type: Code, Metadata: map[string]any{"tags": []any{"keep", 3, "alt"}}}
	assert.Equal(t, []string{"keep", "alt"}, c.Tags())
	assert.True(t, c.HasTag("alt"))
	assert.False(t, c.HasTag("del"))
}

func TestMalformedTags(t *testing.T) {
	c := &Cell{Type: Code, Metadata: map[string]any{"tags": `[del, "keep"]`}}
	assert.Equal(t, []string{"del", "keep"}, c.Tags())
	assert.True(t, c.IsDeleted())
	assert.False(t, c.WellFormedTags())

	cp := c.Clone()
	assert.Equal(t, c.Metadata["tags"], cp.Metadata["tags"], "clone keeps the raw value")

	mixed := &Cell{Type: Code, Metadata: map[string]any{"tags": []any{"keep", 3}}}
	assert.False(t, mixed.WellFormedTags())
	assert.True(t, NewCell(Code, "", "keep").WellFormedTags())
	assert.True(t, NewCell(Code, "").WellFormedTags())

	d := diag.NewCollector()
	c.ValidateTags(d)
	mixed.ValidateTags(d)
	items := d.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "malformed tags attribute", items[0].Message)
	assert.Equal(t, `[del, "keep"]`, items[0].Context["value"])
	assert.Equal(t, "malformed tags attribute", items[1].Message)
}

func TestSetTagsCopiesInput(t *testing.T) {
	in := []string{"slide"}
	c := NewCell(Markdown, "", in...)
	in[0] = "changed"
	assert.Equal(t, []string{"slide"}, c.Tags())
}

func TestNilMetadata(t *testing.T) {
	c := &Cell{Type: Code}
	assert.Empty(t, c.Tags())
	assert.Equal(t, "", c.Language())
	c.SetTags(nil)
	c.SetTags([]string{"keep"})
	assert.True(t, c.HasTag("keep"))
}

func TestLanguage(t *testing.T) {
	c := langCell(Markdown, "en")
	assert.Equal(t, "en", c.Language())
	c.SetLanguage("")
	assert.Equal(t, "", c.Language())
}

func TestClone(t *testing.T) {
	c := langCell(Code, "de", "keep")
	cp := c.Clone()
	cp.SetTags([]string{"del"})
	cp.SetLanguage("en")
	cp.Source = "changed"

	assert.Equal(t, []string{"keep"}, c.Tags())
	assert.Equal(t, "de", c.Language())
	assert.Equal(t, "body", c.Source)
}

func TestPublicPrivateComplement(t *testing.T) {
	cases := [][]string{nil, {"notes"}, {"private"}, {"slide"}, {"keep", "private"}, {"subslide", "alt"}}
	for _, tc := range cases {
		for _, kind := range []string{Markdown, Code} {
			c := NewCell(kind, "", tc...)
			assert.Equal(t, !c.IsPrivate(), c.IsPublic(), "tags %v", tc)
		}
	}
	assert.True(t, NewCell(Markdown, "", "notes").IsPrivate())
	assert.True(t, NewCell(Code, "", "private").IsPrivate())
	assert.True(t, NewCell(Markdown, "").IsPublic())
}

func TestIsDeletedAndAlternate(t *testing.T) {
	assert.True(t, NewCell(Code, "", "del").IsDeleted())
	assert.True(t, NewCell(Code, "", "del", "keep").IsDeleted())
	assert.False(t, NewCell(Markdown, "").IsDeleted())
	assert.True(t, NewCell(Code, "", "alt").IsAlternateSolution())
	assert.False(t, NewCell(Code, "").IsAlternateSolution())
}

func TestCodealongRetention(t *testing.T) {
	assert.True(t, NewCell(Markdown, "").IsContentsIncludedInCodealongs())
	assert.True(t, NewCell(Code, "", "keep").IsContentsIncludedInCodealongs())
	assert.False(t, NewCell(Code, "").IsContentsIncludedInCodealongs())
}

func TestShouldRetainForLanguage(t *testing.T) {
	for _, lang := range []string{"en", "de", "fr", ""} {
		assert.True(t, langCell(Markdown, "").ShouldRetainForLanguage(lang))
	}
	en := langCell(Markdown, "en")
	assert.True(t, en.ShouldRetainForLanguage("en"))
	assert.False(t, en.ShouldRetainForLanguage("de"))
	assert.False(t, en.ShouldRetainForLanguage("EN"))
}

func TestSlideTag(t *testing.T) {
	d := diag.NewCollector()
	assert.Equal(t, "slide", NewCell(Markdown, "", "slide").SlideTag(d))
	assert.Equal(t, "subslide", NewCell(Markdown, "", "subslide", "keep").SlideTag(d))
	assert.Equal(t, "", NewCell(Markdown, "").SlideTag(d))
	assert.Equal(t, 0, d.Len())
}

func TestSlideTagAmbiguous(t *testing.T) {
	d := diag.NewCollector()
	got := NewCell(Markdown, "", "notes", "subslide").SlideTag(d)
	assert.Equal(t, "subslide", got)

	got = NewCell(Markdown, "", "notes", "slide", "subslide").SlideTag(d)
	assert.Equal(t, "slide", got)

	items := d.Items()
	require.Len(t, items, 2)
	assert.Equal(t, diag.SeverityWarning, items[0].Severity)
	assert.Equal(t, "notes,subslide", items[0].Context["tags"])
	assert.Equal(t, "subslide", items[0].Context["chosen"])
}

func TestValidateTags(t *testing.T) {
	d := diag.NewCollector()
	NewCell(Code, "", "keep", "bogus").ValidateTags(d)
	NewCell(Markdown, "", "notes", "keep").ValidateTags(d)
	NewCell(Markdown, "", "slide", "private").ValidateTags(d)
	(&Cell{Type: "raw", Metadata: map[string]any{"tags": []string{"alt"}}}).ValidateTags(d)

	items := d.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "unknown tag for code cell", items[0].Message)
	assert.Equal(t, "bogus", items[0].Context["tag"])
	assert.Equal(t, "unknown tag for markdown cell", items[1].Message)
	assert.Equal(t, "keep", items[1].Context["tag"])
	assert.Equal(t, "unknown tag for raw cell", items[2].Message)
}

func TestValidateTagsNilCollector(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCell(Code, "", "bogus").ValidateTags(nil)
		NewCell(Markdown, "", "slide", "notes").SlideTag(nil)
	})
}

func TestNotebookValidate(t *testing.T) {
	nb := &Notebook{Cells: []*Cell{
		NewCell(Markdown, "", "slide"),
		NewCell(Code, "", "bogus"),
		NewCell(Markdown, "", "slide", "notes"),
	}}
	d := diag.NewCollector()
	nb.Validate(d)

	items := d.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].Context["cell"])
	assert.Equal(t, "bogus", items[0].Context["tag"])
	assert.Equal(t, "2", items[1].Context["cell"])
	assert.Equal(t, "more than one slide tag", items[1].Message)
}
