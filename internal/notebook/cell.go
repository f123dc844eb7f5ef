// Package notebook models course notebooks as ordered cells and implements
// the tag rules that decide how each cell is treated in derived documents.
package notebook

import "strings"

// Cell kinds.
const (
	Markdown = "markdown"
	Code     = "code"
)

// Metadata keys interpreted by the engine.
const (
	metaTags = "tags"
	metaLang = "lang"
)

// Cell is a single unit of notebook content.
type Cell struct {
	Type     string         `json:"cell_type"`
	Metadata map[string]any `json:"metadata"`
	Source   string         `json:"source"`
}

// NewCell returns a cell of the given kind with the given tags set.
func NewCell(kind, source string, tags ...string) *Cell {
	c := &Cell{Type: kind, Metadata: map[string]any{}, Source: source}
	c.SetTags(tags)
	return c
}

// Kind returns the cell type.
func (c *Cell) Kind() string {
	return c.Type
}

// Tags returns the cell's tags in stored order. Absent tags yield an empty
// slice. A malformed value such as the text "[del]" is read leniently, so a
// typo in the tag syntax does not let a deleted cell through.
func (c *Cell) Tags() []string {
	list, _ := tagList(c.Metadata[metaTags])
	if list == nil {
		return []string{}
	}
	return list
}

// WellFormedTags reports whether the tags value, if present, is a list of
// strings.
func (c *Cell) WellFormedTags() bool {
	raw, present := c.Metadata[metaTags]
	if !present {
		return true
	}
	_, ok := tagList(raw)
	return ok
}

// tagList interprets a stored tags value. ok is false when raw is not a list
// of strings; the returned list then holds whatever could be recovered.
func tagList(raw any) (list []string, ok bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, isStr := item.(string); isStr {
				out = append(out, s)
			}
		}
		return out, len(out) == len(v)
	case string:
		return lenientTags(v), false
	}
	return nil, false
}

// lenientTags splits text like `[del, "notes"]` into its words.
func lenientTags(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.Trim(strings.TrimSpace(f), `"'`)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// SetTags replaces the tag list. An empty list removes the tags key entirely.
func (c *Cell) SetTags(tags []string) {
	if len(tags) == 0 {
		delete(c.Metadata, metaTags)
		return
	}
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	stored := make([]string, len(tags))
	copy(stored, tags)
	c.Metadata[metaTags] = stored
}

// HasTag reports whether tag is among the cell's tags.
func (c *Cell) HasTag(tag string) bool {
	for _, t := range c.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

// Language returns the cell's language code, or "" when it applies to all
// languages.
func (c *Cell) Language() string {
	if s, ok := c.Metadata[metaLang].(string); ok {
		return s
	}
	return ""
}

// SetLanguage sets the language code; "" removes it.
func (c *Cell) SetLanguage(lang string) {
	if lang == "" {
		delete(c.Metadata, metaLang)
		return
	}
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	c.Metadata[metaLang] = lang
}

// Clone returns a copy that shares no mutable state with c.
func (c *Cell) Clone() *Cell {
	md := make(map[string]any, len(c.Metadata))
	for k, v := range c.Metadata {
		md[k] = v
	}
	out := &Cell{Type: c.Type, Metadata: md, Source: c.Source}
	switch raw := c.Metadata[metaTags].(type) {
	case []string:
		out.SetTags(raw)
	case []any:
		if list, ok := tagList(raw); ok {
			out.SetTags(list)
		} else {
			md[metaTags] = append([]any(nil), raw...)
		}
	}
	return out
}
