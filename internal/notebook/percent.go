package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/clm/internal/tags"
)

// Notebook is an ordered sequence of cells plus the raw text it was read
// from.
type Notebook struct {
	Path     string  `json:"path"`
	Format   string  `json:"format"`
	Preamble string  `json:"-"`
	Cells    []*Cell `json:"cells"`
	Text     string  `json:"-"`
}

var commentPrefixes = map[string]string{
	"py":  "#",
	"ru":  "#",
	"cpp": "//",
}

var attrKeyRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)=`)

// Supported reports whether files with extension ext (without dot) can be
// loaded.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	_, ok := commentPrefixes[ext]
	return ok || ext == "md"
}

// Load parses data according to the extension of path. Script files use
// the percent format; Markdown files become a single markdown cell.
func Load(path string, data []byte) (*Notebook, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	nb := &Notebook{Path: path, Format: ext, Text: string(data)}
	if ext == "md" {
		nb.Cells = []*Cell{NewCell(Markdown, strings.TrimRight(string(data), "\n"))}
		return nb, nil
	}
	prefix, ok := commentPrefixes[ext]
	if !ok {
		return nil, fmt.Errorf("notebook: unsupported format %q", ext)
	}
	nb.Preamble, nb.Cells = parsePercent(string(data), prefix)
	return nb, nil
}

func parsePercent(text, prefix string) (string, []*Cell) {
	var (
		preamble []string
		cells    []*Cell
		cur      *Cell
		body     []string
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Source = joinBody(body, cur.Type == Markdown, prefix)
		cells = append(cells, cur)
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if rest, ok := markerRest(line, prefix); ok {
			flush()
			cur = parseMarker(rest)
			body = nil
			continue
		}
		if cur == nil {
			preamble = append(preamble, line)
			continue
		}
		body = append(body, line)
	}
	flush()
	return strings.Trim(strings.Join(preamble, "\n"), "\n"), cells
}

func parseMarker(rest string) *Cell {
	rest = strings.TrimSpace(rest)
	c := &Cell{Type: Code, Metadata: map[string]any{}}
	for _, m := range []string{"[markdown]", "[md]"} {
		if strings.HasPrefix(rest, m) {
			c.Type = Markdown
			rest = strings.TrimSpace(rest[len(m):])
			break
		}
	}
	parseAttrs(rest, c.Metadata)
	// Malformed tag values are kept as written so validation can report them.
	if list, ok := tagList(c.Metadata[metaTags]); ok {
		c.SetTags(tags.Normalize(list))
	}
	return c
}

// markerRest reports whether line opens a cell and returns the text after
// the %% marker. Both "# %%" and "#%%" open a cell; "# %%%" does not.
func markerRest(line, prefix string) (string, bool) {
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	rest := strings.TrimLeft(line[len(prefix):], " \t")
	if !strings.HasPrefix(rest, "%%") {
		return "", false
	}
	rest = rest[2:]
	if rest != "" && !isBlankByte(rest[0]) {
		return "", false
	}
	return rest, true
}

// parseAttrs reads key=value pairs into md. Values are JSON; anything that
// does not decode is stored as the raw text up to the next blank.
func parseAttrs(s string, md map[string]any) {
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return
		}
		m := attrKeyRe.FindStringSubmatch(s)
		if m == nil {
			s = s[rawLen(s):]
			continue
		}
		s = s[len(m[0]):]
		v, n := attrValue(s)
		md[m[1]] = v
		s = s[n:]
	}
}

func attrValue(s string) (any, int) {
	dec := json.NewDecoder(strings.NewReader(s))
	var v any
	if err := dec.Decode(&v); err == nil {
		n := int(dec.InputOffset())
		if n == len(s) || isBlankByte(s[n]) {
			return v, n
		}
	}
	n := rawLen(s)
	return s[:n], n
}

// rawLen returns the length of the unparsed token at the start of s. A
// token opened by a bracket runs to its closing bracket.
func rawLen(s string) int {
	if s != "" && (s[0] == '[' || s[0] == '{') {
		depth, quoted := 0, false
		for i := 0; i < len(s); i++ {
			switch ch := s[i]; {
			case quoted && ch == '\\':
				i++
			case ch == '"':
				quoted = !quoted
			case quoted:
			case ch == '[' || ch == '{':
				depth++
			case ch == ']' || ch == '}':
				depth--
				if depth == 0 {
					return i + 1
				}
			}
		}
	}
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return i
	}
	return len(s)
}

func isBlankByte(b byte) bool {
	return b == ' ' || b == '\t'
}

func joinBody(lines []string, markdown bool, prefix string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	out := make([]string, 0, end-start)
	for _, l := range lines[start:end] {
		if markdown {
			switch {
			case l == prefix:
				l = ""
			case strings.HasPrefix(l, prefix+" "):
				l = l[len(prefix)+1:]
			}
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

// Format renders nb back into its file format.
func Format(nb *Notebook) ([]byte, error) {
	if nb.Format == "md" {
		parts := make([]string, 0, len(nb.Cells))
		for _, c := range nb.Cells {
			parts = append(parts, c.Source)
		}
		return []byte(strings.Join(parts, "\n\n") + "\n"), nil
	}
	prefix, ok := commentPrefixes[nb.Format]
	if !ok {
		return nil, fmt.Errorf("notebook: unsupported format %q", nb.Format)
	}
	var b strings.Builder
	if nb.Preamble != "" {
		b.WriteString(nb.Preamble)
		b.WriteString("\n\n")
	}
	for i, c := range nb.Cells {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(prefix + " %%")
		if c.Type == Markdown {
			b.WriteString(" [markdown]")
		}
		attrs, err := formatAttrs(c.Metadata)
		if err != nil {
			return nil, err
		}
		if attrs != "" {
			b.WriteString(" " + attrs)
		}
		b.WriteString("\n")
		if c.Source == "" {
			continue
		}
		for _, l := range strings.Split(c.Source, "\n") {
			if c.Type == Markdown {
				if l == "" {
					l = prefix
				} else {
					l = prefix + " " + l
				}
			}
			b.WriteString(l + "\n")
		}
	}
	return []byte(b.String()), nil
}

// formatAttrs writes tags and lang first, then remaining keys sorted.
func formatAttrs(md map[string]any) (string, error) {
	keys := make([]string, 0, len(md))
	for k := range md {
		if k != metaTags && k != metaLang {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range []string{metaLang, metaTags} {
		if _, ok := md[k]; ok {
			keys = append([]string{k}, keys...)
		}
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(md[k]); err != nil {
			return "", fmt.Errorf("notebook: encode metadata %q: %w", k, err)
		}
		parts = append(parts, k+"="+strings.TrimSpace(buf.String()))
	}
	return strings.Join(parts, " "), nil
}
