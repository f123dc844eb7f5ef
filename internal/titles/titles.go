// Package titles derives bilingual document titles and safe file names
// from notebook source text.
package titles

import (
	"path"
	"regexp"
	"strings"
)

// DefaultTitle is used when a document carries no header directive.
const DefaultTitle = "unnamed"

var headerRe = regexp.MustCompile(`{{\s*header\s*\(\s*["'](.*)["']\s*,\s*["'](.*)["']\s*\)\s*}}`)

var fileNameReplacer = strings.NewReplacer(
	"{", "(", "}", ")", "[", "(", "]", ")",
	"/", "_", `\`, "_", "$", "_", "!", "_", "'", "_", `"`, "_",
	"#", "_", "%", "_", "&", "_", "<", "_", ">", "_", "*", "_",
	"?", "_", "+", "_", "`", "_", "|", "_",
	":", "",
)

// Titles holds the German and English title of a document.
type Titles struct {
	DE string `json:"de"`
	EN string `json:"en"`
}

// For returns the title for lang. Languages other than "de" get the
// English title.
func (t Titles) For(lang string) string {
	if lang == "de" {
		return t.DE
	}
	return t.EN
}

// Find scans text for the first {{ header("<de>", "<en>") }} directive and
// returns both titles passed through SanitizeFileName. Without a directive
// both titles are def.
func Find(text, def string) Titles {
	m := headerRe.FindStringSubmatch(text)
	if m == nil {
		return Titles{DE: def, EN: def}
	}
	return Titles{DE: SanitizeFileName(m[1]), EN: SanitizeFileName(m[2])}
}

// ForFile is Find with the base name of file p, without extension, as the
// default.
func ForFile(p, text string) Titles {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return Find(text, SanitizeFileName(strings.TrimSuffix(base, path.Ext(base))))
}

// SanitizeFileName trims text and rewrites characters that are unsafe in
// file names: brackets become parentheses, shell and path metacharacters
// become underscores and colons are dropped. Whitespace exposed by dropped
// colons is trimmed as well so that the function is idempotent.
func SanitizeFileName(text string) string {
	return strings.TrimSpace(fileNameReplacer.Replace(strings.TrimSpace(text)))
}
