// Package variant derives the per-language, per-audience and per-form
// documents from a master notebook.
package variant

import (
	"path"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/clm/internal/notebook"
	"github.com/starford/clm/internal/titles"
)

// Audiences.
const (
	AudiencePublic  = "public"
	AudienceSpeaker = "speaker"
)

// Forms.
const (
	FormCompleted = "completed"
	FormCodealong = "codealong"
)

// Variant identifies one derived document.
type Variant struct {
	Lang     string `json:"lang"`
	Audience string `json:"audience"`
	Form     string `json:"form"`
}

// Validate checks that every field holds a known value.
func (v Variant) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.Lang, validation.Required, validation.Length(2, 8)),
		validation.Field(&v.Audience, validation.Required, validation.In(AudiencePublic, AudienceSpeaker)),
		validation.Field(&v.Form, validation.Required, validation.In(FormCompleted, FormCodealong)),
	)
}

// String returns the slash-separated form lang/audience/form.
func (v Variant) String() string {
	return path.Join(v.Lang, v.Audience, v.Form)
}

// All enumerates every variant for langs in a stable order.
func All(langs []string) []Variant {
	out := make([]Variant, 0, len(langs)*4)
	for _, lang := range langs {
		for _, aud := range []string{AudiencePublic, AudienceSpeaker} {
			for _, form := range []string{FormCompleted, FormCodealong} {
				out = append(out, Variant{Lang: lang, Audience: aud, Form: form})
			}
		}
	}
	return out
}

// Retains reports whether c appears in documents of variant v. Cells that
// are retained may still have their body emptied; see Derive.
func (v Variant) Retains(c *notebook.Cell) bool {
	if c.IsDeleted() {
		return false
	}
	if !c.ShouldRetainForLanguage(v.Lang) {
		return false
	}
	if v.Audience == AudiencePublic && c.IsPrivate() {
		return false
	}
	if v.Form == FormCodealong && c.IsAlternateSolution() {
		return false
	}
	return true
}

// Derive returns the cells of nb that belong to v, each a copy. In
// codealongs, code cells not tagged keep are kept with an empty body.
// Diagnostics are the job of notebook.Notebook.Validate.
func Derive(nb *notebook.Notebook, v Variant) []*notebook.Cell {
	out := make([]*notebook.Cell, 0, len(nb.Cells))
	for _, c := range nb.Cells {
		if !v.Retains(c) {
			continue
		}
		cp := c.Clone()
		if v.Form == FormCodealong && !cp.IsContentsIncludedInCodealongs() {
			cp.Source = ""
		}
		out = append(out, cp)
	}
	return out
}

// DeriveNotebook wraps Derive and keeps the notebook's format and preamble.
func DeriveNotebook(nb *notebook.Notebook, v Variant) *notebook.Notebook {
	return &notebook.Notebook{
		Path:     nb.Path,
		Format:   nb.Format,
		Preamble: nb.Preamble,
		Cells:    Derive(nb, v),
	}
}

// OutputDir is the directory, relative to the output root, that holds
// documents of v.
func OutputDir(v Variant) string {
	return v.String()
}

// OutputName is the file name of the document titled t in variant v.
func OutputName(t titles.Titles, v Variant, ext string) string {
	name := t.For(v.Lang)
	if ext == "" {
		return name
	}
	return name + "." + ext
}
