package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/clm/internal/notebook"
	"github.com/starford/clm/internal/titles"
)

func sampleNotebook() *notebook.Notebook {
	en := notebook.NewCell(notebook.Markdown, "Hello", "slide")
	en.SetLanguage("en")
	de := notebook.NewCell(notebook.Markdown, "Hallo", "slide")
	de.SetLanguage("de")
	return &notebook.Notebook{
		Format: "py",
		Cells: []*notebook.Cell{
			en,
			de,
			notebook.NewCell(notebook.Code, "import os", "keep"),
			notebook.NewCell(notebook.Code, "x = 1"),
			notebook.NewCell(notebook.Code, "y = 2", "alt"),
			notebook.NewCell(notebook.Markdown, "psst", "notes"),
			notebook.NewCell(notebook.Code, "gone", "del", "keep"),
			notebook.NewCell(notebook.Code, "secret", "private"),
		},
	}
}

func sources(cells []*notebook.Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Source
	}
	return out
}

func TestDerive(t *testing.T) {
	tests := []struct {
		v    Variant
		want []string
	}{
		{Variant{"en", AudienceSpeaker, FormCompleted}, []string{"Hello", "import os", "x = 1", "y = 2", "psst", "secret"}},
		{Variant{"en", AudiencePublic, FormCompleted}, []string{"Hello", "import os", "x = 1", "y = 2"}},
		{Variant{"en", AudiencePublic, FormCodealong}, []string{"Hello", "import os", ""}},
		{Variant{"de", AudienceSpeaker, FormCodealong}, []string{"Hallo", "import os", "", "psst", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.v.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, sources(Derive(sampleNotebook(), tt.v)))
		})
	}
}

func TestDeleteTakesPrecedence(t *testing.T) {
	c := notebook.NewCell(notebook.Code, "x", "del", "keep", "slide")
	for _, v := range All([]string{"en", "de"}) {
		assert.False(t, v.Retains(c), v.String())
	}
}

func TestDeriveLoadedMarkerTags(t *testing.T) {
	src := "# %% tags=[del]\nsecret = 1\n\n# %% [markdown] tags=[\"notes\", \"see [1]\"]\n# speaker only\n\n# %%\nx = 1\n"
	nb, err := notebook.Load("slides/nb_x.py", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"x = 1"}, sources(Derive(nb, Variant{"en", AudiencePublic, FormCompleted})))
	assert.Equal(t, []string{"speaker only", "x = 1"}, sources(Derive(nb, Variant{"en", AudienceSpeaker, FormCompleted})))
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	nb := sampleNotebook()
	cells := Derive(nb, Variant{"en", AudiencePublic, FormCodealong})
	require.NotEmpty(t, cells)
	cells[0].SetTags(nil)

	assert.Equal(t, "x = 1", nb.Cells[3].Source)
	assert.Equal(t, []string{"slide"}, nb.Cells[0].Tags())
}

func TestDeriveNotebookKeepsFormat(t *testing.T) {
	nb := sampleNotebook()
	nb.Preamble = "# header"
	out := DeriveNotebook(nb, Variant{"de", AudiencePublic, FormCompleted})
	assert.Equal(t, "py", out.Format)
	assert.Equal(t, "# header", out.Preamble)
	assert.Len(t, out.Cells, 4)
}

func TestAll(t *testing.T) {
	all := All([]string{"de", "en"})
	require.Len(t, all, 8)
	assert.Equal(t, Variant{"de", AudiencePublic, FormCompleted}, all[0])
	assert.Equal(t, Variant{"en", AudienceSpeaker, FormCodealong}, all[7])
	assert.Empty(t, All(nil))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Variant{"en", AudiencePublic, FormCodealong}.Validate())
	assert.Error(t, Variant{"", AudiencePublic, FormCodealong}.Validate())
	assert.Error(t, Variant{"en", "everyone", FormCodealong}.Validate())
	assert.Error(t, Variant{"en", AudiencePublic, "draft"}.Validate())
}

func TestOutputNaming(t *testing.T) {
	tt := titles.Titles{DE: "Einführung", EN: "Introduction"}
	v := Variant{"de", AudienceSpeaker, FormCodealong}
	assert.Equal(t, "de/speaker/codealong", OutputDir(v))
	assert.Equal(t, "Einführung.py", OutputName(tt, v, "py"))
	assert.Equal(t, "Introduction", OutputName(tt, Variant{Lang: "en"}, ""))
}
