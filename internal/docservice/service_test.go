package docservice

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/clm/internal/apperr"
	"github.com/starford/clm/internal/course"
	"github.com/starford/clm/internal/dirkind"
	"github.com/starford/clm/internal/index"
	"github.com/starford/clm/internal/testutil"
	"github.com/starford/clm/internal/titles"
	"github.com/starford/clm/internal/variant"
)

func newService(t *testing.T) *Service {
	t.Helper()
	_, store := testutil.TestCourse(t, map[string]string{
		"slides/module_1/nb_intro.py": testutil.IntroNotebook,
		"slides/module_1/data.csv":    "a,b\n",
		"README.md":                   "readme",
	})
	db := testutil.TestDB(t)
	rules := course.DefaultRules()
	require.NoError(t, index.Sync(context.Background(), db, store, rules, slog.New(slog.NewTextHandler(io.Discard, nil))))
	return NewService(store, db, rules, []string{"de", "en"})
}

func TestGetAndListDocuments(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	doc, err := svc.GetDocument(ctx, "slides/module_1/nb_intro.py")
	require.NoError(t, err)
	assert.Equal(t, dirkind.Notebook, doc.Label)
	assert.Equal(t, titles.Titles{DE: "Einführung", EN: "Introduction"}, doc.Titles)
	assert.Equal(t, 7, doc.Cells)
	assert.Empty(t, doc.Diagnostics)

	_, err = svc.GetDocument(ctx, "nope.py")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	items, total, err := svc.ListDocuments(ctx, 10, 0, dirkind.DataFile)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "README.md", items[0].Path)
}

func TestClassify(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	c, err := svc.Classify(ctx, "slides/module_1/data.csv")
	require.NoError(t, err)
	assert.Equal(t, dirkind.DataFile, c.Label)
	assert.Equal(t, dirkind.KindNotebooks, c.Policy)

	c, err = svc.Classify(ctx, "slides")
	require.NoError(t, err)
	assert.Equal(t, dirkind.Ignored, c.Label)
	assert.True(t, c.Descend)

	_, err = svc.Classify(ctx, "slides/missing.py")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Classify(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = svc.Classify(ctx, ".")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestTitles(t *testing.T) {
	svc := newService(t)
	got, err := svc.Titles(context.Background(), "slides/module_1/nb_intro.py")
	require.NoError(t, err)
	assert.Equal(t, "Introduction", got.EN)

	_, err = svc.Titles(context.Background(), "README.md")
	assert.ErrorIs(t, err, apperr.ErrNotNotebook)
}

func TestDeriveVariant(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	doc, err := svc.DeriveVariant(ctx, "slides/module_1/nb_intro.py",
		variant.Variant{Lang: "de", Audience: variant.AudiencePublic, Form: variant.FormCodealong})
	require.NoError(t, err)
	assert.Equal(t, "Einführung.py", doc.Name)
	// de slide, keep, emptied code cell
	assert.Equal(t, 3, doc.Cells)
	assert.Contains(t, doc.Content, "# # Einführung")
	assert.Contains(t, doc.Content, "import math")
	assert.NotContains(t, doc.Content, "answer")
	assert.NotContains(t, doc.Content, "scratch")

	doc, err = svc.DeriveVariant(ctx, "slides/module_1/nb_intro.py",
		variant.Variant{Lang: "en", Audience: variant.AudienceSpeaker, Form: variant.FormCompleted})
	require.NoError(t, err)
	assert.Equal(t, 5, doc.Cells)
	assert.Contains(t, doc.Content, "Speaker only.")
	assert.Contains(t, doc.Content, "answer = 6 * 7")

	_, err = svc.DeriveVariant(ctx, "slides/module_1/nb_intro.py", variant.Variant{Lang: "en", Audience: "everyone", Form: "completed"})
	assert.ErrorIs(t, err, apperr.ErrInvalidVariant)

	_, err = svc.DeriveVariant(ctx, "slides/module_1/data.csv",
		variant.Variant{Lang: "en", Audience: variant.AudiencePublic, Form: variant.FormCompleted})
	assert.ErrorIs(t, err, apperr.ErrNotNotebook)
}

func TestDiagnostics(t *testing.T) {
	svc := newService(t)
	rows, err := svc.Diagnostics(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
