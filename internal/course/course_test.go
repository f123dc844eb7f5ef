package course

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/clm/internal/coursespec"
	"github.com/starford/clm/internal/dirkind"
	"github.com/starford/clm/internal/storage"
)

const introNotebook = `# {{ header("Einführung: Teil 1", "Introduction: Part 1") }}

# %% [markdown] lang="de" tags=["slide"]
# # Einführung

# %% [markdown] lang="en" tags=["slide"]
# # Introduction

# %% tags=["keep"]
import math

# %%
answer = 42

# %% tags=["alt"]
answer = 6 * 7

# %% [markdown] tags=["notes", "bogus"]
# Speaker only.
`

func courseTree(t *testing.T, files map[string]string) *storage.FS {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	store, err := storage.NewFS(root)
	require.NoError(t, err)
	return store
}

func outputStore(t *testing.T) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	return store
}

func sampleCourse(t *testing.T) *storage.FS {
	return courseTree(t, map[string]string{
		"README.md":                         "course",
		"slides/module_1/nb_intro.py":       introNotebook,
		"slides/module_1/helper.py":         "x = 1\n",
		"slides/module_1/img/logo.png":      "png",
		"examples/Chess/main.py":            "pass\n",
		"examples/ChessStarterKit/main.py":  "pass\n",
		".git/config":                       "[core]",
		"slides/module_1/__pycache__/x.pyc": "bytecode",
		"slides/module_2/topic_loops.md":    "# Loops\n",
	})
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestKindFor(t *testing.T) {
	rules := DefaultRules()
	assert.Equal(t, dirkind.KindGeneral, rules.KindFor("."))
	assert.Equal(t, dirkind.KindGeneral, rules.KindFor(""))
	assert.Equal(t, dirkind.KindIgnored, rules.KindFor(".git"))
	assert.Equal(t, dirkind.KindIgnored, rules.KindFor("slides/module_1/__pycache__"))
	assert.Equal(t, dirkind.KindGeneral, rules.KindFor("slides"))
	assert.Equal(t, dirkind.KindNotebooks, rules.KindFor("slides/module_1"))
	assert.Equal(t, dirkind.KindExamples, rules.KindFor("examples"))

	custom := Rules{{Pattern: ".", Kind: dirkind.KindNotebooks}}
	assert.Equal(t, dirkind.KindNotebooks, custom.KindFor("."))
}

func TestRulesValidate(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())
	assert.Error(t, Rules{{Pattern: "[", Kind: dirkind.KindGeneral}}.Validate())
}

func TestWalk(t *testing.T) {
	docs, err := Walk(context.Background(), sampleCourse(t), DefaultRules())
	require.NoError(t, err)

	want := []Document{
		{Path: "README.md", Label: dirkind.DataFile},
		{Path: "examples/Chess", Label: dirkind.ExampleSolution, IsDir: true},
		{Path: "examples/ChessStarterKit", Label: dirkind.ExampleStarterKit, IsDir: true},
		{Path: "slides/module_1/helper.py", Label: dirkind.DataFile},
		{Path: "slides/module_1/img", Label: dirkind.Folder, IsDir: true},
		{Path: "slides/module_1/nb_intro.py", Label: dirkind.Notebook},
		{Path: "slides/module_2/topic_loops.md", Label: dirkind.Notebook},
	}
	assert.Equal(t, want, docs)
}

func TestWalkCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Walk(ctx, sampleCourse(t), DefaultRules())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify(t *testing.T) {
	store := sampleCourse(t)
	rules := DefaultRules()

	d, err := Classify(store, rules, "slides/module_1/nb_intro.py")
	require.NoError(t, err)
	assert.Equal(t, dirkind.Decision{Label: dirkind.Notebook}, d)

	d, err = Classify(store, rules, "slides")
	require.NoError(t, err)
	assert.Equal(t, dirkind.Decision{Label: dirkind.Ignored, Descend: true}, d)

	d, err = Classify(store, rules, ".git/config")
	require.NoError(t, err)
	assert.Equal(t, dirkind.Ignored, d.Label)

	d, err = Classify(store, rules, "slides/module_1/__pycache__")
	require.NoError(t, err)
	assert.Equal(t, dirkind.Ignored, d.Label)

	d, err = Classify(store, rules, "slides/module_1/img/logo.png")
	require.NoError(t, err)
	assert.Equal(t, dirkind.Ignored, d.Label, "entries inside copied folders are not classified individually")

	_, err = Classify(store, rules, "missing.py")
	assert.Error(t, err)
	_, err = Classify(store, rules, "/")
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	src, out := sampleCourse(t), outputStore(t)
	report, err := Build(context.Background(), BuildOptions{
		Source:    src,
		Output:    out,
		Rules:     DefaultRules(),
		Languages: []string{"de", "en"},
		Workers:   4,
		Logger:    quiet,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, report.Documents)

	data, err := out.Read("en/public/codealong/slides/module_1/Introduction Part 1.py")
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# # Introduction")
	assert.NotContains(t, text, "Einführung\n")
	assert.Contains(t, text, "import math")
	assert.NotContains(t, text, "answer")
	assert.NotContains(t, text, "Speaker only")

	data, err = out.Read("de/speaker/completed/slides/module_1/Einführung Teil 1.py")
	require.NoError(t, err)
	text = string(data)
	assert.Contains(t, text, "answer = 6 * 7")
	assert.Contains(t, text, "Speaker only")
	assert.NotContains(t, text, "# # Introduction")

	_, err = out.Read("en/public/completed/slides/module_2/topic_loops.md")
	require.NoError(t, err, "notebooks without a header keep their file stem")
	_, err = out.Read("de/public/completed/slides/module_1/img/logo.png")
	require.NoError(t, err)
	_, err = out.Read("en/speaker/codealong/examples/ChessStarterKit/main.py")
	require.NoError(t, err)
	_, err = out.Read("en/speaker/codealong/.git/config")
	assert.Error(t, err)
	_, err = out.Read("en/speaker/codealong/slides/module_1/__pycache__/x.pyc")
	assert.Error(t, err)

	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, "bogus", report.Diagnostics[0].Context["tag"])
	assert.Equal(t, "slides/module_1/nb_intro.py", report.Diagnostics[0].Context["path"])
}

func TestBuildSkipsIgnoredDirsInsideFolders(t *testing.T) {
	src := courseTree(t, map[string]string{
		"slides/m1/nb_a.py":                "# %%\nx = 1\n",
		"slides/m1/img/logo.png":           "png",
		"slides/m1/img/__pycache__/x.pyc":  "bytecode",
		"slides/m1/img/.git/HEAD":          "ref: refs/heads/main",
		"slides/m1/img/node_modules/a.js":  "1",
		"slides/m1/img/sub/.cache/tmp.txt": "tmp",
	})
	out := outputStore(t)
	_, err := Build(context.Background(), BuildOptions{
		Source:    src,
		Output:    out,
		Rules:     DefaultRules(),
		Languages: []string{"en"},
		Logger:    quiet,
	})
	require.NoError(t, err)

	base := "en/public/completed/slides/m1/img/"
	_, err = out.Read(base + "logo.png")
	require.NoError(t, err)
	for _, p := range []string{"__pycache__", ".git", "node_modules", "sub/.cache"} {
		_, err = out.Stat(base + p)
		assert.ErrorIs(t, err, os.ErrNotExist, p)
	}
}

func TestBuildWithSpec(t *testing.T) {
	src, out := sampleCourse(t), outputStore(t)
	spec, err := coursespec.Read(strings.NewReader(
		"Base Dir:,.\nTarget Dir:,out\nTemplate Dir:,tmpl\nLanguage:,en\n\nslides/module_1/nb_intro.py,basics,Notebook\n"),
		src.Root(), quiet)
	require.NoError(t, err)

	report, err := Build(context.Background(), BuildOptions{
		Source:    src,
		Output:    out,
		Rules:     DefaultRules(),
		Languages: []string{"en"},
		Spec:      spec,
		Logger:    quiet,
	})
	require.NoError(t, err)

	_, err = out.Read("en/public/completed/basics/01 Introduction Part 1.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"slides/module_2/topic_loops.md"}, report.Skipped)
}

func TestBuildRequiresLanguages(t *testing.T) {
	_, err := Build(context.Background(), BuildOptions{Source: sampleCourse(t), Output: outputStore(t)})
	assert.Error(t, err)
}

func TestBuildPrune(t *testing.T) {
	src, out := sampleCourse(t), outputStore(t)
	require.NoError(t, out.Write("en/public/completed/slides/module_1/Old Title.py", []byte("stale")))
	require.NoError(t, out.Write("en/public/completed/retired/nb_gone.py", []byte("stale")))
	require.NoError(t, out.Write("notes.txt", []byte("not a variant")))

	report, err := Build(context.Background(), BuildOptions{
		Source:    src,
		Output:    out,
		Rules:     DefaultRules(),
		Languages: []string{"en"},
		Prune:     true,
		Logger:    quiet,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"en/public/completed/slides/module_1/Old Title.py",
		"en/public/completed/retired/nb_gone.py",
	}, report.Removed)

	_, err = out.Stat("en/public/completed/retired")
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = out.Read("notes.txt")
	assert.NoError(t, err)
	_, err = out.Read("en/public/completed/slides/module_1/Introduction Part 1.py")
	assert.NoError(t, err)
}
