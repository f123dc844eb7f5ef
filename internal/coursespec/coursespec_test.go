package coursespec

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const sampleCSV = `Base Dir:,course/
Target Dir:,output/
Template Dir:,other-course/templates/
Language:,de
Programming Language:,python

/tmp/course/slides/module_100/topic_10_intro.py,my_dir,Notebook
/tmp/course/slides/module_100/topic_20_loops.py,my_dir,Notebook
# /tmp/course/slides/module_100/topic_30_skip.py,my_dir,Notebook
/tmp/course/examples/Chess,my_dir,ExampleSolution
/tmp/course/slides/module_200/topic_10_other.py,other_dir,Notebook
broken,row
`

func TestRead(t *testing.T) {
	root := t.TempDir()
	spec, err := Read(strings.NewReader(sampleCSV), root, discard)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "course"), spec.BaseDir)
	assert.Equal(t, filepath.Join(root, "output"), spec.TargetDir)
	assert.Equal(t, filepath.Join(root, "other-course", "templates"), spec.TemplateDir)
	assert.Equal(t, "de", spec.Lang)
	assert.Equal(t, "python", spec.ProgLang)
	require.Len(t, spec.Documents, 4)

	var nums []int
	for _, d := range spec.Documents {
		nums = append(nums, d.FileNum)
	}
	assert.Equal(t, []int{1, 2, 1, 1}, nums)
	assert.Equal(t, "ExampleSolution", spec.Documents[2].Kind)
}

func TestRead_MissingProgrammingLanguageDefaultsToPython(t *testing.T) {
	input := "Base Dir:,course/\nTarget Dir:,out/\nTemplate Dir:,tmpl/\nLanguage:,en\n\n\na.py,dir,Notebook\n"
	spec, err := Read(strings.NewReader(input), t.TempDir(), discard)
	require.NoError(t, err)
	assert.Equal(t, "python", spec.ProgLang)
	require.Len(t, spec.Documents, 1)
	assert.Equal(t, "a.py", spec.Documents[0].SourceFile)
}

func TestRead_BlankFieldsRowEndsHeader(t *testing.T) {
	input := "Base Dir:,course/\nTarget Dir:,out/\nTemplate Dir:,tmpl/\nLanguage:,en\n,,\na.py,dir,Notebook\n"
	spec, err := Read(strings.NewReader(input), t.TempDir(), discard)
	require.NoError(t, err)
	assert.Equal(t, "python", spec.ProgLang)
	assert.Len(t, spec.Documents, 1)
}

func TestRead_HeaderOnly(t *testing.T) {
	input := "Base Dir:,course/\nTarget Dir:,out/\nTemplate Dir:,tmpl/\nLanguage:,en\nProgramming Language:,cpp\n"
	spec, err := Read(strings.NewReader(input), t.TempDir(), discard)
	require.NoError(t, err)
	assert.Equal(t, "cpp", spec.ProgLang)
	assert.Empty(t, spec.Documents)
}

func TestRead_BadHeader(t *testing.T) {
	cases := map[string]string{
		"wrong base":     "Base:,course/\nTarget Dir:,out/\nTemplate Dir:,t/\nLanguage:,en\n",
		"incomplete":     "Base Dir:,course/\nTarget Dir:,out/\n",
		"missing value":  "Base Dir:\nTarget Dir:,out/\nTemplate Dir:,t/\nLanguage:,en\n",
		"bad prog label": "Base Dir:,c/\nTarget Dir:,out/\nTemplate Dir:,t/\nLanguage:,en\nProgramming:,py\n",
		"no empty line after language": "Base Dir:,c/\nTarget Dir:,out/\nTemplate Dir:,t/\nLanguage:,en\n" +
			"a.py,dir,Notebook\n",
		"no empty line after prog lang": "Base Dir:,c/\nTarget Dir:,out/\nTemplate Dir:,t/\nLanguage:,en\nProgramming Language:,python\n" +
			"a.py,dir,Notebook\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(input), t.TempDir(), discard)
			assert.ErrorIs(t, err, ErrBadHeader)
		})
	}
}

func TestReadFile_ResolvesAgainstFileDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "course.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	spec, err := ReadFile(path, discard)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "course"), spec.BaseDir)
}

func TestLookup(t *testing.T) {
	spec := &CourseSpec{Documents: []DocumentSpec{
		{SourceFile: "slides/./nb_a.py", TargetDirFragment: "m1", Kind: "Notebook", FileNum: 3},
	}}
	d, ok := spec.Lookup("slides/nb_a.py")
	require.True(t, ok)
	assert.Equal(t, 3, d.FileNum)

	_, ok = spec.Lookup("slides/nb_b.py")
	assert.False(t, ok)
}
