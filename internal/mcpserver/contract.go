package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/clm/internal/tags"
)

// tagContractIntro describes how cell tags shape derived documents. The tag
// vocabulary itself is appended by TagContract.
const tagContractIntro = `# clm Cell Tag Contract

Course notebooks are percent-format scripts (` + "`" + `# %%` + "`" + ` for Python, ` + "`" + `// %%` + "`" + ` for C++)
or Markdown files. Every cell may carry a ` + "`" + `tags=[...]` + "`" + ` list and a ` + "`" + `lang="de"` + "`" + `
attribute on its marker line:

` + "```" + `python
# %% [markdown] lang="en" tags=["slide"]
# # Introduction

# %% tags=["keep"]
import math
` + "```" + `

## Variants

Each notebook is rendered once per language, audience and form:

- **language**: cells with a ` + "`" + `lang` + "`" + ` attribute only appear in that language.
- **audience**: ` + "`" + `public` + "`" + ` documents drop private cells, ` + "`" + `speaker` + "`" + ` documents keep them.
- **form**: ` + "`" + `completed` + "`" + ` documents keep every code body; ` + "`" + `codealong` + "`" + ` documents
  empty code cells not tagged ` + "`" + `keep` + "`" + ` and drop cells tagged ` + "`" + `alt` + "`" + `.

Cells tagged ` + "`" + `del` + "`" + ` never appear. A cell should carry at most one slide tag;
when several are present ` + "`" + `slide` + "`" + ` wins over ` + "`" + `subslide` + "`" + `, which wins over ` + "`" + `notes` + "`" + `.

The first ` + "`" + `{{ header("<German title>", "<English title>") }}` + "`" + ` directive names the
output files.

## Vocabulary
`

// TagContract renders the contract including the current tag vocabulary.
func TagContract() string {
	var b strings.Builder
	b.WriteString(tagContractIntro)
	rows := []struct {
		name string
		set  tags.Set
	}{
		{"code cells", tags.CodeTags},
		{"markdown cells", tags.MarkdownTags},
		{"slide tags", tags.SlideTags},
		{"private tags", tags.PrivateTags},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "\n- **%s**: %s", r.name, "`"+strings.Join(r.set.Sorted(), "`, `")+"`")
	}
	b.WriteString("\n\nUnknown tags are reported as diagnostics and otherwise ignored.\n")
	return b.String()
}
