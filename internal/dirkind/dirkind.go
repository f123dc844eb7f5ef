// Package dirkind classifies course directory entries into content labels.
//
// Every directory in a course is governed by one Kind. The Kind of an
// entry's parent decides the entry's Label and whether a directory entry is
// traversed further.
package dirkind

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"
)

// Label names the kind of content a file or directory holds.
type Label string

// Labels produced by the classifier.
const (
	Ignored           Label = "Ignored"
	DataFile          Label = "DataFile"
	Folder            Label = "Folder"
	Notebook          Label = "Notebook"
	ExampleSolution   Label = "ExampleSolution"
	ExampleStarterKit Label = "ExampleStarterKit"
)

// Kind is the classification policy of a directory.
type Kind int

// Classification policies.
const (
	// KindIgnored prunes the directory: nothing inside is content.
	KindIgnored Kind = iota
	// KindGeneral copies files verbatim and traverses subdirectories.
	KindGeneral
	// KindNotebooks recognizes notebook files by name; subdirectories are
	// copied as whole folders.
	KindNotebooks
	// KindExamples treats every subdirectory as an example project.
	KindExamples
)

var kindNames = map[Kind]string{
	KindIgnored:   "ignored",
	KindGeneral:   "general",
	KindNotebooks: "notebooks",
	KindExamples:  "examples",
}

// String returns the configuration name of k.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns the Kind with configuration name s.
func ParseKind(s string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == want {
			return k, nil
		}
	}
	return 0, fmt.Errorf("dirkind: unknown kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("dirkind: unknown kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Entry is the part of a file system entry the classifier looks at.
type Entry struct {
	Name  string
	IsDir bool
}

// EntryFromDirEntry adapts an fs.DirEntry.
func EntryFromDirEntry(d fs.DirEntry) Entry {
	return Entry{Name: d.Name(), IsDir: d.IsDir()}
}

// Decision is the outcome of classifying an entry. Descend is only ever
// true for directories and is independent of the Label: a directory may be
// labelled Ignored (not itself content) and still be traversed.
type Decision struct {
	Label   Label
	Descend bool
}

var notebookRe = regexp.MustCompile(`^(nb|lecture|topic|ws|workshop|project)_(.*)\.(py|cpp|ru|md)$`)

// IsNotebookFile reports whether name follows the notebook naming scheme
// <prefix>_<name>.<ext>.
func IsNotebookFile(name string) bool {
	return notebookRe.MatchString(name)
}

// Classify decides the label of e, an entry of a directory governed by k.
func (k Kind) Classify(e Entry) Decision {
	switch k {
	case KindGeneral:
		if e.IsDir {
			return Decision{Label: Ignored, Descend: true}
		}
		return Decision{Label: DataFile}
	case KindNotebooks:
		if e.IsDir {
			return Decision{Label: Folder}
		}
		if IsNotebookFile(e.Name) {
			return Decision{Label: Notebook}
		}
		return Decision{Label: DataFile}
	case KindExamples:
		if !e.IsDir {
			return Decision{Label: DataFile}
		}
		if strings.HasSuffix(e.Name, "StarterKit") {
			return Decision{Label: ExampleStarterKit}
		}
		return Decision{Label: ExampleSolution}
	default:
		return Decision{Label: Ignored}
	}
}

// LabelFor returns only the label part of Classify.
func (k Kind) LabelFor(e Entry) Label {
	return k.Classify(e).Label
}
