// Package course walks a course directory tree, classifies its entries and
// builds the derived documents.
package course

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/starford/clm/internal/dirkind"
	"github.com/starford/clm/internal/storage"
)

// ErrCourseRoot is returned when the course root itself is classified.
var ErrCourseRoot = errors.New("course: the course root has no label")

// Rule assigns a classification policy to directories matching Pattern.
// Patterns use path.Match syntax against the slash-separated directory path
// relative to the course root; patterns without a slash also match the
// directory's base name. The root itself is "." and only matches ".".
type Rule struct {
	Pattern string       `yaml:"pattern"`
	Kind    dirkind.Kind `yaml:"kind"`
}

// Rules is an ordered rule list; the first match wins.
type Rules []Rule

// DefaultRules returns the conventional course layout.
func DefaultRules() Rules {
	return Rules{
		{Pattern: ".*", Kind: dirkind.KindIgnored},
		{Pattern: "__pycache__", Kind: dirkind.KindIgnored},
		{Pattern: "node_modules", Kind: dirkind.KindIgnored},
		{Pattern: "slides/*", Kind: dirkind.KindNotebooks},
		{Pattern: "examples", Kind: dirkind.KindExamples},
	}
}

// Validate checks every pattern for syntax errors.
func (r Rules) Validate() error {
	for _, rule := range r {
		if _, err := path.Match(rule.Pattern, ""); err != nil {
			return fmt.Errorf("course: bad pattern %q: %w", rule.Pattern, err)
		}
	}
	return nil
}

// KindFor returns the policy governing dir. Unmatched directories are
// general.
func (r Rules) KindFor(dir string) dirkind.Kind {
	dir = cleanRel(dir)
	base := path.Base(dir)
	for _, rule := range r {
		if dir == "." {
			if rule.Pattern == "." {
				return rule.Kind
			}
			continue
		}
		if ok, _ := path.Match(rule.Pattern, dir); ok {
			return rule.Kind
		}
		if !strings.Contains(rule.Pattern, "/") {
			if ok, _ := path.Match(rule.Pattern, base); ok {
				return rule.Kind
			}
		}
	}
	return dirkind.KindGeneral
}

// Document is a course entry that carries content.
type Document struct {
	Path  string        `json:"path"`
	Label dirkind.Label `json:"label"`
	IsDir bool          `json:"is_dir"`
}

// Walk classifies the course tree below store's root. Each entry is
// classified by the policy of its parent directory; directories are only
// entered when the decision says so. Directories whose own policy is
// KindIgnored are pruned. Entries labelled Ignored are omitted.
// The result is sorted by path.
func Walk(ctx context.Context, store storage.Provider, rules Rules) ([]Document, error) {
	var out []Document
	if err := walkDir(ctx, store, rules, ".", &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func walkDir(ctx context.Context, store storage.Provider, rules Rules, dir string, out *[]Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := store.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("course: walk %s: %w", dir, err)
	}
	kind := rules.KindFor(dir)
	for _, e := range entries {
		entry := dirkind.EntryFromDirEntry(e)
		rel := path.Join(dir, e.Name())
		if entry.IsDir && rules.KindFor(rel) == dirkind.KindIgnored {
			continue
		}
		decision := kind.Classify(entry)
		if decision.Label != dirkind.Ignored {
			*out = append(*out, Document{Path: rel, Label: decision.Label, IsDir: entry.IsDir})
		}
		if entry.IsDir && decision.Descend {
			if err := walkDir(ctx, store, rules, rel, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// Classify labels the single entry at rel using its parent's policy.
// Entries below a directory the walk does not enter are Ignored.
func Classify(store storage.Provider, rules Rules, rel string) (dirkind.Decision, error) {
	rel = cleanRel(rel)
	if rel == "." {
		return dirkind.Decision{}, ErrCourseRoot
	}
	info, err := store.Stat(rel)
	if err != nil {
		return dirkind.Decision{}, err
	}
	if !Reachable(rules, rel) || (info.IsDir() && rules.KindFor(rel) == dirkind.KindIgnored) {
		return dirkind.Decision{Label: dirkind.Ignored}, nil
	}
	kind := rules.KindFor(path.Dir(rel))
	return kind.Classify(dirkind.Entry{Name: info.Name(), IsDir: info.IsDir()}), nil
}

// Reachable reports whether the walk enters every ancestor directory of
// rel, i.e. whether rel can appear in Walk's output at all.
func Reachable(rules Rules, rel string) bool {
	rel = cleanRel(rel)
	parts := strings.Split(rel, "/")
	dir := "."
	for _, p := range parts[:len(parts)-1] {
		d := rules.KindFor(dir).Classify(dirkind.Entry{Name: p, IsDir: true})
		dir = path.Join(dir, p)
		if !d.Descend || rules.KindFor(dir) == dirkind.KindIgnored {
			return false
		}
	}
	return true
}

func cleanRel(p string) string {
	p = strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
	if p == "" {
		return "."
	}
	return p
}
