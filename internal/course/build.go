package course

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/clm/internal/coursespec"
	"github.com/starford/clm/internal/diag"
	"github.com/starford/clm/internal/dirkind"
	"github.com/starford/clm/internal/notebook"
	"github.com/starford/clm/internal/storage"
	"github.com/starford/clm/internal/titles"
	"github.com/starford/clm/internal/variant"
)

// BuildOptions configures Build.
type BuildOptions struct {
	Source    storage.Provider
	Output    storage.Provider
	Rules     Rules
	Languages []string
	// Workers bounds the number of documents processed concurrently.
	Workers int
	// Spec, if set, restricts notebooks to those it lists and places them
	// under the spec's target directories with numbered names.
	Spec *coursespec.CourseSpec
	// Prune removes files left in the variant directories by earlier
	// builds, e.g. after a notebook title changed.
	Prune  bool
	Logger *slog.Logger
}

// Report summarizes a build.
type Report struct {
	Documents   int               `json:"documents"`
	Written     []string          `json:"written"`
	Skipped     []string          `json:"skipped,omitempty"`
	Removed     []string          `json:"removed,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

type builder struct {
	opts  BuildOptions
	diags *diag.Collector

	mu      sync.Mutex
	written []string
	skipped []string
}

// Build classifies the course, derives every variant of every notebook and
// writes the results into the output store. Data files, folders and
// examples are copied into each variant directory unchanged.
func Build(ctx context.Context, opts BuildOptions) (*Report, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if len(opts.Languages) == 0 {
		return nil, fmt.Errorf("course: build: no languages configured")
	}

	docs, err := Walk(ctx, opts.Source, opts.Rules)
	if err != nil {
		return nil, err
	}

	b := &builder{opts: opts, diags: diag.NewCollector()}
	variants := variant.All(opts.Languages)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, doc := range docs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			return b.buildDocument(gCtx, doc, variants)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var removed []string
	if opts.Prune {
		keep := make(map[string]bool, len(b.written))
		for _, w := range b.written {
			keep[w] = true
		}
		for _, v := range variants {
			if _, err := b.prune(ctx, variant.OutputDir(v), keep, &removed); err != nil {
				return nil, fmt.Errorf("course: prune: %w", err)
			}
		}
	}

	b.diags.Log(ctx, opts.Logger)
	sort.Strings(b.written)
	sort.Strings(b.skipped)
	opts.Logger.Info("build finished",
		slog.Int("documents", len(docs)),
		slog.Int("written", len(b.written)),
		slog.Int("diagnostics", b.diags.Len()))

	return &Report{
		Documents:   len(docs),
		Written:     b.written,
		Skipped:     b.skipped,
		Removed:     removed,
		Diagnostics: b.diags.Items(),
	}, nil
}

func (b *builder) buildDocument(ctx context.Context, doc Document, variants []variant.Variant) error {
	switch doc.Label {
	case dirkind.Notebook:
		return b.buildNotebook(doc, variants)
	case dirkind.DataFile:
		for _, v := range variants {
			if err := b.copyFile(doc.Path, path.Join(variant.OutputDir(v), doc.Path)); err != nil {
				return err
			}
		}
	case dirkind.Folder, dirkind.ExampleSolution, dirkind.ExampleStarterKit:
		for _, v := range variants {
			if err := b.copyTree(ctx, doc.Path, path.Join(variant.OutputDir(v), doc.Path)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) buildNotebook(doc Document, variants []variant.Variant) error {
	data, err := b.opts.Source.Read(doc.Path)
	if err != nil {
		return err
	}
	nb, err := notebook.Load(doc.Path, data)
	if err != nil {
		return fmt.Errorf("course: load %s: %w", doc.Path, err)
	}

	relDir := path.Dir(doc.Path)
	prefix := ""
	if b.opts.Spec != nil {
		ds, ok := b.lookupSpec(doc.Path)
		if !ok {
			b.skip(doc.Path)
			return nil
		}
		relDir = ds.TargetDirFragment
		prefix = fmt.Sprintf("%02d ", ds.FileNum)
	}

	nb.Validate(b.diags.With("path", doc.Path))
	t := titles.ForFile(doc.Path, nb.Text)

	for _, v := range variants {
		out, err := notebook.Format(variant.DeriveNotebook(nb, v))
		if err != nil {
			return fmt.Errorf("course: format %s: %w", doc.Path, err)
		}
		name := prefix + variant.OutputName(t, v, nb.Format)
		if err := b.write(path.Join(variant.OutputDir(v), relDir, name), out); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) lookupSpec(rel string) (coursespec.DocumentSpec, bool) {
	if ds, ok := b.opts.Spec.Lookup(rel); ok {
		return ds, true
	}
	return b.opts.Spec.Lookup(filepath.Join(b.opts.Source.Root(), filepath.FromSlash(rel)))
}

func (b *builder) copyFile(from, to string) error {
	data, err := b.opts.Source.Read(from)
	if err != nil {
		return err
	}
	return b.write(to, data)
}

func (b *builder) copyTree(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := b.opts.Source.ReadDir(from)
	if err != nil {
		return err
	}
	for _, e := range entries {
		src, dst := path.Join(from, e.Name()), path.Join(to, e.Name())
		if e.IsDir() {
			if b.opts.Rules.KindFor(src) == dirkind.KindIgnored {
				continue
			}
			if err := b.copyTree(ctx, src, dst); err != nil {
				return err
			}
			continue
		}
		if err := b.copyFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) write(rel string, data []byte) error {
	if err := b.opts.Output.Write(rel, data); err != nil {
		return err
	}
	b.mu.Lock()
	b.written = append(b.written, rel)
	b.mu.Unlock()
	return nil
}

// prune removes files below dir that are not in keep, then dir itself if
// it ended up empty. It reports whether dir was removed.
func (b *builder) prune(ctx context.Context, dir string, keep map[string]bool, removed *[]string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	entries, err := b.opts.Output.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	left := len(entries)
	for _, e := range entries {
		p := path.Join(dir, e.Name())
		if e.IsDir() {
			gone, err := b.prune(ctx, p, keep, removed)
			if err != nil {
				return false, err
			}
			if gone {
				left--
			}
			continue
		}
		if keep[p] {
			continue
		}
		if err := b.opts.Output.Remove(p); err != nil {
			return false, err
		}
		*removed = append(*removed, p)
		left--
	}
	if left > 0 {
		return false, nil
	}
	return true, b.opts.Output.Remove(dir)
}

func (b *builder) skip(rel string) {
	b.mu.Lock()
	b.skipped = append(b.skipped, rel)
	b.mu.Unlock()
}
