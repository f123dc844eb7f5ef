package index

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/starford/clm/internal/checksum"
	"github.com/starford/clm/internal/course"
	"github.com/starford/clm/internal/diag"
	"github.com/starford/clm/internal/dirkind"
	"github.com/starford/clm/internal/notebook"
	"github.com/starford/clm/internal/storage"
	"github.com/starford/clm/internal/titles"
)

// EventCallback is called after an index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// Sync walks the course and brings the index up to date:
//   - new/changed documents are loaded and upserted
//   - documents no longer produced by the walk are deleted from the index
func Sync(ctx context.Context, db *DB, store storage.Provider, rules course.Rules, logger *slog.Logger) error {
	return reconcile(ctx, db, store, rules, logger, nil)
}

func reconcile(ctx context.Context, db *DB, store storage.Provider, rules course.Rules, logger *slog.Logger, cb EventCallback) error {
	docs, err := course.Walk(ctx, store, rules)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	walked := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		walked[doc.Path] = struct{}{}

		old, known := checksums[doc.Path]
		changed, err := indexDocument(db, store, rules, doc, old)
		if err != nil {
			logger.Warn("sync: index failed", slog.String("path", doc.Path), slog.String("error", err.Error()))
			continue
		}
		if !changed {
			continue
		}
		logger.Debug("sync: indexed", slog.String("path", doc.Path))
		if cb != nil {
			cb(eventKind(known), doc.Path)
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := walked[p]; ok {
			continue
		}
		if err := db.DeleteDocument(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: removed stale", slog.String("path", p))
		if cb != nil {
			cb("deleted", p)
		}
	}
	return nil
}

func eventKind(known bool) string {
	if known {
		return "updated"
	}
	return "created"
}

// indexDocument upserts doc unless its checksum equals old. It reports
// whether the index changed.
func indexDocument(db *DB, store storage.Provider, rules course.Rules, doc course.Document, old string) (bool, error) {
	if doc.IsDir {
		cs, err := treeChecksum(store, rules, doc.Path)
		if err != nil {
			return false, err
		}
		if cs == old {
			return false, nil
		}
		row := DocumentRow{Path: doc.Path, Label: doc.Label, Checksum: cs, UpdatedAt: time.Now().UTC()}
		return true, db.UpsertDocument(row, "", nil)
	}

	data, err := store.Read(doc.Path)
	if err != nil {
		return false, err
	}
	cs := checksum.Sum(data)
	if cs == old {
		return false, nil
	}
	row := DocumentRow{Path: doc.Path, Label: doc.Label, Checksum: cs, UpdatedAt: time.Now().UTC()}
	if doc.Label != dirkind.Notebook {
		return true, db.UpsertDocument(row, "", nil)
	}

	nb, err := notebook.Load(doc.Path, data)
	if err != nil {
		return false, err
	}
	diags := diag.NewCollector()
	nb.Validate(diags)
	row.Titles = titles.ForFile(doc.Path, nb.Text)
	row.Cells = len(nb.Cells)
	return true, db.UpsertDocument(row, nb.Text, diags.Items())
}

// treeChecksum digests the names, sizes and modification times of every
// file below dir, skipping directories the rules ignore.
func treeChecksum(store storage.Provider, rules course.Rules, dir string) (string, error) {
	t := checksum.NewTree()
	if err := listTree(store, rules, dir, t); err != nil {
		return "", fmt.Errorf("index: list %s: %w", dir, err)
	}
	return t.Sum(), nil
}

func listTree(store storage.Provider, rules course.Rules, dir string, t *checksum.Tree) error {
	entries, err := store.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := path.Join(dir, e.Name())
		if e.IsDir() {
			if rules.KindFor(p) == dirkind.KindIgnored {
				continue
			}
			if err := listTree(store, rules, p, t); err != nil {
				return err
			}
			continue
		}
		info, err := e.Info()
		if err != nil {
			return err
		}
		t.Add(p, info.Size(), info.ModTime())
	}
	return nil
}
