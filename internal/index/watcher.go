package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/clm/internal/course"
	"github.com/starford/clm/internal/dirkind"
	"github.com/starford/clm/internal/storage"
)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the course root and processes file
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful index mutation.
//
// Directories whose rule is ignored are not watched. New directories are
// added at runtime. Renames, new directories and changes inside copied
// folders trigger a debounced reconciliation pass.
func Watch(ctx context.Context, db *DB, store storage.Provider, rules course.Rules, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := addDirsRecursive(w, root, root, rules); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if err := reconcile(ctx, db, store, rules, logger, cb); err != nil {
				logger.Warn("reconcile: failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			rel, relErr := store.Rel(ev.Name)
			if relErr != nil {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if rules.KindFor(rel) == dirkind.KindIgnored {
						continue
					}
					if addErr := addDirsRecursive(w, root, ev.Name, rules); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", rel),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", rel))
					}
					scheduleReconcile()
					continue
				}
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				decision, classifyErr := course.Classify(store, rules, rel)
				if classifyErr != nil {
					continue
				}
				if decision.Label == dirkind.Ignored {
					// May live inside a copied folder or example.
					scheduleReconcile()
					continue
				}
				old, _ := db.GetChecksum(rel)
				doc := course.Document{Path: rel, Label: decision.Label}
				changed, idxErr := indexDocument(db, store, rules, doc, old)
				if idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				if !changed {
					continue
				}
				kind := eventKind(old != "")
				logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
				if cb != nil {
					cb(kind, rel)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// fsnotify reports renames on the old path only; the new
				// path arrives as a Create if it stays within a watched
				// directory. Reconciliation catches the rest.
				if cs, _ := db.GetChecksum(rel); cs != "" {
					if delErr := db.DeleteDocument(rel); delErr != nil {
						logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					} else {
						logger.Debug("watcher: deleted", slog.String("path", rel))
						if cb != nil {
							cb("deleted", rel)
						}
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds dir and its subdirectories to the watcher, skipping
// directories whose rule is ignored. Rules match paths relative to root.
func addDirsRecursive(w *fsnotify.Watcher, root, dir string, rules course.Rules) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(root, p); relErr == nil && rel != "." &&
			rules.KindFor(filepath.ToSlash(rel)) == dirkind.KindIgnored {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
