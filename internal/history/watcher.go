package history

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/lookviz/internal/lookml"
	"github.com/starford/lookviz/internal/models"
)

// Event kinds passed to an EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

const reconcileDelay = 200 * time.Millisecond

// EventCallback is called for every dashboard file change. path is relative
// to the watched root and slash-separated.
type EventCallback func(kind string, path string)

// Lister enumerates dashboard files below the watched root.
type Lister interface {
	List(dir string) ([]models.DashboardFile, error)
}

// Watch starts an fsnotify watcher on root and reports dashboard file
// changes to cb until ctx is cancelled.
//
// New directories created at runtime are added to the watch list. Rename
// events trigger a debounced reconciliation against files.List so that the
// new name of a moved dashboard is reported too.
func Watch(ctx context.Context, root string, files Lister, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	known := snapshot(files, logger)
	emit := func(kind, rel string) {
		if cb != nil {
			cb(kind, rel)
		}
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
			reconcile(files, known, logger, emit)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					// Files may land in the directory before it is watched.
					scheduleReconcile()
					continue
				}
			}

			if !lookml.SupportedExt(absPath) || isHidden(root, absPath) {
				continue
			}
			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				kind := EventUpdated
				if _, seen := known[rel]; !seen {
					kind = EventCreated
				}
				known[rel] = ""
				logger.Debug("watcher: changed", slog.String("path", rel), slog.String("op", kind))
				emit(kind, rel)

			case ev.Op&fsnotify.Remove != 0:
				delete(known, rel)
				logger.Debug("watcher: deleted", slog.String("path", rel))
				emit(EventDeleted, rel)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports Rename on the old name only.
				delete(known, rel)
				emit(EventDeleted, rel)
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

func snapshot(files Lister, logger *slog.Logger) map[string]string {
	known := make(map[string]string)
	list, err := files.List("")
	if err != nil {
		logger.Warn("watcher: initial list failed", slog.String("error", err.Error()))
		return known
	}
	for _, f := range list {
		known[f.Path] = f.Checksum
	}
	return known
}

// reconcile compares known against the files on disk and reports the
// difference.
func reconcile(files Lister, known map[string]string, logger *slog.Logger, emit EventCallback) {
	list, err := files.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}
	disk := make(map[string]string, len(list))
	for _, f := range list {
		disk[f.Path] = f.Checksum
	}
	for p := range known {
		if _, ok := disk[p]; !ok {
			delete(known, p)
			emit(EventDeleted, p)
		}
	}
	for _, f := range list {
		cs, seen := known[f.Path]
		known[f.Path] = f.Checksum
		switch {
		case !seen:
			emit(EventCreated, f.Path)
		case cs != "" && cs != f.Checksum:
			emit(EventUpdated, f.Path)
		}
	}
}

func isHidden(root, absPath string) bool {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
