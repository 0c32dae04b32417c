// Package watch regenerates the vault snapshot when notes change on disk.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change kinds passed to EventCallback.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// EventCallback is called for every Markdown change, with the path relative
// to the vault root.
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the vault root and processes change
// events until ctx is cancelled. Every .md change is reported to onNote (if
// non-nil) and schedules run; bursts of changes within debounce collapse into
// a single run. Removing or renaming anything else (a folder of notes moved
// out of the vault) also schedules run, except for output, the vault-relative
// file run itself writes, and hidden names such as atomic-write temp files.
//
// New directories created at runtime are added to the watch list. Hidden
// directories (.obsidian, .trash, ...) are never watched.
func Watch(ctx context.Context, vaultRoot, output string, debounce time.Duration, logger *slog.Logger, onNote EventCallback, run func(context.Context)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var runTimer *time.Timer
	var runCh <-chan time.Time

	scheduleRun := func() {
		if runTimer == nil {
			runTimer = time.NewTimer(debounce)
			runCh = runTimer.C
		} else {
			runTimer.Reset(debounce)
		}
	}

	notify := func(kind, rel string) {
		logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", kind))
		if onNote != nil {
			onNote(kind, rel)
		}
		scheduleRun()
	}

	for {
		select {
		case <-ctx.Done():
			if runTimer != nil {
				runTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-runCh:
			run(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if hidden(info.Name()) {
						continue
					}
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					// Notes may have landed before the watch was in place.
					scheduleRun()
					continue
				}
			}

			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			if !strings.HasSuffix(absPath, ".md") {
				// The entry is gone, so there is no telling whether it held notes.
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 &&
					rel != output && !hidden(filepath.Base(absPath)) {
					logger.Debug("watcher: entry removed", slog.String("path", rel))
					scheduleRun()
				}
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				notify(KindCreated, rel)
			case ev.Op&fsnotify.Write != 0:
				notify(KindUpdated, rel)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// fsnotify reports Rename on the old path; the new path
				// arrives as a separate Create.
				notify(KindDeleted, rel)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
