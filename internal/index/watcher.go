package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/pantry/internal/storage"
)

// Kind names a catalogue change made by the watcher.
type Kind string

// Catalogue change kinds.
const (
	Created Kind = "created"
	Updated Kind = "updated"
	Deleted Kind = "deleted"
)

// EventCallback is called after each catalogue change made by Watch.
type EventCallback func(kind Kind, path string)

// reconcileDelay is the quiet window after a rename before the catalogue is
// compared against the disk.
const reconcileDelay = 200 * time.Millisecond

// Watch follows changes under root until ctx is cancelled. Directories
// created at runtime are watched too. Renames delete the old entry at once
// and schedule a reconciliation pass that picks up the new name.
func (ix *Indexer) Watch(ctx context.Context, root string, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := watchTree(w, root); err != nil {
		return err
	}
	ix.logger.Info("watcher: started", slog.String("root", root))

	notify := func(kind Kind, path string) {
		if cb != nil {
			cb(kind, path)
		}
	}

	var (
		reconcile   *time.Timer
		reconcileCh <-chan time.Time
	)
	defer func() {
		if reconcile != nil {
			reconcile.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			ix.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			ix.reconcile(notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := watchTree(w, ev.Name); err != nil {
						ix.logger.Warn("watcher: add dir failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
					}
					ix.captureTree(root, ev.Name, notify)
					continue
				}
			}

			if !storage.IsPage(ev.Name) {
				continue
			}
			rel, err := filepath.Rel(root, ev.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
				n, err := ix.Capture(rel)
				if err != nil {
					ix.logger.Warn("watcher: capture failed", slog.String("path", rel), slog.String("error", err.Error()))
					continue
				}
				kind := Updated
				if ev.Has(fsnotify.Create) {
					kind = Created
				}
				ix.logger.Debug("watcher: captured", slog.String("path", rel), slog.String("op", string(kind)), slog.Int("records", n))
				notify(kind, rel)

			case ev.Has(fsnotify.Remove):
				if err := ix.cat.DeletePage(rel); err != nil {
					ix.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
					continue
				}
				notify(Deleted, rel)

			case ev.Has(fsnotify.Rename):
				// The new name arrives as a separate Create, or not at all
				// when the file leaves the tree.
				if err := ix.cat.DeletePage(rel); err != nil {
					ix.logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", err.Error()))
				} else {
					notify(Deleted, rel)
				}
				if reconcile == nil {
					reconcile = time.NewTimer(reconcileDelay)
					reconcileCh = reconcile.C
				} else {
					reconcile.Reset(reconcileDelay)
				}
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			ix.logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// reconcile removes catalogue entries with no file on disk and captures
// files the catalogue does not know about yet.
func (ix *Indexer) reconcile(notify EventCallback) {
	known, err := ix.cat.AllChecksums()
	if err != nil {
		ix.logger.Warn("reconcile: checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := ix.store.List("")
	if err != nil {
		ix.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range known {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := ix.cat.DeletePage(p); err == nil {
			notify(Deleted, p)
		}
	}
	for p, cs := range disk {
		prev, seen := known[p]
		if prev == cs {
			continue
		}
		if _, err := ix.Capture(p); err != nil {
			continue
		}
		if seen {
			notify(Updated, p)
		} else {
			notify(Created, p)
		}
	}
}

// captureTree captures pages already present in a newly created directory.
func (ix *Indexer) captureTree(root, dir string, notify EventCallback) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsPage(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if _, err := ix.Capture(rel); err == nil {
			notify(Created, rel)
		}
		return nil
	})
}

// watchTree adds root and every directory below it to w.
func watchTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
