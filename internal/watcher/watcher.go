package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/mzolotukhin/daybook/internal/store"
	"github.com/mzolotukhin/daybook/pkg/wavinfo"
)

// Recording filenames encode the capture time.
const filenameLayout = "2006-01-02_15-04-05"

// Start scans the existing tree, re-enqueues pending fragments from a
// previous run, then monitors for new files. A file is ingested once
// its size and mtime have been stable for the configured window, so
// recordings still being written are left alone.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info("watcher started",
		"dir", w.cfg.Paths.Recordings,
		"stability_window", w.cfg.StabilityWindow(),
		"rescan_interval", w.cfg.RescanInterval())

	w.scan(ctx, w.cfg.Paths.Recordings)
	w.reenqueuePending(ctx)

	ticker := time.NewTicker(w.cfg.RescanInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("watcher error", "err", err)

		case <-ticker.C:
			w.scan(ctx, w.cfg.Paths.Recordings)
			w.sweep(ctx)
			w.reenqueuePending(ctx)
		}
	}
}

func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *implWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Removed or renamed before we got to it.
		return
	}

	if info.IsDir() {
		// Recordings land in per-day subdirectories created at runtime.
		if err := w.watcher.Add(event.Name); err != nil {
			w.logger.Error("failed to watch new directory", "dir", event.Name, "err", err)
		}
		w.scan(ctx, event.Name)
		return
	}

	if isRecording(event.Name) && !w.ingested[event.Name] {
		w.track(event.Name, info)
	}
}

// scan walks dir recursively, watching new subdirectories and tracking
// every recording not yet ingested.
func (w *implWatcher) scan(ctx context.Context, dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != dir {
				if err := w.watcher.Add(path); err != nil {
					w.logger.Error("failed to watch new directory", "dir", path, "err", err)
				}
			}
			return nil
		}
		if !isRecording(path) || w.ingested[path] {
			return nil
		}
		if info, err := d.Info(); err == nil {
			w.track(path, info)
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		w.logger.Error("scan failed", "dir", dir, "err", err)
	}
}

// track records the file's current size and mtime. Any change restarts
// the stability window.
func (w *implWatcher) track(path string, info os.FileInfo) {
	c, ok := w.candidates[path]
	if !ok {
		w.candidates[path] = &candidate{size: info.Size(), modTime: info.ModTime(), since: w.now()}
		w.logger.Debug("tracking new file", "path", path, "size", info.Size())
		return
	}
	if c.size != info.Size() || !c.modTime.Equal(info.ModTime()) {
		c.size = info.Size()
		c.modTime = info.ModTime()
		c.since = w.now()
	}
}

// sweep promotes candidates whose stability window has elapsed.
func (w *implWatcher) sweep(ctx context.Context) {
	now := w.now()
	for path, c := range w.candidates {
		info, err := os.Stat(path)
		if err != nil {
			delete(w.candidates, path)
			continue
		}
		if c.size != info.Size() || !c.modTime.Equal(info.ModTime()) {
			c.size = info.Size()
			c.modTime = info.ModTime()
			c.since = now
			continue
		}
		if now.Sub(c.since) < w.cfg.StabilityWindow() {
			continue
		}

		delete(w.candidates, path)
		if err := w.ingest(ctx, path, info); err != nil {
			w.logger.Error("ingest failed", "path", path, "err", err)
		}
	}
}

// ingest registers a stable recording and enqueues it for transcription.
// Files whose names do not encode a capture time are skipped for good;
// any other failure leaves the path un-ingested so the next scan
// re-tracks and retries it.
func (w *implWatcher) ingest(ctx context.Context, path string, info os.FileInfo) error {
	recordedAt, err := parseRecordedAt(filepath.Base(path))
	if err != nil {
		w.ingested[path] = true
		w.logger.Warn("skipping file with unparsable name", "path", path, "err", err)
		return nil
	}

	duration, err := wavinfo.Duration(path)
	if err != nil {
		return fmt.Errorf("probe duration: %w", err)
	}

	date := recordedAt.Format("2006-01-02")
	if _, err := w.store.GetOrCreateDay(ctx, date); err != nil {
		return fmt.Errorf("ensure day: %w", err)
	}

	fr := &store.Fragment{
		ID:              uuid.New(),
		DayDate:         date,
		SourceFilename:  filepath.Base(path),
		FilePath:        path,
		FileSizeBytes:   info.Size(),
		RecordedAt:      recordedAt,
		DurationSeconds: duration,
		State:           store.StatePending,
	}

	persisted, created, err := w.store.CreateFragmentIfAbsent(ctx, fr)
	if err != nil {
		return fmt.Errorf("register fragment: %w", err)
	}
	w.ingested[path] = true
	if !created {
		w.logger.Debug("fragment already registered", "file", fr.SourceFilename)
		if persisted.State != store.StatePending {
			return nil
		}
	} else {
		w.logger.Info("new recording registered",
			"file", fr.SourceFilename, "day", date, "duration", duration)
	}

	w.enqueuer.Enqueue(persisted.ID)
	return nil
}

// reenqueuePending re-submits fragments left pending, e.g. after a
// restart or a dropped enqueue. Claims make duplicates harmless.
func (w *implWatcher) reenqueuePending(ctx context.Context) {
	pending, err := w.store.FragmentsByState(ctx, store.StatePending)
	if err != nil {
		w.logger.Error("failed to list pending fragments", "err", err)
		return
	}
	for _, fr := range pending {
		w.enqueuer.Enqueue(fr.ID)
	}
}

func isRecording(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

func parseRecordedAt(filename string) (time.Time, error) {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	t, err := time.ParseInLocation(filenameLayout, name, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("filename %q does not match %s: %w", filename, filenameLayout, err)
	}
	return t, nil
}
