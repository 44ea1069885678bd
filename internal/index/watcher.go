package index

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notecal/internal/checksum"
	"github.com/starford/notecal/internal/storage"
)

// Watcher defaults.
const (
	DefaultDebounce   = 200 * time.Millisecond
	DefaultRetryDelay = 2 * time.Second
	DefaultMaxRetries = 3
)

// PathFilter decides which paths the watcher reacts to.
type PathFilter interface {
	// Matches reports whether the file at abs is a note.
	Matches(abs string) bool
	// Excluded reports whether the directory at abs should not be watched.
	Excluded(abs string) bool
}

// WatchParams configures Watch.
type WatchParams struct {
	Root      string
	Rescanner *Rescanner
	Filter    PathFilter
	Logger    *slog.Logger

	Debounce   time.Duration
	RetryDelay time.Duration
	MaxRetries int

	// Ready, when non-nil, is closed once the initial watch list is set up.
	Ready chan<- struct{}
}

func (p *WatchParams) defaults() {
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.Debounce <= 0 {
		p.Debounce = DefaultDebounce
	}
	if p.RetryDelay <= 0 {
		p.RetryDelay = DefaultRetryDelay
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
}

// Watch starts an fsnotify watcher on the workspace root and rescans after
// note changes until ctx is cancelled. Bursts of events are coalesced into
// one rescan per debounce window, and writes that leave a file's content
// unchanged are ignored. When a rescan could not read some files it is
// retried after RetryDelay, up to MaxRetries times.
//
// New directories created at runtime are automatically added to the watch
// list unless the filter excludes them.
func Watch(ctx context.Context, p WatchParams) error {
	if p.Rescanner == nil || p.Filter == nil {
		return errors.New("index: watch: rescanner and filter are required")
	}
	p.defaults()
	logger := p.Logger

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, p.Root, p.Filter); err != nil {
		return err
	}
	if p.Ready != nil {
		close(p.Ready)
	}

	logger.Info("watcher: started", slog.String("root", p.Root))

	sums := checksum.NewTracker()
	retries := 0

	var timer *time.Timer
	var timerC <-chan time.Time
	schedule := func(d time.Duration) {
		if timer == nil {
			timer = time.NewTimer(d)
			timerC = timer.C
		} else {
			timer.Reset(d)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerC:
			snap, scanErr := p.Rescanner.Rescan(ctx)
			if scanErr != nil {
				if ctx.Err() != nil {
					continue
				}
				logger.Warn("watcher: rescan failed", slog.String("error", scanErr.Error()))
				continue
			}
			if snap.Stats.ReadFailures > 0 && retries < p.MaxRetries {
				retries++
				logger.Debug("watcher: retrying after read failures",
					slog.Int("read_failures", snap.Stats.ReadFailures),
					slog.Int("attempt", retries))
				schedule(p.RetryDelay)
				continue
			}
			retries = 0

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if handleEvent(w, ev, p.Filter, sums, logger) {
				schedule(p.Debounce)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// handleEvent updates watcher state for ev and reports whether a rescan is needed.
func handleEvent(w *fsnotify.Watcher, ev fsnotify.Event, filter PathFilter, sums *checksum.Tracker, logger *slog.Logger) bool {
	absPath := ev.Name

	// New directories: add to watcher and rescan for any notes already inside.
	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
			if filter.Excluded(absPath) {
				return false
			}
			if addErr := addDirsRecursive(w, absPath, filter); addErr != nil {
				logger.Warn("watcher: add new dir failed",
					slog.String("path", absPath),
					slog.String("error", addErr.Error()))
			} else {
				logger.Debug("watcher: watching new dir", slog.String("path", absPath))
			}
			return true
		}
	}

	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		sums.Forget(absPath)
		// A removed directory can no longer be stat'ed; treat extensionless
		// names as directories that may have held notes.
		return filter.Matches(absPath) || filepath.Ext(absPath) == ""
	}

	if !filter.Matches(absPath) {
		return false
	}

	if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		sum, sumErr := checksum.SumFile(absPath)
		if sumErr != nil {
			// Vanished or unreadable: let the rescan sort it out.
			return true
		}
		if !sums.Changed(absPath, sum) && ev.Op&fsnotify.Create == 0 {
			logger.Debug("watcher: content unchanged", slog.String("path", absPath))
			return false
		}
		return true
	}
	return false
}

// addDirsRecursive adds root and all its non-excluded subdirectories to the
// watcher, following symlinked directories.
func addDirsRecursive(w *fsnotify.Watcher, root string, filter PathFilter) error {
	return storage.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && filter.Excluded(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
