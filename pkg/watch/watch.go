// Package watch re-runs a job when files change.
//
// Editors save in bursts (write, chmod, rename over the original), so events
// are collected until the files have been quiet for the debounce period and
// then handed to the job as one batch. The parent directories are watched
// rather than the files themselves, which keeps the watch alive when a file
// is replaced by rename.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when none is set.
const DefaultDebounce = 200 * time.Millisecond

// Job is run once on start and again after every burst of changes. changed
// is nil for the initial run.
type Job func(ctx context.Context, changed []string) error

// Watcher watches a fixed set of files.
type Watcher struct {
	files    map[string]bool
	dirs     []string
	Debounce time.Duration
	Logger   *log.Logger
}

// New watches the given files. Paths are made absolute.
func New(logger *log.Logger, files ...string) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("watch: no files")
	}
	if logger == nil {
		logger = log.Default()
	}
	w := &Watcher{files: make(map[string]bool), Debounce: DefaultDebounce, Logger: logger}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", f, err)
		}
		w.files[abs] = true
		if dir := filepath.Dir(abs); !slices.Contains(w.dirs, dir) {
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Run runs job, then watches until ctx is canceled. Job errors are logged
// and do not stop the watch. Run returns nil when ctx is canceled.
func (w *Watcher) Run(ctx context.Context, job Job) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()
	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.run(ctx, job, nil)
	w.Logger.Info("watching for changes", "files", len(w.files))

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.Logger.Debug("change", "file", ev.Name, "op", ev.Op.String())
			pending[filepath.Clean(ev.Name)] = true
			timer.Reset(debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for f := range pending {
				changed = append(changed, f)
			}
			slices.Sort(changed)
			clear(pending)
			w.run(ctx, job, changed)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Error("watcher error", "err", err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !w.files[filepath.Clean(ev.Name)] {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) run(ctx context.Context, job Job, changed []string) {
	if err := job(ctx, changed); err != nil && ctx.Err() == nil {
		w.Logger.Error("run failed", "err", err)
	}
}
