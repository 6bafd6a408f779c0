// Package watch re-runs the gate when project files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/igianni84/woo-ai-assistant-sub003/internal/gate"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/ignore"
	"github.com/igianni84/woo-ai-assistant-sub003/internal/logging"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// Runner performs one evaluation.
type Runner func(ctx context.Context) (*gate.PhaseResult, error)

// Event is the outcome of one triggered evaluation.
type Event struct {
	// Changed lists the root-relative paths that triggered the run. It is
	// empty for the initial run.
	Changed []string
	Result  *gate.PhaseResult
	Err     error
}

// Handler is told when an evaluation starts and when it finishes. Calls
// come from the goroutine running Watcher.Run, one evaluation at a time.
type Handler interface {
	Started(changed []string)
	Finished(ev Event)
}

// Options configures a Watcher.
type Options struct {
	Root string
	// Ignore filters root-relative paths; matching files never trigger a
	// run and matching directories are not watched.
	Ignore *ignore.Matcher
	// Debounce is the quiet period after the last change before a run.
	Debounce time.Duration
	// MinInterval is the minimum time between run starts. Zero means no
	// limit.
	MinInterval time.Duration
}

// Watcher watches a project tree and runs evaluations sequentially.
type Watcher struct {
	opts    Options
	run     Runner
	fsw     *fsnotify.Watcher
	limiter *rate.Limiter
}

// New creates a watcher over opts.Root. Close releases it.
func New(opts Options, run Runner) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	w := &Watcher{
		opts:    opts,
		run:     run,
		fsw:     fsw,
		limiter: rate.NewLimiter(limit, 1),
	}
	if err := w.addTree(opts.Root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// addTree watches dir and every directory below it that is not ignored.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories can vanish between the event and the walk.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.opts.Root && (d.Name() == ".git" || w.opts.Ignore.MatchDir(w.rel(p))) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) rel(p string) string {
	rel, err := filepath.Rel(w.opts.Root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// relevant reports whether a filesystem event should trigger a run.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	rel := w.rel(ev.Name)
	if rel == ".git" || filepath.Base(filepath.Dir(ev.Name)) == ".git" {
		return false
	}
	return !w.opts.Ignore.Match(rel)
}

// Run evaluates once immediately, then after every debounced batch of
// changes, until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, h Handler) error {
	logger := logging.FromContext(ctx)

	if err := w.limiter.Wait(ctx); err != nil {
		return nil
	}
	w.evaluate(ctx, h, nil)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !w.opts.Ignore.MatchDir(w.rel(ev.Name)) {
					if err := w.addTree(ev.Name); err != nil {
						logger.Warn(ctx, "cannot watch new directory", zap.String("dir", ev.Name), zap.Error(err))
					}
				}
			}
			if !w.relevant(ev) {
				continue
			}
			logger.Trace(ctx, "file changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			pending[w.rel(ev.Name)] = true
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn(ctx, "watcher error", zap.Error(err))

		case <-timer.C:
			if err := w.limiter.Wait(ctx); err != nil {
				return nil
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = map[string]bool{}
			w.evaluate(ctx, h, changed)
		}
	}
}

func (w *Watcher) evaluate(ctx context.Context, h Handler, changed []string) {
	h.Started(changed)
	res, err := w.run(ctx)
	h.Finished(Event{Changed: changed, Result: res, Err: err})
}
