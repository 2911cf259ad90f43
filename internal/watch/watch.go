// pattern: Imperative Shell

package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"rosdex/internal/discovery"
	"rosdex/internal/logging"
)

// defaultDebounce batches the event bursts a build or checkout produces
// into a single rebuild.
const defaultDebounce = 500 * time.Millisecond

// Watcher keeps a node index in sync with a workspace tree. fsnotify
// watches are per-directory, not recursive, so every directory under the
// search root is registered up front (excluded ones skipped) and
// directories created later are added as their create events arrive.
type Watcher struct {
	searchDir string
	matcher   *discovery.Matcher
	rebuild   func() error
	debounce  time.Duration
	logger    *logging.ScopedLogger
	fsw       *fsnotify.Watcher
}

// New creates a watcher over searchDir. rebuild is invoked after each
// debounced batch of filesystem events; it is expected to re-run discovery
// and rewrite the index only when the records changed.
func New(searchDir string, matcher *discovery.Matcher, rebuild func() error, logger *logging.ScopedLogger) (*Watcher, error) {
	if matcher == nil {
		matcher = discovery.NewMatcher(nil)
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		searchDir: searchDir,
		matcher:   matcher,
		rebuild:   rebuild,
		debounce:  defaultDebounce,
		logger:    logger,
		fsw:       fsw,
	}

	if err := w.addTree(searchDir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// addTree registers watches for dir and every subdirectory, skipping
// excluded names. Unreadable directories are skipped, matching the
// traversal's failure semantics.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.matcher.IsExcludedName(d.Name()) {
			return fs.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			w.logger.Debug("failed to watch directory", "dir", path, "error", addErr)
		}
		return nil
	})
}

// Run processes events until ctx is canceled. Rebuilds are debounced;
// individual watch errors are logged and never stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if !w.matcher.IsExcludedName(filepath.Base(ev.Name)) {
						_ = w.addTree(ev.Name)
					}
				}
			}
			w.logger.Debug("filesystem event", "op", ev.Op.String(), "path", ev.Name)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			if err := w.rebuild(); err != nil {
				w.logger.Error("index rebuild failed", "error", err)
			}
		}
	}
}
