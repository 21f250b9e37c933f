// SPDX-License-Identifier: MPL-2.0

// Package watch calls back after files below a directory change.
//
// Events are filtered with doublestar patterns relative to the watched
// directory and coalesced: the callback runs once the directory has been
// quiet for the debounce period, with the sorted set of changed paths.
// Callbacks run on the event loop, so they never overlap; events that arrive
// meanwhile are delivered with the next callback.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is not set.
const DefaultDebounce = 300 * time.Millisecond

var (
	// ErrInvalidPattern is returned for malformed watch or ignore patterns.
	ErrInvalidPattern = errors.New("invalid watch pattern")
	// ErrAlreadyRunning is returned when Run is called a second time.
	ErrAlreadyRunning = errors.New("watcher is already running")

	defaultIgnores = []string{
		"**/.git/**",
		"**/*.swp",
		"**/*~",
		"**/.DS_Store",
	}
)

type (
	// Config configures a Watcher.
	Config struct {
		// Dir is the directory to watch recursively. Defaults to ".".
		Dir string
		// Patterns select the files whose changes are reported. No patterns
		// selects every file.
		Patterns []string
		// Ignore excludes files and directories; it is merged with a few
		// built-in patterns for VCS metadata and editor files.
		Ignore []string
		// Debounce is the quiet period before OnChange runs.
		Debounce time.Duration
		// OnChange receives the changed paths, relative to Dir and slash
		// separated. Its errors are logged and do not stop the watcher.
		OnChange func(ctx context.Context, changed []string) error
		Logger   *log.Logger
	}

	// Watcher watches a directory tree. Run must be called at most once.
	Watcher struct {
		cfg     Config
		dir     string
		ignores []string
		fsw     *fsnotify.Watcher
		logger  *log.Logger
		started atomic.Bool
	}

	// InvalidPatternError wraps ErrInvalidPattern.
	InvalidPatternError struct {
		Pattern string
	}
)

// Error implements the error interface.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid watch pattern %q", e.Pattern)
}

// Unwrap returns ErrInvalidPattern.
func (e *InvalidPatternError) Unwrap() error { return ErrInvalidPattern }

// New validates cfg and registers every directory below cfg.Dir that is not
// ignored.
func New(cfg Config) (*Watcher, error) {
	for _, p := range slices.Concat(cfg.Patterns, cfg.Ignore) {
		if err := validatePattern(p); err != nil {
			return nil, err
		}
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve directory: %w", err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &Watcher{
		cfg:     cfg,
		dir:     dir,
		ignores: slices.Concat(defaultIgnores, cfg.Ignore),
		fsw:     fsw,
		logger:  logger,
	}
	if err := w.addTree(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// validatePattern checks each path segment of a doublestar pattern.
func validatePattern(pattern string) error {
	for _, segment := range strings.Split(pattern, "/") {
		if segment == "**" {
			continue
		}
		if _, err := path.Match(segment, ""); err != nil {
			return &InvalidPatternError{Pattern: pattern}
		}
	}
	return nil
}

// Run processes events until ctx is done. It returns nil on cancellation and
// an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("closing file watcher", "error", err)
		}
	}()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			rel := w.rel(evt.Name)
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name, rel)
			}
			if !w.selected(rel) {
				continue
			}
			w.logger.Debug("file changed", "path", rel, "op", evt.Op.String())
			pending[rel] = struct{}{}
			timer.Reset(w.cfg.Debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)
			if w.cfg.OnChange == nil {
				continue
			}
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("change handler failed", "changed", changed, "error", err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: %w", err)
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping inaccessible path", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(w.rel(p) + "/") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", root, err)
	}
	return nil
}

// maybeAddDir extends the watch to directories created after startup.
func (w *Watcher) maybeAddDir(name, rel string) {
	info, err := os.Stat(name)
	if err != nil || !info.IsDir() || w.ignored(rel+"/") {
		return
	}
	if err := w.addTree(name); err != nil {
		w.logger.Warn("cannot watch new directory", "path", rel, "error", err)
	}
}

// rel returns name relative to the watched directory, slash separated.
func (w *Watcher) rel(name string) string {
	rel, err := filepath.Rel(w.dir, name)
	if err != nil {
		return filepath.ToSlash(name)
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) ignored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) selected(rel string) bool {
	if w.ignored(rel) {
		return false
	}
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
