// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs injections when files matching their glob patterns
// change.
//
// Events are debounced: everything that arrives within the quiet period is
// coalesced into one callback carrying the sorted set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/specsync/specsync/pkg/inject"
)

const defaultDebounce = 300 * time.Millisecond

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

// defaultIgnores are never watched: VCS metadata, dependency trees, editor
// swap files and the temp files specsync itself writes before renaming.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
	"**/.*.tmp-*",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Patterns select which files trigger callbacks. They use the same
		// syntax as injection patterns, so "./specs/*.spec.js" is accepted.
		// An empty slice matches every non-ignored file.
		Patterns []string

		// Ignore is merged with the built-in ignores.
		Ignore []string

		// Debounce is the quiet period after the last event. Zero or negative
		// falls back to 300ms.
		Debounce time.Duration

		// ClearScreen writes an ANSI clear sequence to Stdout before each
		// callback.
		ClearScreen bool

		// BaseDir is the watched root. Empty means the working directory.
		BaseDir string

		// OnChange receives the changed paths, slash-separated and relative
		// to BaseDir.
		OnChange func(ctx context.Context, changed []string) error

		Stdout io.Writer
		Logger *log.Logger
	}

	// Watcher monitors BaseDir recursively. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		patterns []string
		ignores  []string
		stdout   io.Writer
		logger   *log.Logger
		debounce time.Duration
		baseDir  string
		started  atomic.Bool
	}
)

// New validates cfg and registers every non-ignored directory under BaseDir.
func New(cfg Config) (*Watcher, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	patterns := make([]string, 0, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		norm, err := inject.NormalizePattern(p)
		if err != nil {
			return nil, fmt.Errorf("watch: %w", err)
		}
		patterns = append(patterns, norm)
	}
	for _, p := range cfg.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("watch: %w", &inject.InvalidPatternError{Pattern: p, Reason: "invalid ignore pattern"})
		}
	}

	w := &Watcher{
		cfg:      cfg,
		patterns: patterns,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		stdout:   cfg.Stdout,
		logger:   cfg.Logger,
		debounce: cfg.Debounce,
		baseDir:  absBase,
	}
	if w.stdout == nil {
		w.stdout = os.Stdout
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}

	w.fsw, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := w.addDirectories(); err != nil {
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("close after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is canceled, which is a clean exit.
// Callbacks never overlap: a debounce that fires while the previous callback
// is still running is postponed by another debounce period.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		busy    atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !busy.CompareAndSwap(false, true) {
			w.logger.Debug("previous run still in progress, postponing")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer busy.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.ClearScreen {
			fmt.Fprint(w.stdout, "\033[2J\033[H")
		}
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("re-run failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			// Permission and timestamp changes do not alter file lists.
			if evt.Op == fsnotify.Chmod {
				continue
			}
			var changed []string
			if evt.Has(fsnotify.Create) {
				changed = w.addNewDir(evt.Name)
			}
			if rel, ok := w.relevant(evt.Name); ok {
				changed = append(changed, rel)
			}
			if len(changed) == 0 {
				continue
			}
			w.logger.Debug("change", "path", evt.Name, "op", evt.Op.String(), "matches", len(changed))

			mu.Lock()
			for _, rel := range changed {
				pending[rel] = struct{}{}
			}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// relevant returns the slash-separated path of name relative to BaseDir when
// it is neither ignored nor excluded by Patterns.
func (w *Watcher) relevant(name string) (string, bool) {
	rel, err := filepath.Rel(w.baseDir, name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if w.ignored(rel) {
		return "", false
	}
	if len(w.patterns) > 0 && !inject.MatchesAny(w.patterns, rel) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) addDirectories() error {
	err := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable directories are skipped rather than aborting the walk.
			w.logger.Warn("skipping inaccessible path", "path", path, "err", walkErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.baseDir, path)
		if err != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}
		if w.ignoredDir(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk directory tree: %w", err)
	}
	return nil
}

// addNewDir extends the watch to a directory created or moved in after
// startup, subdirectories included. Files already inside emit no events of
// their own, so the relevant ones are returned as changes.
func (w *Watcher) addNewDir(path string) []string {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil
	}

	var found []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", p, "err", walkErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			if rel, ok := w.relevant(p); ok {
				found = append(found, rel)
			}
			return nil
		}
		rel, err := filepath.Rel(w.baseDir, p)
		if err != nil || w.ignoredDir(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			w.logger.Warn("add new directory", "path", p, "err", err)
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("walk new directory", "path", path, "err", err)
	}
	return found
}

func (w *Watcher) ignoredDir(rel string) bool {
	rel = filepath.ToSlash(rel)
	return w.ignored(rel) || w.ignored(rel+"/")
}

func (w *Watcher) ignored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}
