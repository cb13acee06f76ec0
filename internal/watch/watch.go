// Package watch notices library volumes, the prefixes root and the shortcut
// file changing, and reports each burst of changes once.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/joe/nexus-library/internal/config"
)

// DefaultDebounce is how long the watcher waits for a burst to settle.
const DefaultDebounce = 2 * time.Second

// ChangeFunc is called once per settled burst of changes.
type ChangeFunc func(ctx context.Context)

// Watcher watches a set of roots. A root that does not exist yet, such as
// an unmounted volume, is watched through its nearest existing ancestor so
// that its appearance is noticed.
type Watcher struct {
	roots    []string
	debounce time.Duration
	onChange ChangeFunc
	logger   zerolog.Logger

	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	watched map[string]bool
}

// RootsFor returns the directories the CLI watches: every library, the local
// prefixes root and the directory of the shortcut file.
func RootsFor(settings *config.Settings) []string {
	roots := make([]string, 0, len(settings.Local.Libraries)+2) //nolint:mnd // prefixes and shortcuts

	for _, lib := range settings.Local.Libraries {
		roots = append(roots, lib.Path)
	}

	if settings.Local.PrefixesPath != "" {
		roots = append(roots, settings.Local.PrefixesPath)
	}

	if settings.Steam.UserConfigPath != "" {
		roots = append(roots, filepath.Dir(settings.ShortcutsPath()))
	}

	return roots
}

// New creates a Watcher. Call Run to start it.
func New(roots []string, debounce time.Duration, onChange ChangeFunc, logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	cleaned := make([]string, 0, len(roots))
	for _, root := range roots {
		if root != "" {
			cleaned = append(cleaned, filepath.Clean(root))
		}
	}

	return &Watcher{
		roots:    cleaned,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		fsw:      fsw,
		watched:  map[string]bool{},
	}, nil
}

// Watched returns the directories currently registered with fsnotify.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.watched))
	for dir := range w.watched {
		out = append(out, dir)
	}

	return out
}

// Run watches until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	w.refresh()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}

			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if !w.relevant(event.Name) {
				continue
			}

			w.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("change observed")

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}

			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn().Err(err).Msg("file watcher error")
		case <-fire:
			fire = nil

			w.refresh()
			w.onChange(ctx)
		}
	}
}

// refresh drops directories that disappeared and watches each root, or its
// nearest existing ancestor.
func (w *Watcher) refresh() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for dir := range w.watched {
		if !isDir(dir) {
			_ = w.fsw.Remove(dir)
			delete(w.watched, dir)
		}
	}

	for _, root := range w.roots {
		target := nearestExisting(root)
		if target == "" || w.watched[target] {
			continue
		}

		if err := w.fsw.Add(target); err != nil {
			w.logger.Warn().Err(err).Str("path", target).Msg("cannot watch directory")
			continue
		}

		w.watched[target] = true
		w.logger.Debug().Str("root", root).Str("path", target).Msg("watching")
	}
}

// relevant reports whether name lies on the way to a root or inside one.
func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	sep := string(filepath.Separator)

	for _, root := range w.roots {
		if name == root || strings.HasPrefix(root, name+sep) || strings.HasPrefix(name, root+sep) {
			return true
		}
	}

	return false
}

func nearestExisting(dir string) string {
	for {
		if isDir(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}

		dir = parent
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.IsDir()
}
