// Package reconcile merges catalog records, shortcut entries and the local
// filesystem into one view of the library.
package reconcile

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/config"
	"github.com/joe/nexus-library/internal/launcher"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// Reconciler builds GameMaps. Records are authoritative for catalog fields,
// the filesystem for resolved paths, and shortcut entries only for titles
// the catalog does not know.
type Reconciler struct {
	libraries    []config.Library
	prefixesPath string
	fs           filesystem.TreeFS
	logger       zerolog.Logger
}

// New creates a Reconciler resolving paths against libraries and
// prefixesPath on fs.
func New(libraries []config.Library, prefixesPath string, fs filesystem.TreeFS, logger zerolog.Logger) *Reconciler {
	return &Reconciler{libraries: libraries, prefixesPath: prefixesPath, fs: fs, logger: logger}
}

// Merge combines records and entries. Record items come first in record
// order, followed by shortcut-only items in file order.
func (r *Reconciler) Merge(records []catalog.Record, entries []catalog.ShortcutEntry) *GameMap {
	byID := make(map[string]catalog.ShortcutEntry, len(entries))
	for _, entry := range entries {
		if entry.AppID != "" {
			byID[entry.AppID] = entry
		}
	}

	games := NewGameMap()

	for _, record := range records {
		item := catalog.ItemFromRecord(record)

		if entry, ok := byID[item.ID]; ok {
			item.LocalState.LastRenderedTitle = entry.AppName
			item.IconPath = entry.IconPath
			delete(byID, item.ID)
		}

		r.Resolve(item)
		games.Put(item)
	}

	for _, entry := range entries {
		if _, pending := byID[entry.AppID]; !pending {
			continue
		}

		delete(byID, entry.AppID)

		item := r.fromShortcut(entry)
		r.Resolve(item)
		games.Put(item)
	}

	r.logger.Debug().Int("records", len(records)).Int("shortcuts", len(entries)).Int("items", games.Len()).Msg("library merged")

	return games
}

func (r *Reconciler) fromShortcut(entry catalog.ShortcutEntry) *catalog.GameItem {
	return &catalog.GameItem{
		ID:           entry.AppID,
		Title:        entry.AppName,
		ExeTarget:    entry.Exe,
		StartDir:     entry.StartDir,
		LaunchArgs:   entry.LaunchOptions,
		Source:       catalog.SourceShortcutOnly,
		Launcher:     launcher.NOOP,
		Status:       catalog.StatusDraft,
		GameLocation: r.InferGameLocation(entry.StartDir),
		IconPath:     entry.IconPath,
	}
}

// InferGameLocation returns the first path component below the library
// containing startDir, or "" when no library does.
func (r *Reconciler) InferGameLocation(startDir string) string {
	dir := filepath.Clean(launcher.Unquote(startDir))
	if !filepath.IsAbs(dir) {
		return ""
	}

	for _, lib := range r.libraries {
		root := filepath.Clean(lib.Path)

		rel, err := filepath.Rel(root, dir)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}

		return strings.Split(rel, string(filepath.Separator))[0]
	}

	return ""
}

// Resolve sets the real local paths of item from what exists on disk.
func (r *Reconciler) Resolve(item *catalog.GameItem) {
	item.RealLocalGamePath = r.GamePath(item.GameLocation)
	item.RealLocalPrefixPath = ""

	if filesystem.ValidLocation(item.PrefixLocation) && r.prefixesPath != "" {
		prefix := filepath.Join(r.prefixesPath, item.PrefixLocation)
		if filesystem.Below(r.prefixesPath, prefix) && filesystem.Exists(r.fs, prefix) {
			item.RealLocalPrefixPath = prefix
		}
	}
}

// GamePath returns the first library path holding location. Locations that
// would resolve to a library root or outside it never match.
func (r *Reconciler) GamePath(location string) string {
	if !filesystem.ValidLocation(location) {
		return ""
	}

	for _, lib := range r.libraries {
		candidate := filepath.Join(lib.Path, location)
		if filesystem.Below(lib.Path, candidate) && filesystem.Exists(r.fs, candidate) {
			return candidate
		}
	}

	return ""
}
