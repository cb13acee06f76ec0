package library

import (
	"context"
	"path/filepath"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/fingerprint"
	"github.com/joe/nexus-library/internal/logging"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// DeleteLocal removes a title's local game directory and, when asked, its
// prefix. Problems are collected in Errors; the result is still a success.
// The local path and fingerprint are cleared unless the removal itself
// failed.
func (w *Workflow) DeleteLocal(ctx context.Context, item *catalog.GameItem, deletePrefix bool) (result Result) {
	done := logging.LogOperationStart(w.Logger, "delete", item.ID)
	defer func() { done(result.Err) }()

	item = item.Clone()

	var errs []string

	if w.removeTree(item.RealLocalGamePath, "game", &errs) {
		item.RealLocalGamePath = ""
		item.LocalGame = fingerprint.Fingerprint{}
	}

	if deletePrefix && w.removeTree(item.RealLocalPrefixPath, "prefix", &errs) {
		item.RealLocalPrefixPath = ""
		item.LocalPrefix = fingerprint.Fingerprint{}
	}

	item.LocalState.Downloading = nil

	if ctx.Err() == nil {
		if err := w.syncShortcut(item); err != nil {
			errs = append(errs, err.Error())
		}
	}

	w.Games.Put(item)

	return success(item, errs)
}

// removeTree deletes path and reports whether the local fields should be
// cleared. A missing path is listed in errs but still cleared.
func (w *Workflow) removeTree(path, what string, errs *[]string) bool {
	if !filesystem.Exists(w.LocalFS, path) {
		*errs = append(*errs, "real local "+what+" path does not exist: "+path)
		return true
	}

	if root, ok := w.protectedRoot(path); ok {
		*errs = append(*errs, "refusing to delete "+path+": it is or contains "+root)
		return false
	}

	if err := w.LocalFS.RemoveAll(path); err != nil {
		*errs = append(*errs, err.Error())
		return false
	}

	w.Logger.Info().Str("path", path).Str("part", what).Msg("local copy removed")

	return true
}

// protectedRoot returns the configured root that deleting path would take
// with it: a library, the prefixes root or the icon cache.
func (w *Workflow) protectedRoot(path string) (string, bool) {
	roots := []string{w.Settings.Local.PrefixesPath, w.Settings.Local.IconsPath}
	for _, lib := range w.Settings.Local.Libraries {
		roots = append(roots, lib.Path)
	}

	clean := filepath.Clean(path)

	for _, root := range roots {
		if root == "" {
			continue
		}

		if clean == filepath.Clean(root) || filesystem.Below(clean, root) {
			return root, true
		}
	}

	return "", false
}
