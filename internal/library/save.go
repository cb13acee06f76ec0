package library

import (
	"context"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/icon"
	"github.com/joe/nexus-library/internal/logging"
)

// Save validates item and persists its catalog fields. A shortcut-only item
// becomes a DRAFT catalog record; a catalog item has its non-hash fields
// updated. Hash and size columns are never written here.
func (w *Workflow) Save(ctx context.Context, item *catalog.GameItem) (result Result) {
	done := logging.LogOperationStart(w.Logger, "save", item.ID)
	defer func() { done(result.Err) }()

	if problems := Validate(item, w.LocalFS); len(problems) > 0 {
		return failure(item, validationError("save", problems), problems...)
	}

	item = item.Clone()

	if item.Source == catalog.SourceShortcutOnly {
		item.Icon = w.loadIcon(item.IconPath)
		item.Status = catalog.StatusDraft

		if err := w.Store.Create(ctx, item.Record()); err != nil {
			return failure(item, err)
		}

		item.Source = catalog.SourceCatalog
	} else if err := w.Store.Update(ctx, item.ID, item.EditableFields()); err != nil {
		return failure(item, err)
	}

	var errs []string
	if err := w.syncShortcut(item); err != nil {
		errs = append(errs, err.Error())
	}

	w.Games.Put(item)

	return success(item, errs)
}

// loadIcon reads and normalizes the image a shortcut points at. A missing
// or undecodable image leaves the record without an icon.
func (w *Workflow) loadIcon(path string) []byte {
	if path == "" {
		return nil
	}

	data, err := w.LocalFS.ReadFile(path)
	if err != nil {
		w.Logger.Warn().Err(err).Str("path", path).Msg("icon not readable")
		return nil
	}

	normalized, err := icon.Normalize(data)
	if err != nil {
		w.Logger.Warn().Err(err).Str("path", path).Msg("icon not usable")
		return nil
	}

	return normalized
}
