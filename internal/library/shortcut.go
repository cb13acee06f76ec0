package library

import (
	"context"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/icon"
	"github.com/joe/nexus-library/internal/logging"
	liberrors "github.com/joe/nexus-library/pkg/errors"
	"github.com/joe/nexus-library/pkg/fileops"
)

// UploadIcon normalizes the image at file and stores it as item's icon.
func (w *Workflow) UploadIcon(ctx context.Context, item *catalog.GameItem, file string) (result Result) {
	done := logging.LogOperationStart(w.Logger, "icon", item.ID)
	defer func() { done(result.Err) }()

	item = item.Clone()

	if item.Source != catalog.SourceCatalog {
		return failure(item, liberrors.New(liberrors.KindValidation, "icon", "title must be saved to the catalog first"))
	}

	data, err := w.LocalFS.ReadFile(file)
	if err != nil {
		return failure(item, liberrors.Wrap(err, liberrors.KindValidation, "icon").WithPath(file))
	}

	normalized, err := icon.Normalize(data)
	if err != nil {
		return failure(item, liberrors.Wrap(err, liberrors.KindValidation, "icon").WithPath(file))
	}

	if err := w.Store.Update(ctx, item.ID, catalog.Fields{catalog.ColumnIcon: normalized}); err != nil {
		return failure(item, err)
	}

	item.Icon = normalized
	w.Games.Put(item)

	return success(item, nil)
}

// SyncShortcut writes item's icon to the icon cache when it changed and
// renders the shortcut entry.
func (w *Workflow) SyncShortcut(_ context.Context, item *catalog.GameItem) (result Result) {
	done := logging.LogOperationStart(w.Logger, "sync", item.ID)
	defer func() { done(result.Err) }()

	item = item.Clone()

	if len(item.Icon) > 0 {
		iconPath := w.Settings.IconPath(item.ID)
		files := fileops.NewFileOps(w.LocalFS)

		same, err := files.SameContent(iconPath, item.Icon)
		if err != nil {
			return failure(item, liberrors.Wrap(err, liberrors.KindShortcutSync, "icon").WithPath(iconPath))
		}

		if !same {
			if err := files.WriteFileAtomic(iconPath, item.Icon, fileops.DefaultFilePermissions); err != nil {
				return failure(item, liberrors.Wrap(err, liberrors.KindShortcutSync, "icon").WithPath(iconPath))
			}
		}

		item.IconPath = iconPath
	}

	if err := w.syncShortcut(item); err != nil {
		return failure(item, err)
	}

	w.Games.Put(item)

	return success(item, nil)
}

// SyncAll re-resolves local paths and re-renders every active catalog title.
func (w *Workflow) SyncAll(ctx context.Context) Result {
	var errs []string

	for _, item := range w.Games.All() {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err().Error())
			break
		}

		if item.Source != catalog.SourceCatalog || item.Status != catalog.StatusActive {
			continue
		}

		if w.Reconciler != nil {
			w.Reconciler.Resolve(item)
		}

		if res := w.SyncShortcut(ctx, item); !res.OK() {
			errs = append(errs, item.ID+": "+res.Message)
		}
	}

	return success(nil, errs)
}
