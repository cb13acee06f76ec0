package library

import (
	"context"
	"path/filepath"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/config"
	"github.com/joe/nexus-library/internal/logging"
	"github.com/joe/nexus-library/internal/transfer"
	liberrors "github.com/joe/nexus-library/pkg/errors"
)

// Download installs a title from the archive into libraryPath. A prefix
// alias other than "none" also installs that prefix. The in-progress marker
// is cleared however the download ends.
func (w *Workflow) Download(ctx context.Context, item *catalog.GameItem, prefixAlias, libraryPath string) (result Result) {
	done := logging.LogOperationStart(w.Logger, "download", item.ID)
	defer func() { done(result.Err) }()

	item = item.Clone()
	withPrefix := prefixAlias != "" && prefixAlias != config.NoPrefixAlias

	var problems []string
	if item.Source != catalog.SourceCatalog {
		problems = append(problems, "only catalog titles can be downloaded")
	}

	if item.GameLocation == "" {
		problems = append(problems, "game location is required")
	}

	if libraryPath == "" {
		problems = append(problems, "library path is required")
	}

	if withPrefix && item.PrefixLocation == "" {
		problems = append(problems, "title has no prefix location to download into")
	}

	problems = append(problems, locationProblems(item)...)

	if len(problems) > 0 {
		return failure(item, validationError("download", problems), problems...)
	}

	marker := &catalog.DownloadMarker{
		LibraryPath:    libraryPath,
		LocalGamePath:  filepath.Join(libraryPath, item.GameLocation),
		RemoteGamePath: w.Settings.RemoteGamePath(item.GameLocation),
	}

	if withPrefix {
		marker.PrefixAlias = prefixAlias
		marker.LocalPrefixPath = w.Settings.LocalPrefixPath(item.PrefixLocation)
		marker.RemotePrefixPath = w.Settings.RemotePrefixPath(prefixAlias, item.PrefixLocation)
	}

	item.LocalState.Downloading = marker
	w.Games.Put(item)

	defer func() {
		item.LocalState.Downloading = nil
		w.Games.Put(item)
	}()

	// snapshot is the item as it will look once the marker is cleared.
	snapshot := func() *catalog.GameItem {
		out := item.Clone()
		out.LocalState.Downloading = nil

		return out
	}

	if err := w.copyTree(ctx, item.ID, PartGame, transfer.Download, marker.LocalGamePath, marker.RemoteGamePath); err != nil {
		return failure(snapshot(), err)
	}

	item.RealLocalGamePath = marker.LocalGamePath

	if withPrefix {
		if err := w.copyTree(ctx, item.ID, PartPrefix, transfer.Download, marker.LocalPrefixPath, marker.RemotePrefixPath); err != nil {
			return failure(snapshot(), err)
		}

		item.RealLocalPrefixPath = marker.LocalPrefixPath
	}

	if err := w.Hooks.PostDownload(item.Launcher, item.LaunchTitle()); err != nil {
		return failure(snapshot(), liberrors.Wrapf(err, liberrors.KindTransfer, "download", "post-download step failed for %s", item.Launcher))
	}

	var errs []string
	if err := w.syncShortcut(item); err != nil {
		errs = append(errs, err.Error())
	}

	return success(snapshot(), errs)
}
