package library

import (
	"context"
	"path"
	"path/filepath"
	"sort"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/logging"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// LibraryDetails describes one local library a title can be installed into.
type LibraryDetails struct {
	Label            string               `json:"label"`
	Path             string               `json:"path"`
	Disk             filesystem.DiskUsage `json:"disk"`
	DownloadLocation string               `json:"downloadLocation"`
}

// Details is what the user chooses from before a download.
type Details struct {
	PrefixAliases []string         `json:"prefixAliases"`
	Libraries     []LibraryDetails `json:"libraries"`
}

// DownloadDetails lists the remote prefix aliases holding item's prefix and
// the libraries present on this machine.
func (w *Workflow) DownloadDetails(ctx context.Context, item *catalog.GameItem) (result Result) {
	done := logging.LogOperationStart(w.Logger, "details", item.ID)
	defer func() { done(result.Err) }()

	details := &Details{PrefixAliases: []string{}, Libraries: []LibraryDetails{}}

	var errs []string

	if item.HasPrefix() {
		aliases, err := w.prefixAliases(item.PrefixLocation)
		if err != nil {
			errs = append(errs, err.Error())
		}

		details.PrefixAliases = aliases
	}

	for _, lib := range w.Settings.Local.Libraries {
		if ctx.Err() != nil {
			break
		}

		if !filesystem.Exists(w.LocalFS, lib.Path) {
			continue
		}

		usage, err := w.Disks.Usage(lib.Path)
		if err != nil {
			errs = append(errs, err.Error())
		}

		details.Libraries = append(details.Libraries, LibraryDetails{
			Label:            lib.Label,
			Path:             lib.Path,
			Disk:             usage,
			DownloadLocation: filepath.Join(lib.Path, item.GameLocation),
		})
	}

	res := success(item.Clone(), errs)
	res.Details = details

	return res
}

func (w *Workflow) prefixAliases(prefixLocation string) ([]string, error) {
	root := w.Settings.Remote.PrefixesPath

	entries, err := w.RemoteFS.ReadDir(root)
	if err != nil {
		return []string{}, err //nolint:wrapcheck // filesystem errors carry the path
	}

	aliases := []string{}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if filesystem.Exists(w.RemoteFS, path.Join(root, entry.Name(), prefixLocation)) {
			aliases = append(aliases, entry.Name())
		}
	}

	sort.Strings(aliases)

	return aliases, nil
}
