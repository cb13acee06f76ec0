package library

import (
	"context"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/fingerprint"
	"github.com/joe/nexus-library/internal/logging"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// Refresh recomputes all four fingerprints of item. A fingerprint that
// cannot be computed is cleared and reported in Errors.
func (w *Workflow) Refresh(ctx context.Context, item *catalog.GameItem) (result Result) {
	done := logging.LogOperationStart(w.Logger, "refresh", item.ID)
	defer func() { done(result.Err) }()

	item = item.Clone()

	var errs []string

	measure := func(exec filesystem.CommandExecutor, dir, what string) fingerprint.Fingerprint {
		if dir == "" {
			errs = append(errs, what+" path is not known")
			return fingerprint.Fingerprint{}
		}

		fp, err := w.Fingerprinter.Compute(ctx, exec, dir)
		if err != nil {
			errs = append(errs, err.Error())
			return fingerprint.Fingerprint{}
		}

		return fp
	}

	item.LocalGame = measure(w.LocalExec, item.RealLocalGamePath, "local game")

	if item.GameLocation != "" {
		item.RemoteGame = measure(w.RemoteExec, w.Settings.RemoteGamePath(item.GameLocation), "remote game")
	} else {
		item.RemoteGame = fingerprint.Fingerprint{}
	}

	if item.HasPrefix() {
		item.LocalPrefix = measure(w.LocalExec, item.RealLocalPrefixPath, "local prefix")
		item.RemotePrefix = measure(w.RemoteExec, w.Settings.RemoteInitialPrefixPath(item.PrefixLocation), "remote prefix")
	}

	w.Games.Put(item)

	return success(item, errs)
}
