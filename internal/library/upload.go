package library

import (
	"context"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/fingerprint"
	"github.com/joe/nexus-library/internal/launcher"
	"github.com/joe/nexus-library/internal/logging"
	"github.com/joe/nexus-library/internal/transfer"
	liberrors "github.com/joe/nexus-library/pkg/errors"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// Upload copies a title to the archive, verifies the copy and activates it.
//
// The baseline prefix is uploaded only for PORT_PROTON titles that have no
// remote prefix hash yet; once recorded it is never replaced. A mismatch
// leaves the title UPLOADING so a later upload can retry.
func (w *Workflow) Upload(ctx context.Context, item *catalog.GameItem) (result Result) {
	done := logging.LogOperationStart(w.Logger, "upload", item.ID)
	defer func() { done(result.Err) }()

	item = item.Clone()
	firstPrefix := item.Launcher == launcher.PortProton && item.RemotePrefix.Empty()

	if problems := w.validateUpload(item, firstPrefix); len(problems) > 0 {
		return failure(item, validationError("upload", problems), problems...)
	}

	item.Status = catalog.StatusUploading
	if err := w.Store.Update(ctx, item.ID, catalog.Fields{catalog.ColumnStatus: catalog.StatusUploading}); err != nil {
		return failure(item, err)
	}
	w.Games.Put(item)

	remoteGame := w.Settings.RemoteGamePath(item.GameLocation)
	if err := w.copyTree(ctx, item.ID, PartGame, transfer.Upload, item.RealLocalGamePath, remoteGame); err != nil {
		return failure(item, err)
	}

	remotePrefix := w.Settings.RemoteInitialPrefixPath(item.PrefixLocation)
	if firstPrefix {
		if err := w.copyTree(ctx, item.ID, PartPrefix, transfer.Upload, item.RealLocalPrefixPath, remotePrefix); err != nil {
			return failure(item, err)
		}
	}

	localGameFP, remoteGameFP, err := w.verify(ctx, item.ID, PartGame, item.RealLocalGamePath, remoteGame)
	if err != nil {
		return failure(item, err)
	}

	fields := catalog.Fields{
		catalog.ColumnStatus:          catalog.StatusActive,
		catalog.ColumnGameHash:        remoteGameFP.Hash,
		catalog.ColumnGameSizeInBytes: remoteGameFP.SizeInBytes,
	}

	var localPrefixFP, remotePrefixFP fingerprint.Fingerprint
	if firstPrefix {
		localPrefixFP, remotePrefixFP, err = w.verify(ctx, item.ID, PartPrefix, item.RealLocalPrefixPath, remotePrefix)
		if err != nil {
			return failure(item, err)
		}

		fields[catalog.ColumnPrefixHash] = remotePrefixFP.Hash
		fields[catalog.ColumnPrefixSizeInBytes] = remotePrefixFP.SizeInBytes
	}

	if err := w.Store.Update(ctx, item.ID, fields); err != nil {
		return failure(item, err)
	}

	item.Status = catalog.StatusActive
	item.LocalGame, item.RemoteGame = localGameFP, remoteGameFP

	if firstPrefix {
		item.LocalPrefix, item.RemotePrefix = localPrefixFP, remotePrefixFP
	}

	var errs []string
	if err := w.syncShortcut(item); err != nil {
		errs = append(errs, err.Error())
	}

	w.Games.Put(item)

	return success(item, errs)
}

func (w *Workflow) validateUpload(item *catalog.GameItem, firstPrefix bool) []string {
	var problems []string

	if item.Source != catalog.SourceCatalog {
		problems = append(problems, "title must be saved to the catalog before uploading")
	}

	if item.Status != catalog.StatusDraft && item.Status != catalog.StatusUploading {
		problems = append(problems, "only DRAFT or UPLOADING titles can be uploaded, not "+string(item.Status))
	}

	if item.Launcher.NeedsPrefix() && item.PrefixLocation == "" {
		problems = append(problems, "prefix location is required for "+string(launcher.PortProton))
	}

	if item.GameLocation == "" {
		problems = append(problems, "game location is required")
	}

	problems = append(problems, locationProblems(item)...)

	if !filesystem.Exists(w.LocalFS, item.RealLocalGamePath) {
		problems = append(problems, "real local game path does not exist: "+item.RealLocalGamePath)
	}

	if firstPrefix && item.PrefixLocation != "" && !filesystem.Exists(w.LocalFS, item.RealLocalPrefixPath) {
		problems = append(problems, "real local prefix path does not exist: "+item.RealLocalPrefixPath)
	}

	return problems
}

// verify fingerprints both copies and requires them to be equal.
func (w *Workflow) verify(ctx context.Context, id string, part Part, local, remote string) (fingerprint.Fingerprint, fingerprint.Fingerprint, error) {
	w.emit(VerifyStarted{ID: id, Part: part})

	localFP, err := w.Fingerprinter.Compute(ctx, w.LocalExec, local)
	if err != nil {
		return fingerprint.Fingerprint{}, fingerprint.Fingerprint{}, err //nolint:wrapcheck // fingerprint errors are already kinded
	}

	remoteFP, err := w.Fingerprinter.Compute(ctx, w.RemoteExec, remote)
	if err != nil {
		return fingerprint.Fingerprint{}, fingerprint.Fingerprint{}, err //nolint:wrapcheck // fingerprint errors are already kinded
	}

	match := localFP.Equal(remoteFP)
	w.emit(VerifyFinished{ID: id, Part: part, Local: localFP, Remote: remoteFP, Match: match})

	if !match {
		return localFP, remoteFP, liberrors.Newf(liberrors.KindVerificationMismatch, "verify",
			"%s copies differ: local %s (%d bytes), remote %s (%d bytes)",
			part, localFP.Hash, localFP.SizeInBytes, remoteFP.Hash, remoteFP.SizeInBytes).WithPath(local)
	}

	return localFP, remoteFP, nil
}
