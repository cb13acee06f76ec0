// Package library implements the title workflows: saving, uploading,
// downloading, deleting and re-rendering shortcuts, each moving a title
// through DRAFT, UPLOADING and ACTIVE.
package library

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/config"
	"github.com/joe/nexus-library/internal/fingerprint"
	"github.com/joe/nexus-library/internal/launcher"
	"github.com/joe/nexus-library/internal/reconcile"
	"github.com/joe/nexus-library/internal/transfer"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// Transferer copies trees to and from the archive host.
type Transferer interface {
	Transfer(ctx context.Context, req transfer.Request) error
	Abort(id string) error
}

// Fingerprinter fingerprints a directory through an executor.
type Fingerprinter interface {
	Compute(ctx context.Context, exec filesystem.CommandExecutor, dir string) (fingerprint.Fingerprint, error)
}

// ShortcutSyncer renders an item into the shortcut file.
type ShortcutSyncer interface {
	Sync(item *catalog.GameItem) error
}

// PostDownloadHook prepares a downloaded title for its launcher.
type PostDownloadHook interface {
	PostDownload(kind launcher.Kind, title launcher.Title) error
}

// Deps are the collaborators of a Workflow.
type Deps struct {
	Settings      *config.Settings
	Store         catalog.Store
	Games         *reconcile.GameMap
	Reconciler    *reconcile.Reconciler
	Transfers     Transferer
	Fingerprinter Fingerprinter
	LocalExec     filesystem.CommandExecutor
	RemoteExec    filesystem.CommandExecutor
	LocalFS       filesystem.FileSystem
	RemoteFS      filesystem.TreeFS
	Shortcuts     ShortcutSyncer
	Hooks         PostDownloadHook
	Disks         filesystem.DiskInspector
	Logger        zerolog.Logger
}

// Workflow runs title operations. Each call runs its steps in order; calls
// for different titles may run concurrently.
type Workflow struct {
	Deps

	emitter EventEmitter
}

// New creates a Workflow.
func New(deps Deps) *Workflow {
	if deps.Games == nil {
		deps.Games = reconcile.NewGameMap()
	}

	if deps.Disks == nil {
		deps.Disks = filesystem.StatfsInspector{}
	}

	return &Workflow{Deps: deps}
}

// SetEventEmitter sets the receiver of workflow events. nil disables events.
func (w *Workflow) SetEventEmitter(emitter EventEmitter) {
	w.emitter = emitter
}

func (w *Workflow) emit(event Event) {
	if w.emitter != nil {
		w.emitter.Emit(event)
	}
}

// Abort stops the running transfer for id.
func (w *Workflow) Abort(id string) error {
	return w.Transfers.Abort(id) //nolint:wrapcheck // orchestrator errors are already kinded
}

// copyTree runs one transfer and reports it as events.
func (w *Workflow) copyTree(ctx context.Context, id string, part Part, direction transfer.Direction, local, remote string) error {
	w.emit(TransferStarted{ID: id, Part: part, Direction: direction, Local: local, Remote: remote})

	err := w.Transfers.Transfer(ctx, transfer.Request{
		ID:         id,
		Direction:  direction,
		Local:      local,
		Remote:     remote,
		OnProgress: func(p transfer.Progress) { w.emit(TransferProgress{ID: id, Part: part, Progress: p}) },
	})

	w.emit(TransferFinished{ID: id, Part: part, Err: err})

	return err //nolint:wrapcheck // orchestrator errors are already kinded
}

// syncShortcut renders item and reports a failure as a message for the
// result's Errors.
func (w *Workflow) syncShortcut(item *catalog.GameItem) error {
	if err := w.Shortcuts.Sync(item); err != nil {
		w.Logger.Warn().Err(err).Str("id", item.ID).Msg("shortcut sync failed")
		return err //nolint:wrapcheck // synchronizer errors are already kinded
	}

	if item.LocalState.LastRenderedTitle != "" {
		w.emit(ShortcutSynced{ID: item.ID, Title: item.LocalState.LastRenderedTitle})
	}

	return nil
}
