package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/nexus-library/internal/backup"
	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/config"
	"github.com/joe/nexus-library/internal/launcher"
	"github.com/joe/nexus-library/internal/library"
	"github.com/joe/nexus-library/internal/logging"
	"github.com/joe/nexus-library/internal/reconcile"
	"github.com/joe/nexus-library/internal/tui"
	"github.com/joe/nexus-library/internal/watch"
	liberrors "github.com/joe/nexus-library/pkg/errors"
)

// dispatch runs the selected subcommand and returns the exit code.
//
//nolint:cyclop // one branch per subcommand
func (a *app) dispatch(ctx context.Context) int {
	args := a.args

	switch {
	case args.List != nil:
		return a.list(args.List)
	case args.Save != nil:
		return a.withItem(args.Save.ID, func(item *catalog.GameItem) library.Result {
			edited, err := applySave(item, args.Save)
			if err != nil {
				return library.Result{Status: library.StatusError, Item: item, Message: err.Error(), Err: err}
			}

			return a.workflow.Save(ctx, edited)
		})
	case args.Upload != nil:
		return a.withItem(args.Upload.ID, func(item *catalog.GameItem) library.Result {
			return a.withProgress(ctx, "Uploading "+item.Title, item.ID, a.workflow.Abort, a.workflow.SetEventEmitter,
				func(ctx context.Context) library.Result { return a.workflow.Upload(ctx, item) })
		})
	case args.Download != nil:
		cmd := args.Download

		return a.withItem(cmd.ID, func(item *catalog.GameItem) library.Result {
			return a.withProgress(ctx, "Downloading "+item.Title, item.ID, a.workflow.Abort, a.workflow.SetEventEmitter,
				func(ctx context.Context) library.Result { return a.workflow.Download(ctx, item, cmd.Prefix, cmd.Library) })
		})
	case args.Delete != nil:
		return a.withItem(args.Delete.ID, func(item *catalog.GameItem) library.Result {
			return a.workflow.DeleteLocal(ctx, item, args.Delete.Prefix)
		})
	case args.Refresh != nil:
		return a.withItem(args.Refresh.ID, func(item *catalog.GameItem) library.Result {
			return a.workflow.Refresh(ctx, item)
		})
	case args.Details != nil:
		return a.withItem(args.Details.ID, func(item *catalog.GameItem) library.Result {
			return a.workflow.DownloadDetails(ctx, item)
		})
	case args.Sync != nil && args.Sync.All:
		return a.print(a.workflow.SyncAll(ctx))
	case args.Sync != nil:
		return a.withItem(args.Sync.ID, func(item *catalog.GameItem) library.Result {
			return a.workflow.SyncShortcut(ctx, item)
		})
	case args.Icon != nil:
		return a.withItem(args.Icon.ID, func(item *catalog.GameItem) library.Result {
			res := a.workflow.UploadIcon(ctx, item, args.Icon.File)
			if !res.OK() || res.Item.Status != catalog.StatusActive {
				return res
			}

			return a.workflow.SyncShortcut(ctx, res.Item)
		})
	case args.Backup != nil:
		return a.print(a.backup(ctx, args.Backup.Target))
	case args.Watch != nil:
		return a.watch(ctx)
	}

	return exitUsage
}

func (a *app) withItem(id string, fn func(*catalog.GameItem) library.Result) int {
	item, err := a.item(id)
	if err != nil {
		return report(a.errOut(), err)
	}

	return a.print(fn(item))
}

// withProgress runs op under the progress view when one is drawn. The
// emitter is restored afterwards.
func (a *app) withProgress(
	ctx context.Context,
	title, id string,
	abort tui.AbortFunc,
	setEmitter func(library.EventEmitter),
	op tui.Operation,
) library.Result {
	if !a.useTUI {
		return op(ctx)
	}

	bridge := tui.NewEventBridge()
	setEmitter(bridge)

	defer setEmitter(a.logEmitter)

	res, err := tui.Run(ctx, title, id, bridge, abort, op, tea.WithContext(ctx), tea.WithoutSignalHandler())
	if err != nil {
		return library.Result{Status: library.StatusError, Message: err.Error(), Err: err}
	}

	return res
}

func (a *app) backup(ctx context.Context, target string) library.Result {
	abort := func(string) error { return a.backups.Abort() }

	switch target {
	case "prefixes":
		return a.withProgress(ctx, "Backing up prefixes", backup.TransferID, abort, a.backups.SetEventEmitter, a.backups.Prefixes)
	case "locations":
		return a.withProgress(ctx, "Backing up custom locations", backup.TransferID, abort, a.backups.SetEventEmitter, a.backups.AllLocations)
	}

	loc, ok := a.backups.Find(target)
	if !ok {
		err := liberrors.Newf(liberrors.KindValidation, "backup", "%s is not a configured backup location", target)
		return library.Result{Status: library.StatusError, Message: err.Error(), Err: err}
	}

	return a.withProgress(ctx, "Backing up "+loc.Path, backup.TransferID, abort, a.backups.SetEventEmitter,
		func(ctx context.Context) library.Result { return a.backups.Location(ctx, loc) })
}

// watch re-merges and re-renders active titles whenever a library, the
// prefixes root or the shortcut file changes, until interrupted.
func (a *app) watch(ctx context.Context) int {
	onChange := func(ctx context.Context) {
		if err := a.reload(ctx); err != nil {
			a.logger.Error().Err(err).Msg("reload failed")
			return
		}

		res := a.workflow.SyncAll(ctx)
		for _, problem := range res.Errors {
			a.logger.Warn().Msg(problem)
		}

		a.logger.Info().Int("titles", a.games.Len()).Msg("presence titles refreshed")
	}

	watcher, err := watch.New(watch.RootsFor(a.settings), watch.DefaultDebounce, onChange, logging.GetLogger("watch"))
	if err != nil {
		return report(a.errOut(), err)
	}

	onChange(ctx)

	if err := watcher.Run(ctx); err != nil {
		return report(a.errOut(), err)
	}

	return exitOK
}

// applySave copies the given save flags onto a clone of item. Empty flags
// keep the current value.
func applySave(item *catalog.GameItem, cmd *config.SaveCmd) (*catalog.GameItem, error) {
	edited := item.Clone()

	set := func(dst *string, value string) {
		if value != "" {
			*dst = value
		}
	}

	set(&edited.Title, cmd.Title)
	set(&edited.ExeTarget, cmd.ExeTarget)
	set(&edited.StartDir, cmd.StartDir)
	set(&edited.LaunchArgs, cmd.LaunchArgs)
	set(&edited.LauncherTarget, cmd.LauncherTarget)
	set(&edited.GameLocation, cmd.GameLocation)
	set(&edited.PrefixLocation, cmd.PrefixLocation)
	set(&edited.RealLocalGamePath, cmd.LocalGamePath)

	if cmd.Launcher != "" {
		kind, err := launcher.ParseKind(cmd.Launcher)
		if err != nil {
			return nil, liberrors.Wrap(err, liberrors.KindValidation, "save")
		}

		edited.Launcher = kind
	}

	return edited, nil
}

func (a *app) list(cmd *config.ListCmd) int {
	filter := reconcile.NewTitleFilter(cmd.Filter)
	if !filter.Valid() {
		return report(a.errOut(), liberrors.Newf(liberrors.KindValidation, "list", "invalid filter %q", cmd.Filter))
	}

	items := filter.Filter(a.games.All())

	if a.args.JSON {
		return a.encode(items)
	}

	writeTable(a.out, items)

	return exitOK
}
