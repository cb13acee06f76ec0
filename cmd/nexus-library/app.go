package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/joe/nexus-library/internal/backup"
	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/config"
	"github.com/joe/nexus-library/internal/fingerprint"
	"github.com/joe/nexus-library/internal/launcher"
	"github.com/joe/nexus-library/internal/library"
	"github.com/joe/nexus-library/internal/logging"
	"github.com/joe/nexus-library/internal/reconcile"
	"github.com/joe/nexus-library/internal/shortcuts"
	"github.com/joe/nexus-library/internal/transfer"
	"github.com/joe/nexus-library/internal/tui"
	liberrors "github.com/joe/nexus-library/pkg/errors"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// progressLogInterval throttles progress lines when no TUI is drawn.
const progressLogInterval = 2 * time.Second

// app wires the components for one invocation.
type app struct {
	args     *config.Args
	settings *config.Settings
	out      io.Writer
	useTUI   bool
	logger   zerolog.Logger

	conn         *filesystem.SFTPConnection
	store        catalog.Store
	reconciler   *reconcile.Reconciler
	synchronizer *shortcuts.Synchronizer
	games        *reconcile.GameMap
	workflow     *library.Workflow
	backups      *backup.Service
	logEmitter   library.EventEmitter
}

func newApp(ctx context.Context, args *config.Args, settings *config.Settings, out io.Writer, useTUI bool) (*app, error) {
	a := &app{
		args:     args,
		settings: settings,
		out:      out,
		useTUI:   useTUI,
		logger:   logging.GetLogger("cli"),
	}

	conn, err := filesystem.Connect(settings.Endpoint())
	if err != nil {
		return nil, liberrors.Wrap(err, liberrors.KindConfig, "connect")
	}
	a.conn = conn

	localFS := filesystem.NewRealFileSystem()
	remoteFS := filesystem.NewSFTPFileSystem(conn)
	remoteExec := filesystem.NewSSHExecutor(conn)

	store, err := openStore(settings, remoteFS)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store

	resolver := launcher.NewResolver(launcher.Settings{
		EmulationPath:  settings.Launchers.EmulationPath,
		PortProtonPath: settings.Launchers.PortProtonPath,
	}, localFS)

	a.synchronizer = shortcuts.NewSynchronizer(settings.ShortcutsPath(), localFS, resolver, settings.Local.Libraries, logging.GetLogger("shortcuts"))
	a.reconciler = reconcile.New(settings.Local.Libraries, settings.Local.PrefixesPath, localFS, logging.GetLogger("reconcile"))

	games, err := a.merge(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.games = games

	transfers := transfer.New(transfer.Options{
		Host:           settings.Remote.Host,
		Port:           settings.Remote.Port,
		User:           settings.Remote.User,
		PrivateKeyPath: settings.Remote.PrivateKeyPath,
	}, transfer.ExecRunner{}, remoteExec, localFS, logging.GetLogger("transfer"))

	a.workflow = library.New(library.Deps{
		Settings:      settings,
		Store:         store,
		Games:         games,
		Reconciler:    a.reconciler,
		Transfers:     transfers,
		Fingerprinter: fingerprint.New(settings.FingerprintMode, logging.GetLogger("fingerprint")),
		LocalExec:     filesystem.NewLocalExecutor(),
		RemoteExec:    remoteExec,
		LocalFS:       localFS,
		RemoteFS:      remoteFS,
		Shortcuts:     a.synchronizer,
		Hooks:         resolver,
		Logger:        logging.GetLogger("library"),
	})
	a.backups = backup.New(settings, transfers, logging.GetLogger("backup"))

	a.logEmitter = tui.NewLogEmitter(logging.GetLogger("progress"), progressLogInterval)
	a.workflow.SetEventEmitter(a.logEmitter)
	a.backups.SetEventEmitter(a.logEmitter)

	return a, nil
}

func openStore(settings *config.Settings, remoteFS filesystem.TreeFS) (catalog.Store, error) {
	if settings.Catalog.Driver == config.DriverSQLite {
		store, err := catalog.OpenSQLite(settings.Catalog.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog %s: %w", settings.Catalog.SQLitePath, err)
		}

		return store, nil
	}

	return catalog.NewJSONStore(remoteFS, settings.Remote.DBPath, logging.GetLogger("catalog")), nil
}

// merge reads the catalog and the shortcut file and reconciles them. A
// missing or unreadable shortcut file leaves only catalog items.
func (a *app) merge(ctx context.Context) (*reconcile.GameMap, error) {
	records, err := a.store.FindAll(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck // store errors are already kinded
	}

	entries, err := a.synchronizer.Entries()
	if err != nil {
		a.logger.Warn().Err(err).Str("path", a.synchronizer.Path()).Msg("shortcut file not readable, listing catalog only")
	}

	return a.reconciler.Merge(records, entries), nil
}

// reload re-merges into the live game map.
func (a *app) reload(ctx context.Context) error {
	fresh, err := a.merge(ctx)
	if err != nil {
		return err
	}

	for _, item := range fresh.All() {
		a.games.Put(item)
	}

	return nil
}

func (a *app) item(id string) (*catalog.GameItem, error) {
	item, ok := a.games.Get(id)
	if !ok {
		return nil, liberrors.Newf(liberrors.KindValidation, "lookup", "no title with id %s", id)
	}

	return item, nil
}

// Close releases the SFTP connection.
func (a *app) Close() {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Debug().Err(err).Msg("closing connection")
		}
	}
}
