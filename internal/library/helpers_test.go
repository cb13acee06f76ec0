package library_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/config"
	"github.com/joe/nexus-library/internal/fingerprint"
	"github.com/joe/nexus-library/internal/launcher"
	"github.com/joe/nexus-library/internal/library"
	"github.com/joe/nexus-library/internal/reconcile"
	"github.com/joe/nexus-library/internal/transfer"
	"github.com/joe/nexus-library/pkg/filesystem"
)

type fakeTransfers struct {
	mu       sync.Mutex
	requests []transfer.Request
	fail     func(transfer.Request) error
	aborted  []string
}

func (f *fakeTransfers) Transfer(_ context.Context, req transfer.Request) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if req.OnProgress != nil {
		req.OnProgress(transfer.ParseProgress("1.00M 100% 1.00MB/s 0:00:01"))
	}

	if f.fail != nil {
		return f.fail(req)
	}

	return nil
}

func (f *fakeTransfers) Abort(id string) error {
	f.aborted = append(f.aborted, id)
	return nil
}

func (f *fakeTransfers) remotes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.requests))
	for _, req := range f.requests {
		out = append(out, req.Remote)
	}

	return out
}

// fakeFingerprinter answers by directory; unknown directories fail.
type fakeFingerprinter struct {
	mu     sync.Mutex
	prints map[string]fingerprint.Fingerprint
}

func (f *fakeFingerprinter) set(dir string, fp fingerprint.Fingerprint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prints[dir] = fp
}

func (f *fakeFingerprinter) Compute(_ context.Context, _ filesystem.CommandExecutor, dir string) (fingerprint.Fingerprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, ok := f.prints[dir]
	if !ok {
		return fingerprint.Fingerprint{}, errors.New("no such directory: " + dir)
	}

	return fp, nil
}

type fakeSyncer struct {
	calls []string
	err   error
}

func (f *fakeSyncer) Sync(item *catalog.GameItem) error {
	f.calls = append(f.calls, item.ID)
	if f.err != nil {
		return f.err
	}

	item.LocalState.LastRenderedTitle = "rendered " + item.Title

	return nil
}

type fakeHooks struct {
	titles []launcher.Title
	err    error
}

func (f *fakeHooks) PostDownload(_ launcher.Kind, title launcher.Title) error {
	f.titles = append(f.titles, title)
	return f.err
}

type fakeDisks struct{}

func (fakeDisks) Usage(string) (filesystem.DiskUsage, error) {
	return filesystem.DiskUsage{TotalBytes: 100, AvailableBytes: 40, UsedBytes: 60}, nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []library.Event
}

func (r *recordingEmitter) Emit(event library.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

type env struct {
	root      string
	library   string
	prefixes  string
	settings  *config.Settings
	store     *catalog.SQLStore
	games     *reconcile.GameMap
	transfers *fakeTransfers
	prints    *fakeFingerprinter
	syncer    *fakeSyncer
	hooks     *fakeHooks
	emitter   *recordingEmitter
	workflow  *library.Workflow
}

func newEnv(t *testing.T) *env {
	t.Helper()

	root := t.TempDir()
	e := &env{
		root:      root,
		library:   filepath.Join(root, "SD", "Games"),
		prefixes:  filepath.Join(root, "prefixes"),
		transfers: &fakeTransfers{},
		prints:    &fakeFingerprinter{prints: map[string]fingerprint.Fingerprint{}},
		syncer:    &fakeSyncer{},
		hooks:     &fakeHooks{},
		emitter:   &recordingEmitter{},
		games:     reconcile.NewGameMap(),
	}

	for _, dir := range []string{e.library, e.prefixes} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	e.settings = &config.Settings{
		Remote: config.RemoteSettings{
			GamesPath:       "Nexus/Games",
			PrefixesPath:    filepath.Join(root, "remote", "Prefixes"),
			InitialPrefixes: "initial",
		},
		Local: config.LocalSettings{
			Libraries:    []config.Library{{Label: "SD", Path: e.library}},
			PrefixesPath: e.prefixes,
			IconsPath:    filepath.Join(root, "icons"),
		},
	}

	store, err := catalog.OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	e.store = store

	fs := filesystem.NewRealFileSystem()
	e.workflow = library.New(library.Deps{
		Settings:      e.settings,
		Store:         store,
		Games:         e.games,
		Reconciler:    reconcile.New(e.settings.Local.Libraries, e.prefixes, fs, zerolog.Nop()),
		Transfers:     e.transfers,
		Fingerprinter: e.prints,
		LocalExec:     filesystem.NewLocalExecutor(),
		RemoteExec:    filesystem.NewLocalExecutor(),
		LocalFS:       fs,
		RemoteFS:      fs,
		Shortcuts:     e.syncer,
		Hooks:         e.hooks,
		Disks:         fakeDisks{},
		Logger:        zerolog.Nop(),
	})
	e.workflow.SetEventEmitter(e.emitter)

	return e
}

// installedGame creates a local game directory and returns its path.
func (e *env) installedGame(t *testing.T, location string) string {
	t.Helper()

	dir := filepath.Join(e.library, location)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	return dir
}

func (e *env) installedPrefix(t *testing.T, location string) string {
	t.Helper()

	dir := filepath.Join(e.prefixes, location)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	return dir
}

// catalogItem stores a DRAFT record and returns the matching item.
func (e *env) catalogItem(t *testing.T, id string, kind launcher.Kind) *catalog.GameItem {
	t.Helper()

	item := &catalog.GameItem{
		ID:             id,
		Title:          "Title " + id,
		ExeTarget:      `"/games/run.sh"`,
		StartDir:       `"/games"`,
		Source:         catalog.SourceCatalog,
		Launcher:       kind,
		LauncherTarget: "run.sh",
		Status:         catalog.StatusDraft,
		GameLocation:   "game-" + id,
	}

	if kind == launcher.PortProton {
		item.PrefixLocation = "pfx-" + id
	}

	if err := e.store.Create(context.Background(), item.Record()); err != nil {
		t.Fatal(err)
	}

	return item
}

func catalogLibrary(path string) config.Library {
	return config.Library{Label: filepath.Base(path), Path: path}
}
