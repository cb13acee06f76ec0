package library_test

import (
	"context"
	"encoding/json"
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/fingerprint"
	"github.com/joe/nexus-library/internal/launcher"
	"github.com/joe/nexus-library/internal/library"
	"github.com/joe/nexus-library/internal/transfer"
	liberrors "github.com/joe/nexus-library/pkg/errors"
	"github.com/joe/nexus-library/pkg/filesystem"
)

var (
	gameFP   = fingerprint.Fingerprint{Hash: "0123456789abcdef0123456789abcdef", SizeInBytes: 1000}
	prefixFP = fingerprint.Fingerprint{Hash: "fedcba9876543210fedcba9876543210", SizeInBytes: 500}
)

func TestSave_ShortcutOnlyBecomesDraftRecord(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	item := &catalog.GameItem{
		ID:                "77",
		Title:             "Hades",
		ExeTarget:         `"/games/Hades/Hades"`,
		StartDir:          `"/games/Hades"`,
		Source:            catalog.SourceShortcutOnly,
		Launcher:          launcher.NOOP,
		GameLocation:      "Hades",
		RealLocalGamePath: e.installedGame(t, "Hades"),
	}

	res := e.workflow.Save(context.Background(), item)
	g.Expect(res.OK()).To(BeTrue(), res.Message)
	g.Expect(res.Item.Source).To(Equal(catalog.SourceCatalog))
	g.Expect(res.Item.Status).To(Equal(catalog.StatusDraft))

	record, err := e.store.FindOne(context.Background(), "77")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(record.Status).To(Equal("DRAFT"))
	g.Expect(record.GameHashMD5).To(BeEmpty())
	g.Expect(e.syncer.calls).To(Equal([]string{"77"}))

	stored, ok := e.games.Get("77")
	g.Expect(ok).To(BeTrue())
	g.Expect(stored.Source).To(Equal(catalog.SourceCatalog))
}

func TestSave_ValidationHappensBeforeAnyWrite(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	item := &catalog.GameItem{
		ID:       "5",
		Title:    "Proton Game",
		Source:   catalog.SourceShortcutOnly,
		Launcher: launcher.PortProton,
	}

	res := e.workflow.Save(context.Background(), item)
	g.Expect(res.OK()).To(BeFalse())
	g.Expect(res.Kind()).To(Equal(liberrors.KindValidation))
	g.Expect(res.Errors).To(ContainElements(
		"exe target is required",
		"start dir is required",
		"game location is required",
		"prefix location is required for PORT_PROTON",
		"real local game path does not exist: ",
	))

	records, err := e.store.FindAll(context.Background())
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(records).To(BeEmpty())
	g.Expect(e.syncer.calls).To(BeEmpty())
}

func TestValidate_RejectsLocationsOutsideTheirRoot(t *testing.T) {
	t.Parallel()

	for _, location := range []string{".", "/", "..", "../SSD", "/games/Celeste", "Celeste/../.."} {
		t.Run(location, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			item := &catalog.GameItem{
				ID:             "1",
				Title:          "Celeste",
				ExeTarget:      "run.sh",
				StartDir:       "/games",
				Source:         catalog.SourceCatalog,
				Launcher:       launcher.PortProton,
				GameLocation:   location,
				PrefixLocation: location,
			}

			problems := library.Validate(item, filesystem.NewRealFileSystem())
			g.Expect(problems).To(ContainElement(HavePrefix("game location must be a directory below the library")))
			g.Expect(problems).To(ContainElement(HavePrefix("prefix location must be a directory below the prefixes root")))
		})
	}
}

func TestUpload_RejectsGameLocationAtLibraryRoot(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	item := e.catalogItem(t, "14", launcher.NOOP)
	item.GameLocation = "."
	item.RealLocalGamePath = e.library

	res := e.workflow.Upload(context.Background(), item)
	g.Expect(res.Kind()).To(Equal(liberrors.KindValidation))
	g.Expect(e.transfers.remotes()).To(BeEmpty())
}

func TestSave_CatalogItemNeverWritesHashes(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)
	ctx := context.Background()

	item := e.catalogItem(t, "9", launcher.NOOP)
	g.Expect(e.store.Update(ctx, "9", catalog.Fields{catalog.ColumnGameHash: "stored"})).To(Succeed())

	item.Title = "Renamed"
	item.RemoteGame = fingerprint.Fingerprint{Hash: "tampered", SizeInBytes: 1}
	item.Status = catalog.StatusActive

	res := e.workflow.Save(ctx, item)
	g.Expect(res.OK()).To(BeTrue(), res.Message)

	record, err := e.store.FindOne(ctx, "9")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(record.SteamTitle).To(Equal("Renamed"))
	g.Expect(record.GameHashMD5).To(Equal("stored"))
	g.Expect(record.Status).To(Equal("DRAFT"))
}

func TestUpload_PortProtonUploadsBaselinePrefixOnce(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)
	ctx := context.Background()

	item := e.catalogItem(t, "10", launcher.PortProton)
	item.RealLocalGamePath = e.installedGame(t, item.GameLocation)
	item.RealLocalPrefixPath = e.installedPrefix(t, item.PrefixLocation)

	e.prints.set(item.RealLocalGamePath, gameFP)
	e.prints.set("Nexus/Games/game-10", gameFP)
	e.prints.set(item.RealLocalPrefixPath, prefixFP)
	e.prints.set(e.settings.RemoteInitialPrefixPath("pfx-10"), prefixFP)

	res := e.workflow.Upload(ctx, item)
	g.Expect(res.OK()).To(BeTrue(), res.Message)
	g.Expect(res.Item.Status).To(Equal(catalog.StatusActive))
	g.Expect(res.Item.RemoteGame).To(Equal(gameFP))
	g.Expect(res.Item.RemotePrefix).To(Equal(prefixFP))
	g.Expect(e.transfers.remotes()).To(Equal([]string{"Nexus/Games/game-10", e.settings.RemoteInitialPrefixPath("pfx-10")}))

	record, err := e.store.FindOne(ctx, "10")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(record.Status).To(Equal("ACTIVE"))
	g.Expect(record.GameHashMD5).To(Equal(gameFP.Hash))
	g.Expect(record.PrefixHashMD5).To(Equal(prefixFP.Hash))
	g.Expect(record.PrefixSizeInBytes).To(BeEquivalentTo(500))

	again := res.Item.Clone()
	again.Status = catalog.StatusUploading

	res = e.workflow.Upload(ctx, again)
	g.Expect(res.OK()).To(BeTrue(), res.Message)

	prefixUploads := 0
	for _, remote := range e.transfers.remotes() {
		if remote == e.settings.RemoteInitialPrefixPath("pfx-10") {
			prefixUploads++
		}
	}

	g.Expect(prefixUploads).To(Equal(1))
	g.Expect(e.transfers.remotes()).To(HaveLen(3))
}

func TestUpload_VerificationMismatchStaysUploading(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)
	ctx := context.Background()

	item := e.catalogItem(t, "11", launcher.NOOP)
	item.RealLocalGamePath = e.installedGame(t, item.GameLocation)

	e.prints.set(item.RealLocalGamePath, gameFP)
	e.prints.set("Nexus/Games/game-11", fingerprint.Fingerprint{Hash: gameFP.Hash, SizeInBytes: 999})

	res := e.workflow.Upload(ctx, item)
	g.Expect(res.OK()).To(BeFalse())
	g.Expect(res.Err).To(MatchError(liberrors.ErrVerificationMismatch))
	g.Expect(res.Item.Status).To(Equal(catalog.StatusUploading))

	record, err := e.store.FindOne(ctx, "11")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(record.Status).To(Equal("UPLOADING"))
	g.Expect(record.GameHashMD5).To(BeEmpty())
	g.Expect(e.syncer.calls).To(BeEmpty())

	var verified *library.VerifyFinished
	for _, event := range e.emitter.events {
		if v, ok := event.(library.VerifyFinished); ok {
			verified = &v
		}
	}

	g.Expect(verified).ToNot(BeNil())
	g.Expect(verified.Match).To(BeFalse())
}

func TestUpload_RejectedStatesTouchNothing(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)
	ctx := context.Background()

	active := e.catalogItem(t, "12", launcher.NOOP)
	active.Status = catalog.StatusActive
	active.RealLocalGamePath = e.installedGame(t, active.GameLocation)

	res := e.workflow.Upload(ctx, active)
	g.Expect(res.Kind()).To(Equal(liberrors.KindValidation))

	missing := e.catalogItem(t, "13", launcher.NOOP)
	res = e.workflow.Upload(ctx, missing)
	g.Expect(res.Errors).To(ContainElement(ContainSubstring("real local game path does not exist")))

	record, err := e.store.FindOne(ctx, "13")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(record.Status).To(Equal("DRAFT"))
	g.Expect(e.transfers.remotes()).To(BeEmpty())
}

func TestUpload_TransferFailureKeepsUploading(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)
	ctx := context.Background()

	e.transfers.fail = func(transfer.Request) error {
		return liberrors.Wrap(transfer.ErrAborted, liberrors.KindTransfer, "upload")
	}

	item := e.catalogItem(t, "14", launcher.NOOP)
	item.RealLocalGamePath = e.installedGame(t, item.GameLocation)

	res := e.workflow.Upload(ctx, item)
	g.Expect(res.Err).To(MatchError(transfer.ErrAborted))
	g.Expect(res.Item.Status).To(Equal(catalog.StatusUploading))

	stored, _ := e.games.Get("14")
	g.Expect(stored.Status).To(Equal(catalog.StatusUploading))
}

func TestUpload_ShortcutFailureIsReportedNotFatal(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	e.syncer.err = liberrors.New(liberrors.KindShortcutSync, "load", "shortcut file not found")

	item := e.catalogItem(t, "15", launcher.NOOP)
	item.RealLocalGamePath = e.installedGame(t, item.GameLocation)
	e.prints.set(item.RealLocalGamePath, gameFP)
	e.prints.set("Nexus/Games/game-15", gameFP)

	res := e.workflow.Upload(context.Background(), item)
	g.Expect(res.OK()).To(BeTrue())
	g.Expect(res.Item.Status).To(Equal(catalog.StatusActive))
	g.Expect(res.Errors).To(ConsistOf(ContainSubstring("shortcut file not found")))
}

func TestDownload_InstallsGameAndPrefixThenRunsHook(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	item := e.catalogItem(t, "20", launcher.PortProton)
	item.Status = catalog.StatusActive

	res := e.workflow.Download(context.Background(), item, "deck", e.library)
	g.Expect(res.OK()).To(BeTrue(), res.Message)

	g.Expect(e.transfers.requests).To(HaveLen(2))
	g.Expect(e.transfers.requests[0].Direction).To(Equal(transfer.Download))
	g.Expect(e.transfers.requests[0].Local).To(Equal(filepath.Join(e.library, "game-20")))
	g.Expect(e.transfers.requests[1].Local).To(Equal(filepath.Join(e.prefixes, "pfx-20")))
	g.Expect(e.transfers.requests[1].Remote).To(Equal(e.settings.RemotePrefixPath("deck", "pfx-20")))

	g.Expect(e.hooks.titles).To(HaveLen(1))
	g.Expect(e.hooks.titles[0].GamePath).To(Equal(filepath.Join(e.library, "game-20")))
	g.Expect(res.Item.RealLocalPrefixPath).To(Equal(filepath.Join(e.prefixes, "pfx-20")))
	g.Expect(res.Item.LocalState.Downloading).To(BeNil())

	stored, _ := e.games.Get("20")
	g.Expect(stored.LocalState.Downloading).To(BeNil())
	g.Expect(e.syncer.calls).To(Equal([]string{"20"}))
}

func TestDownload_NoneAliasSkipsPrefix(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	item := e.catalogItem(t, "21", launcher.PortProton)

	res := e.workflow.Download(context.Background(), item, "none", e.library)
	g.Expect(res.OK()).To(BeTrue(), res.Message)
	g.Expect(e.transfers.requests).To(HaveLen(1))
	g.Expect(res.Item.RealLocalPrefixPath).To(BeEmpty())
}

func TestDownload_FailureClearsMarker(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	e.transfers.fail = func(transfer.Request) error { return errors.New("rsync exited 23") }
	item := e.catalogItem(t, "22", launcher.NOOP)

	res := e.workflow.Download(context.Background(), item, "", e.library)
	g.Expect(res.OK()).To(BeFalse())
	g.Expect(res.Item.LocalState.Downloading).To(BeNil())

	stored, _ := e.games.Get("22")
	g.Expect(stored.LocalState.Downloading).To(BeNil())
	g.Expect(e.hooks.titles).To(BeEmpty())
}

func TestDeleteLocal_AccumulatesMissingPaths(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	item := e.catalogItem(t, "30", launcher.PortProton)
	item.RealLocalGamePath = e.installedGame(t, item.GameLocation)
	item.LocalGame = gameFP
	item.RealLocalPrefixPath = filepath.Join(e.prefixes, "gone")

	res := e.workflow.DeleteLocal(context.Background(), item, true)
	g.Expect(res.OK()).To(BeTrue())
	g.Expect(res.Errors).To(ConsistOf("real local prefix path does not exist: " + filepath.Join(e.prefixes, "gone")))
	g.Expect(res.Item.RealLocalGamePath).To(BeEmpty())
	g.Expect(res.Item.LocalGame.Empty()).To(BeTrue())
	g.Expect(res.Item.RealLocalPrefixPath).To(BeEmpty())

	_, err := os.Stat(filepath.Join(e.library, item.GameLocation))
	g.Expect(os.IsNotExist(err)).To(BeTrue())

	res = e.workflow.DeleteLocal(context.Background(), res.Item, false)
	g.Expect(res.OK()).To(BeTrue())
	g.Expect(res.Errors).To(ConsistOf("real local game path does not exist: "))
}

func TestDeleteLocal_ClearsStaleFieldsWhenPathIsGone(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	item := e.catalogItem(t, "31", launcher.PortProton)
	item.RealLocalGamePath = filepath.Join(e.library, "vanished")
	item.LocalGame = gameFP
	item.RealLocalPrefixPath = filepath.Join(e.prefixes, "vanished")
	item.LocalPrefix = prefixFP

	res := e.workflow.DeleteLocal(context.Background(), item, true)
	g.Expect(res.OK()).To(BeTrue())
	g.Expect(res.Errors).To(HaveLen(2))
	g.Expect(res.Item.RealLocalGamePath).To(BeEmpty())
	g.Expect(res.Item.LocalGame.Empty()).To(BeTrue())
	g.Expect(res.Item.RealLocalPrefixPath).To(BeEmpty())
	g.Expect(res.Item.LocalPrefix.Empty()).To(BeTrue())
}

func TestDeleteLocal_RefusesConfiguredRoots(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path func(e *env) string
	}{
		{"library root", func(e *env) string { return e.library }},
		{"library parent", func(e *env) string { return filepath.Dir(e.library) }},
		{"prefixes root", func(e *env) string { return e.prefixes }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)
			e := newEnv(t)

			other := e.installedGame(t, "other-game")
			item := e.catalogItem(t, "32", launcher.NOOP)
			item.RealLocalGamePath = tt.path(e)
			item.LocalGame = gameFP

			res := e.workflow.DeleteLocal(context.Background(), item, false)
			g.Expect(res.OK()).To(BeTrue())
			g.Expect(res.Errors).To(ConsistOf(HavePrefix("refusing to delete " + tt.path(e))))
			g.Expect(res.Item.RealLocalGamePath).To(Equal(tt.path(e)))
			g.Expect(res.Item.LocalGame).To(Equal(gameFP))
			g.Expect(other).To(BeADirectory())
			g.Expect(e.prefixes).To(BeADirectory())
		})
	}
}

func TestRefresh_CollectsFailuresAndKeepsSuccesses(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	item := e.catalogItem(t, "40", launcher.NOOP)
	item.RealLocalGamePath = e.installedGame(t, item.GameLocation)
	item.RemoteGame = fingerprint.Fingerprint{Hash: "stale", SizeInBytes: 3}
	e.prints.set(item.RealLocalGamePath, gameFP)

	res := e.workflow.Refresh(context.Background(), item)
	g.Expect(res.OK()).To(BeTrue())
	g.Expect(res.Item.LocalGame).To(Equal(gameFP))
	g.Expect(res.Item.RemoteGame.Empty()).To(BeTrue())
	g.Expect(res.Errors).To(ConsistOf(ContainSubstring("Nexus/Games/game-40")))
}

func TestDownloadDetails_ListsAliasesAndLibraries(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	for _, alias := range []string{"initial", "deck", "empty"} {
		g.Expect(os.MkdirAll(filepath.Join(e.settings.Remote.PrefixesPath, alias), 0o755)).To(Succeed())
	}

	g.Expect(os.MkdirAll(filepath.Join(e.settings.Remote.PrefixesPath, "initial", "pfx-50"), 0o755)).To(Succeed())
	g.Expect(os.MkdirAll(filepath.Join(e.settings.Remote.PrefixesPath, "deck", "pfx-50"), 0o755)).To(Succeed())

	e.settings.Local.Libraries = append(e.settings.Local.Libraries, catalogLibrary(filepath.Join(e.root, "unplugged")))

	item := e.catalogItem(t, "50", launcher.PortProton)

	res := e.workflow.DownloadDetails(context.Background(), item)
	g.Expect(res.OK()).To(BeTrue())
	g.Expect(res.Details.PrefixAliases).To(Equal([]string{"deck", "initial"}))
	g.Expect(res.Details.Libraries).To(HaveLen(1))
	g.Expect(res.Details.Libraries[0].DownloadLocation).To(Equal(filepath.Join(e.library, "game-50")))
	g.Expect(res.Details.Libraries[0].Disk.AvailableBytes).To(BeEquivalentTo(40))
}

func TestUploadIcon_StoresNormalizedJPEG(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	var buf bytes.Buffer
	g.Expect(png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 32)))).To(Succeed())

	file := filepath.Join(e.root, "icon.png")
	g.Expect(os.WriteFile(file, buf.Bytes(), 0o600)).To(Succeed())

	item := e.catalogItem(t, "70", launcher.NOOP)

	res := e.workflow.UploadIcon(context.Background(), item, file)
	g.Expect(res.OK()).To(BeTrue(), res.Message)
	g.Expect(res.Item.Icon[:2]).To(Equal([]byte{0xFF, 0xD8}))

	rec, err := e.store.FindOne(context.Background(), "70")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(rec.Icon).To(Equal(res.Item.Icon))

	res = e.workflow.UploadIcon(context.Background(), item, filepath.Join(e.root, "missing.png"))
	g.Expect(res.Kind()).To(Equal(liberrors.KindValidation))
}

func TestSyncShortcut_WritesIconCache(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	item := e.catalogItem(t, "60", launcher.NOOP)
	item.Status = catalog.StatusActive
	item.Icon = []byte("jpeg bytes")

	res := e.workflow.SyncShortcut(context.Background(), item)
	g.Expect(res.OK()).To(BeTrue(), res.Message)
	g.Expect(res.Item.IconPath).To(Equal(e.settings.IconPath("60")))
	g.Expect(res.Item.LocalState.LastRenderedTitle).To(Equal("rendered Title 60"))

	data, err := os.ReadFile(e.settings.IconPath("60"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(string(data)).To(Equal("jpeg bytes"))

	e.syncer.err = liberrors.New(liberrors.KindShortcutSync, "write", "disk full")
	res = e.workflow.SyncShortcut(context.Background(), item)
	g.Expect(res.Kind()).To(Equal(liberrors.KindShortcutSync))
}

func TestSyncAll_OnlyActiveCatalogItems(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	active := &catalog.GameItem{ID: "1", Source: catalog.SourceCatalog, Status: catalog.StatusActive}
	draft := &catalog.GameItem{ID: "2", Source: catalog.SourceCatalog, Status: catalog.StatusDraft}
	loose := &catalog.GameItem{ID: "3", Source: catalog.SourceShortcutOnly, Status: catalog.StatusActive}

	for _, item := range []*catalog.GameItem{active, draft, loose} {
		e.games.Put(item)
	}

	res := e.workflow.SyncAll(context.Background())
	g.Expect(res.OK()).To(BeTrue())
	g.Expect(e.syncer.calls).To(Equal([]string{"1"}))
}

func TestAbort_Delegates(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	g.Expect(e.workflow.Abort("99")).To(Succeed())
	g.Expect(e.transfers.aborted).To(Equal([]string{"99"}))
}

func TestResult_JSONShape(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	e := newEnv(t)

	res := e.workflow.Save(context.Background(), &catalog.GameItem{ID: "1"})

	data, err := json.Marshal(res)
	g.Expect(err).ToNot(HaveOccurred())

	var decoded map[string]any
	g.Expect(json.Unmarshal(data, &decoded)).To(Succeed())
	g.Expect(decoded).To(HaveKeyWithValue("status", "error"))
	g.Expect(decoded).To(HaveKey("gameItem"))
	g.Expect(decoded["error"]).To(HaveKeyWithValue("message", ContainSubstring("title is required")))
	g.Expect(decoded["error"]).To(HaveKey("errors"))
}
