package main

import (
	"bytes"
	"errors"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/config"
	"github.com/joe/nexus-library/internal/launcher"
	"github.com/joe/nexus-library/internal/library"
	liberrors "github.com/joe/nexus-library/pkg/errors"
)

func TestApplySave_OnlyGivenFlagsChange(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	item := &catalog.GameItem{ID: "1", Title: "Hades", StartDir: `"/sd/Hades"`, Launcher: launcher.NOOP}

	edited, err := applySave(item, &config.SaveCmd{ID: "1", Launcher: "port_proton", PrefixLocation: "Hades"})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(edited.Title).To(Equal("Hades"))
	g.Expect(edited.StartDir).To(Equal(`"/sd/Hades"`))
	g.Expect(edited.Launcher).To(Equal(launcher.PortProton))
	g.Expect(edited.PrefixLocation).To(Equal("Hades"))
	g.Expect(item.Launcher).To(Equal(launcher.NOOP))
}

func TestApplySave_RejectsUnknownLauncher(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := applySave(&catalog.GameItem{ID: "1"}, &config.SaveCmd{Launcher: "DOSBOX"})
	g.Expect(err).To(MatchError(liberrors.ErrValidation))
}

func TestApplyOverrides(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	settings := &config.Settings{Remote: config.RemoteSettings{Host: "old", User: "old", Port: 22}}
	args := &config.Args{Remote: "sftp://deck@nexus.lan:2222//srv/nexus"}

	g.Expect(applyOverrides(args, settings)).To(Succeed())
	g.Expect(settings.Remote.Host).To(Equal("nexus.lan"))
	g.Expect(settings.Remote.User).To(Equal("deck"))
	g.Expect(settings.Remote.Port).To(Equal(2222))
	g.Expect(settings.Remote.GamesPath).To(Equal("/srv/nexus/Games"))

	g.Expect(applyOverrides(&config.Args{Remote: "ftp://x@y"}, settings)).To(MatchError(liberrors.ErrConfig))
}

func TestWriteResult(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var buf bytes.Buffer

	writeResult(&buf, library.Result{
		Status: library.StatusSuccess,
		Item:   &catalog.GameItem{ID: "7", Title: "Celeste", Status: catalog.StatusActive},
		Errors: []string{"real local prefix path does not exist: /p"},
	})
	g.Expect(buf.String()).To(Equal("✓ 7 [ACTIVE] Celeste\n  ! real local prefix path does not exist: /p\n"))

	buf.Reset()
	err := errors.New("boom")
	writeResult(&buf, library.Result{Status: library.StatusError, Message: err.Error(), Err: err})
	g.Expect(buf.String()).To(Equal("✗ boom\n"))
}

func TestReport_AddsSuggestions(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var buf bytes.Buffer

	code := report(&buf, errors.New("open /home/deck/shortcuts.vdf: permission denied"))
	g.Expect(code).To(Equal(exitFailure))
	g.Expect(buf.String()).To(HavePrefix("Error: open /home/deck/shortcuts.vdf: permission denied\n"))
	g.Expect(buf.Len()).To(BeNumerically(">", len("Error: open /home/deck/shortcuts.vdf: permission denied\n")))
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536 * 1024, "1.5 MB"},
		{3 << 40, "3.0 TB"},
	}

	for _, tt := range tests {
		g := NewWithT(t)
		g.Expect(formatBytes(tt.in)).To(Equal(tt.want))
	}
}
