package fingerprint_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
	"github.com/rs/zerolog"

	"github.com/joe/nexus-library/internal/config"
	"github.com/joe/nexus-library/internal/fingerprint"
	liberrors "github.com/joe/nexus-library/pkg/errors"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// scriptedExecutor answers commands by their first matching substring.
type scriptedExecutor struct {
	answers map[string]filesystem.CommandOutput
	err     error
	calls   []string
}

func (s *scriptedExecutor) Run(_ context.Context, command string) (filesystem.CommandOutput, error) {
	s.calls = append(s.calls, command)

	for key, out := range s.answers {
		if strings.Contains(command, key) {
			return out, s.err
		}
	}

	return filesystem.CommandOutput{}, s.err
}

func TestCompute_ParsesHashAndSize(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	exec := &scriptedExecutor{answers: map[string]filesystem.CommandOutput{
		"md5sum":    {Stdout: "d41d8cd98f00b204e9800998ecf8427e\n"},
		"print t+0": {Stdout: "1024\n"},
	}}

	fp, err := fingerprint.New(config.ContentMode, zerolog.Nop()).Compute(context.Background(), exec, "/games/x")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(fp).To(Equal(fingerprint.Fingerprint{Hash: "d41d8cd98f00b204e9800998ecf8427e", SizeInBytes: 1024}))
	g.Expect(exec.calls).To(HaveLen(2))
	g.Expect(exec.calls[0]).To(HavePrefix("cd '/games/x' && "))
}

func TestCompute_EmptyStdoutCarriesStderr(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	exec := &scriptedExecutor{answers: map[string]filesystem.CommandOutput{
		"md5sum": {Stderr: "find: permission denied"},
	}}

	_, err := fingerprint.New(config.ContentMode, zerolog.Nop()).Compute(context.Background(), exec, "/games/x")
	g.Expect(err).To(MatchError(liberrors.ErrFingerprint))
	g.Expect(err.Error()).To(ContainSubstring("permission denied"))
}

func TestCompute_StderrFailsEvenWithOutput(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	exec := &scriptedExecutor{answers: map[string]filesystem.CommandOutput{
		"md5sum": {
			Stdout: "d41d8cd98f00b204e9800998ecf8427e\n",
			Stderr: "md5sum: ./save.dat: Permission denied\n",
		},
	}}

	_, err := fingerprint.New(config.ContentMode, zerolog.Nop()).Compute(context.Background(), exec, "/games/x")
	g.Expect(err).To(MatchError(liberrors.ErrFingerprint))
	g.Expect(err.Error()).To(ContainSubstring("save.dat: Permission denied"))
}

func TestCompute_ExecutorErrorFails(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	exec := &scriptedExecutor{err: errors.New("connection reset")}

	_, err := fingerprint.New(config.ContentMode, zerolog.Nop()).Compute(context.Background(), exec, "/games/x")
	g.Expect(err).To(MatchError(liberrors.ErrFingerprint))
	g.Expect(errors.Unwrap(err)).To(MatchError("connection reset"))
}

func TestCompute_RejectsMalformedHash(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	exec := &scriptedExecutor{answers: map[string]filesystem.CommandOutput{
		"md5sum": {Stdout: "not-a-hash"},
	}}

	_, err := fingerprint.New(config.ContentMode, zerolog.Nop()).Compute(context.Background(), exec, "/games/x")
	g.Expect(err).To(MatchError(ContainSubstring("unexpected content hash output")))
}

func TestCompute_RejectsNonIntegerSize(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	exec := &scriptedExecutor{answers: map[string]filesystem.CommandOutput{
		"md5sum":    {Stdout: "d41d8cd98f00b204e9800998ecf8427e"},
		"print t+0": {Stdout: "12.5"},
	}}

	_, err := fingerprint.New(config.ContentMode, zerolog.Nop()).Compute(context.Background(), exec, "/games/x")
	g.Expect(err).To(MatchError(ContainSubstring("unexpected size output")))
}

func TestCompute_MetadataModeAcceptsCksum(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	exec := &scriptedExecutor{answers: map[string]filesystem.CommandOutput{
		"cksum":     {Stdout: "3015617425\n"},
		"print t+0": {Stdout: "0\n"},
	}}

	fp, err := fingerprint.New(config.MetadataMode, zerolog.Nop()).Compute(context.Background(), exec, "/games/x")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(fp.Hash).To(Equal("3015617425"))
	g.Expect(fp.SizeInBytes).To(BeZero())
}

func TestHashCommand_QuotesDirectory(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(fingerprint.HashCommand(config.ContentMode, "/games/it's")).To(HavePrefix(`cd '/games/it'\''s' && `))
}

func TestFingerprint_Equal(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	a := fingerprint.Fingerprint{Hash: "abc", SizeInBytes: 1}
	g.Expect(a.Equal(fingerprint.Fingerprint{Hash: "abc", SizeInBytes: 1})).To(BeTrue())
	g.Expect(a.Equal(fingerprint.Fingerprint{Hash: "abc", SizeInBytes: 2})).To(BeFalse())
	g.Expect(fingerprint.Fingerprint{}.Empty()).To(BeTrue())
}

func requireTools(t *testing.T) {
	t.Helper()

	for _, tool := range []string{"find", "md5sum", "cksum", "awk", "sort", "cut"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available", tool)
		}
	}
}

// The content hash must not depend on where the tree lives or on creation order.
func TestCompute_RealShellIsLocationIndependent(t *testing.T) {
	t.Parallel()
	requireTools(t)

	g := NewWithT(t)

	first := t.TempDir()
	second := t.TempDir()

	g.Expect(os.MkdirAll(filepath.Join(first, "data"), 0o755)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(first, "a.bin"), []byte("alpha"), 0o644)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(first, "data", "b.bin"), []byte("beta!"), 0o644)).To(Succeed())

	g.Expect(os.WriteFile(filepath.Join(second, "b.bin"), []byte("beta!"), 0o644)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(second, "a.bin"), []byte("alpha"), 0o644)).To(Succeed())

	fingerprinter := fingerprint.New(config.ContentMode, zerolog.Nop())
	local := filesystem.NewLocalExecutor()

	one, err := fingerprinter.Compute(context.Background(), local, first)
	g.Expect(err).ToNot(HaveOccurred())

	two, err := fingerprinter.Compute(context.Background(), local, second)
	g.Expect(err).ToNot(HaveOccurred())

	g.Expect(one.Equal(two)).To(BeTrue())
	g.Expect(one.SizeInBytes).To(BeEquivalentTo(10))
}

func writeTree(t *testing.T, dir string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Join(dir, "data"), 0o755); err != nil {
		t.Fatal(err)
	}

	for name, contents := range map[string]string{"a.bin": "alpha", "data/b.bin": "beta!"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, name := range []string{"a.bin", "data/b.bin"} {
		if err := os.Chtimes(filepath.Join(dir, name), stamp, stamp); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCompute_RealShellDetectsChanges(t *testing.T) {
	t.Parallel()
	requireTools(t)

	later := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mode    config.FingerprintMode
		change  func(dir string) error
		differs bool
	}{
		{
			name:    "content mode sees a one-byte change",
			mode:    config.ContentMode,
			change:  func(dir string) error { return os.WriteFile(filepath.Join(dir, "a.bin"), []byte("alphb"), 0o644) },
			differs: true,
		},
		{
			name:    "content mode ignores a touch",
			mode:    config.ContentMode,
			change:  func(dir string) error { return os.Chtimes(filepath.Join(dir, "a.bin"), later, later) },
			differs: false,
		},
		{
			name:    "metadata mode sees a one-mtime change",
			mode:    config.MetadataMode,
			change:  func(dir string) error { return os.Chtimes(filepath.Join(dir, "data", "b.bin"), later, later) },
			differs: true,
		},
		{
			name:    "metadata mode sees a rename",
			mode:    config.MetadataMode,
			change:  func(dir string) error { return os.Rename(filepath.Join(dir, "a.bin"), filepath.Join(dir, "c.bin")) },
			differs: true,
		},
		{
			name:    "nothing changed",
			mode:    config.MetadataMode,
			change:  func(string) error { return nil },
			differs: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			dir := t.TempDir()
			writeTree(t, dir)

			fingerprinter := fingerprint.New(tt.mode, zerolog.Nop())
			local := filesystem.NewLocalExecutor()

			before, err := fingerprinter.Compute(context.Background(), local, dir)
			g.Expect(err).ToNot(HaveOccurred())

			again, err := fingerprinter.Compute(context.Background(), local, dir)
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(again).To(Equal(before))

			g.Expect(tt.change(dir)).To(Succeed())

			after, err := fingerprinter.Compute(context.Background(), local, dir)
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(after.Hash != before.Hash).To(Equal(tt.differs))
			g.Expect(after.SizeInBytes).To(Equal(before.SizeInBytes))
		})
	}
}

func TestCompute_RealShellEdgeCases(t *testing.T) {
	t.Parallel()
	requireTools(t)

	for _, mode := range []config.FingerprintMode{config.ContentMode, config.MetadataMode} {
		t.Run(mode.String(), func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			fingerprinter := fingerprint.New(mode, zerolog.Nop())
			local := filesystem.NewLocalExecutor()

			empty, err := fingerprinter.Compute(context.Background(), local, t.TempDir())
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(empty.SizeInBytes).To(BeZero())
			g.Expect(empty.Hash).ToNot(BeEmpty())

			_, err = fingerprinter.Compute(context.Background(), local, filepath.Join(t.TempDir(), "missing"))
			g.Expect(err).To(MatchError(liberrors.ErrFingerprint))
		})
	}
}
