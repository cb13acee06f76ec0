// Package fingerprint computes order-independent directory fingerprints by
// running shell pipelines on the machine that holds the directory.
package fingerprint

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/joe/nexus-library/internal/config"
	liberrors "github.com/joe/nexus-library/pkg/errors"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// Fingerprint identifies a directory tree. Two trees with equal content have
// equal fingerprints wherever they live.
type Fingerprint struct {
	Hash        string `json:"hash,omitempty"`
	SizeInBytes int64  `json:"sizeInBytes"`
}

// Empty reports whether no hash was ever recorded.
func (f Fingerprint) Empty() bool {
	return f.Hash == ""
}

// Equal compares hash and size.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Hash == other.Hash && f.SizeInBytes == other.SizeInBytes
}

var (
	md5Pattern    = regexp.MustCompile(`^[0-9a-f]{32}$`)
	cksumPattern  = regexp.MustCompile(`^[0-9]+$`)
	integerFormat = regexp.MustCompile(`^[0-9]+$`)
)

// Fingerprinter runs the fingerprint pipelines.
type Fingerprinter struct {
	mode   config.FingerprintMode
	logger zerolog.Logger
}

// New creates a Fingerprinter for mode.
func New(mode config.FingerprintMode, logger zerolog.Logger) *Fingerprinter {
	return &Fingerprinter{mode: mode, logger: logger}
}

// Mode returns the hashing mode in use.
func (f *Fingerprinter) Mode() config.FingerprintMode {
	return f.mode
}

// HashCommand is the pipeline that prints the hash of dir.
func HashCommand(mode config.FingerprintMode, dir string) string {
	cd := "cd " + filesystem.QuotePath(dir) + " && "

	if mode == config.MetadataMode {
		return cd + `find . -type f -printf '%T@ %s %p\n' | awk '{print tolower($0)}' | LC_ALL=C sort | cksum | cut -d' ' -f1`
	}

	return cd + `find . -type f -exec md5sum {} \; | cut -d' ' -f1 | LC_ALL=C sort | md5sum | cut -d' ' -f1`
}

// SizeCommand is the pipeline that prints the total file size of dir.
func SizeCommand(dir string) string {
	return "cd " + filesystem.QuotePath(dir) + ` && find . -type f -printf '%s\n' | awk '{ t += $1 } END { print t+0 }'`
}

// Compute fingerprints dir through exec. Hash and size are computed
// sequentially; a failure of either fails the whole fingerprint.
func (f *Fingerprinter) Compute(ctx context.Context, exec filesystem.CommandExecutor, dir string) (Fingerprint, error) {
	hash, err := f.hash(ctx, exec, dir)
	if err != nil {
		return Fingerprint{}, err
	}

	size, err := f.size(ctx, exec, dir)
	if err != nil {
		return Fingerprint{}, err
	}

	f.logger.Debug().Str("dir", dir).Str("hash", hash).Int64("size", size).Msg("fingerprint computed")

	return Fingerprint{Hash: hash, SizeInBytes: size}, nil
}

func (f *Fingerprinter) hash(ctx context.Context, exec filesystem.CommandExecutor, dir string) (string, error) {
	out, err := run(ctx, exec, HashCommand(f.mode, dir), dir, "hash")
	if err != nil {
		return "", err
	}

	pattern := md5Pattern
	if f.mode == config.MetadataMode {
		pattern = cksumPattern
	}

	if !pattern.MatchString(out) {
		return "", liberrors.Newf(liberrors.KindFingerprint, "hash", "unexpected %s hash output %q", f.mode, out).WithPath(dir)
	}

	return out, nil
}

func (f *Fingerprinter) size(ctx context.Context, exec filesystem.CommandExecutor, dir string) (int64, error) {
	out, err := run(ctx, exec, SizeCommand(dir), dir, "size")
	if err != nil {
		return 0, err
	}

	if !integerFormat.MatchString(out) {
		return 0, liberrors.Newf(liberrors.KindFingerprint, "size", "unexpected size output %q", out).WithPath(dir)
	}

	size, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		return 0, liberrors.Wrap(err, liberrors.KindFingerprint, "size").WithPath(dir)
	}

	return size, nil
}

func run(ctx context.Context, exec filesystem.CommandExecutor, command, dir, op string) (string, error) {
	out, err := exec.Run(ctx, command)
	if err != nil {
		if stderr := strings.TrimSpace(out.Stderr); stderr != "" {
			return "", liberrors.Wrapf(err, liberrors.KindFingerprint, op, "%s", stderr).WithPath(dir)
		}

		return "", liberrors.Wrap(err, liberrors.KindFingerprint, op).WithPath(dir)
	}

	// A failing stage early in a pipeline does not change its exit status, so
	// anything on stderr (an unreadable file, a vanished directory) fails the
	// fingerprint instead of silently dropping files from it.
	if stderr := strings.TrimSpace(out.Stderr); stderr != "" {
		return "", liberrors.Newf(liberrors.KindFingerprint, op, "pipeline reported errors: %s", stderr).WithPath(dir)
	}

	stdout := strings.TrimSpace(out.Stdout)
	if stdout == "" {
		return "", liberrors.Newf(liberrors.KindFingerprint, op, "no output, stderr: %s", strings.TrimSpace(out.Stderr)).WithPath(dir)
	}

	return stdout, nil
}
