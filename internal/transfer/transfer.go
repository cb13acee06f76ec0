// Package transfer copies directory trees to and from the archive host with
// rsync over ssh, reporting progress line by line.
package transfer

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	liberrors "github.com/joe/nexus-library/pkg/errors"
	"github.com/joe/nexus-library/pkg/fileops"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// Direction is which way a tree moves.
type Direction int

// Directions.
const (
	Upload Direction = iota
	Download
)

func (d Direction) String() string {
	if d == Download {
		return "download"
	}

	return "upload"
}

// Request describes one tree copy. Local is a path on this machine; Remote is
// relative to the remote user's home unless absolute.
type Request struct {
	// ID is the abort handle. Empty means the transfer cannot be aborted.
	ID        string
	Direction Direction
	Local     string
	Remote    string
	Exclude   []string
	Extra     []string
	// OnProgress receives every stdout and stderr line. May be nil.
	OnProgress ProgressFunc
}

// Options locate the archive host for rsync's ssh transport.
type Options struct {
	Host           string
	Port           int
	User           string
	PrivateKeyPath string
	// Binary defaults to "rsync".
	Binary string
}

// Orchestrator runs transfers and tracks them for abort.
type Orchestrator struct {
	opts     Options
	runner   Runner
	remote   filesystem.CommandExecutor
	local    filesystem.TreeFS
	registry *Registry
	logger   zerolog.Logger
}

// New creates an Orchestrator. remote creates upload destinations on the
// archive host; local creates download destinations.
func New(opts Options, runner Runner, remote filesystem.CommandExecutor, local filesystem.TreeFS, logger zerolog.Logger) *Orchestrator {
	if opts.Binary == "" {
		opts.Binary = "rsync"
	}

	return &Orchestrator{
		opts:     opts,
		runner:   runner,
		remote:   remote,
		local:    local,
		registry: NewRegistry(),
		logger:   logger,
	}
}

// Abort stops the transfer registered under id.
func (o *Orchestrator) Abort(id string) error {
	return o.registry.Abort(id)
}

// Running reports whether a transfer is registered under id.
func (o *Orchestrator) Running(id string) bool {
	return o.registry.Running(id)
}

// Transfer copies req's tree and blocks until rsync exits.
func (o *Orchestrator) Transfer(ctx context.Context, req Request) error {
	op := req.Direction.String()

	if err := o.prepareDestination(ctx, req); err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	if req.ID != "" {
		if err := o.registry.register(req.ID, cancel); err != nil {
			return err
		}
		defer o.registry.release(req.ID)
	}

	args := o.BuildArgs(req)
	o.logger.Info().Str("id", req.ID).Str("direction", op).Str("local", req.Local).Str("remote", req.Remote).Msg("transfer starting")
	o.logger.Debug().Strs("args", args).Msg("rsync command")

	lastErrLine, err := o.run(ctx, args, req.OnProgress)

	switch {
	case err == nil:
		o.logger.Info().Str("id", req.ID).Str("direction", op).Msg("transfer finished")

		return nil
	case errors.Is(context.Cause(ctx), ErrAborted):
		o.logger.Warn().Str("id", req.ID).Msg("transfer aborted")

		return liberrors.Wrap(ErrAborted, liberrors.KindTransfer, op).WithPath(req.Local)
	case lastErrLine != "":
		return liberrors.Wrapf(err, liberrors.KindTransfer, op, "%s", lastErrLine).WithPath(req.Local)
	default:
		return liberrors.Wrap(err, liberrors.KindTransfer, op).WithPath(req.Local)
	}
}

func (o *Orchestrator) prepareDestination(ctx context.Context, req Request) error {
	op := req.Direction.String()

	if req.Direction == Download {
		if err := o.local.MkdirAll(req.Local, fileops.DefaultDirPermissions); err != nil {
			return liberrors.Wrapf(err, liberrors.KindTransfer, op, "failed to create local directory").WithPath(req.Local)
		}

		return nil
	}

	out, err := o.remote.Run(ctx, "mkdir -p "+filesystem.QuotePath(req.Remote))
	if err != nil {
		return liberrors.Wrapf(err, liberrors.KindTransfer, op, "failed to create remote directory: %s", strings.TrimSpace(out.Stderr)).WithPath(req.Remote)
	}

	return nil
}

// run streams both output pipes through the line scanner while rsync runs.
// It returns the last stderr line for error reporting.
func (o *Orchestrator) run(ctx context.Context, args []string, onProgress ProgressFunc) (string, error) {
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		lastErrLine string
	)

	emit := func(line string) {
		if onProgress == nil || line == "" {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		onProgress(ParseProgress(line))
	}

	wg.Add(2) //nolint:mnd // stdout and stderr

	go func() {
		defer wg.Done()
		consume(stdoutR, emit)
	}()

	go func() {
		defer wg.Done()
		consume(stderrR, func(line string) {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				mu.Lock()
				lastErrLine = trimmed
				mu.Unlock()
			}

			emit(line)
		})
	}()

	err := o.runner.Run(ctx, o.opts.Binary, args, stdoutW, stderrW)
	_ = stdoutW.Close()
	_ = stderrW.Close()

	wg.Wait()

	return lastErrLine, err
}

func consume(r io.Reader, fn func(string)) {
	scanner := newLineScanner(r)
	for scanner.Scan() {
		fn(scanner.Text())
	}

	// Keep draining so the writer never blocks on an oversized line.
	_, _ = io.Copy(io.Discard, r)
}

// SSHCommand is the transport passed to rsync's -e.
func (o *Orchestrator) SSHCommand() string {
	parts := []string{"ssh", "-t"}

	if o.opts.PrivateKeyPath != "" {
		parts = append(parts, "-i", filesystem.QuotePath(o.opts.PrivateKeyPath))
	}

	parts = append(parts,
		"-o", "LogLevel=QUIET",
		"-o", "UserKnownHostsFile=/dev/null",
		"-o", "StrictHostKeyChecking=no",
		"-o", "PasswordAuthentication=no",
		"-o", "ServerAliveInterval=10",
	)

	if o.opts.Port != 0 && o.opts.Port != 22 {
		parts = append(parts, "-p", strconv.Itoa(o.opts.Port))
	}

	return strings.Join(parts, " ")
}

// BuildArgs returns rsync's argument list for req. Both paths get a trailing
// slash so rsync copies directory contents rather than the directory itself.
func (o *Orchestrator) BuildArgs(req Request) []string {
	args := []string{"-avzh", "--info=progress2", "--safe-links", "-e", o.SSHCommand()}

	for _, pattern := range req.Exclude {
		args = append(args, "--exclude="+pattern)
	}

	args = append(args, req.Extra...)

	local := withTrailingSlash(req.Local)
	remote := o.opts.User + "@" + o.opts.Host + ":" + withTrailingSlash(req.Remote)

	if req.Direction == Download {
		return append(args, remote, local)
	}

	return append(args, local, remote)
}

func withTrailingSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}

	return p + "/"
}
