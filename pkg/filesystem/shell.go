package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/crypto/ssh"
)

// CommandOutput is what a shell command wrote.
type CommandOutput struct {
	Stdout string
	Stderr string
}

// CommandExecutor runs one shell command and returns its output.
type CommandExecutor interface {
	Run(ctx context.Context, command string) (CommandOutput, error)
}

// QuotePath single-quotes p for a POSIX shell.
func QuotePath(p string) string {
	return "'" + strings.ReplaceAll(p, "'", `'\''`) + "'"
}

// LocalExecutor runs commands with the local sh.
type LocalExecutor struct {
	Shell string
}

// NewLocalExecutor creates a LocalExecutor using /bin/sh.
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{Shell: "sh"}
}

// Run executes command with sh -c. The output is returned alongside any
// exit error so callers can report stderr.
func (e *LocalExecutor) Run(ctx context.Context, command string) (CommandOutput, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, e.Shell, "-c", command) //nolint:gosec // commands are built with QuotePath
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := CommandOutput{Stdout: stdout.String(), Stderr: stderr.String()}

	if err != nil {
		return out, fmt.Errorf("local command failed: %w", err)
	}

	return out, nil
}

// SSHExecutor runs commands on the archive host, one session per command.
type SSHExecutor struct {
	client *ssh.Client
}

// NewSSHExecutor creates an SSHExecutor on an established connection.
func NewSSHExecutor(conn *SFTPConnection) *SSHExecutor {
	return &SSHExecutor{client: conn.SSHClient()}
}

// Run executes command in a new session. Cancelling ctx closes the session,
// which makes the remote sshd hang up on the command.
func (e *SSHExecutor) Run(ctx context.Context, command string) (CommandOutput, error) {
	session, err := e.client.NewSession()
	if err != nil {
		return CommandOutput{}, fmt.Errorf("failed to open SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		<-done

		return CommandOutput{Stdout: stdout.String(), Stderr: stderr.String()}, ctx.Err()
	case err = <-done:
	}

	out := CommandOutput{Stdout: stdout.String(), Stderr: stderr.String()}

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return out, fmt.Errorf("remote command exited with status %d: %w", exitErr.ExitStatus(), err)
		}

		return out, fmt.Errorf("remote command failed: %w", err)
	}

	return out, nil
}
