// Package main is the entry point for the nexus-library command.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/nexus-library/internal/config"
	"github.com/joe/nexus-library/internal/logging"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	args, parser, err := config.ParseArgs(argv)

	switch {
	case errors.Is(err, arg.ErrHelp):
		parser.WriteHelp(os.Stdout)
		return exitOK
	case errors.Is(err, arg.ErrVersion):
		fmt.Fprintln(os.Stdout, args.Version())
		return exitOK
	case err != nil && parser == nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	case err != nil:
		parser.WriteUsage(os.Stderr)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return exitUsage
	}

	settings, err := config.Load(args.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}

	if err := applyOverrides(args, settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // fd fits in int

	closeLog := logging.Setup(args.Verbosity, logging.Options{
		File:       settings.Log.File,
		MaxSizeMB:  settings.Log.MaxSizeMB,
		MaxBackups: settings.Log.MaxBackups,
		MaxAgeDays: settings.Log.MaxAgeDays,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())), //nolint:gosec // fd fits in int
	})
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, args, settings, os.Stdout, interactive && !args.NoTUI && !args.JSON)
	if err != nil {
		return report(os.Stderr, err)
	}
	defer a.Close()

	return a.dispatch(ctx)
}

func applyOverrides(args *config.Args, settings *config.Settings) error {
	if args.Remote != "" {
		if err := settings.ApplyArchiveURL(args.Remote); err != nil {
			return err //nolint:wrapcheck // already a config error
		}
	}

	if mode, ok := args.FingerprintOverride(); ok {
		settings.FingerprintMode = mode
		settings.FingerprintModeName = mode.String()
	}

	return nil
}
