// Package logging configures zerolog for the CLI.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where logs go besides the console.
type Options struct {
	// File is the rotating log file; empty disables file logging.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Console receives human-readable output; nil means stderr.
	Console io.Writer
	NoColor bool
}

// LevelFor maps a -v count to a zerolog level.
func LevelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2: //nolint:mnd // verbosity steps
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup configures the global logger: a console writer plus JSON lines in a
// rotating file. It returns a closer for the file.
func Setup(verbosity int, opts Options) func() error {
	zerolog.SetGlobalLevel(LevelFor(verbosity))

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: "15:04:05.000",
		NoColor:    opts.NoColor,
	}}

	closer := func() error { return nil }

	var fileErr error
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil { //nolint:mnd // standard dir perms
			fileErr = err
		} else {
			rotating := &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    opts.MaxSizeMB,
				MaxBackups: opts.MaxBackups,
				MaxAge:     opts.MaxAgeDays,
			}
			writers = append(writers, rotating)
			closer = rotating.Close
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	if verbosity >= 2 { //nolint:mnd // caller info from debug up
		logger = logger.With().Caller().Logger()
	}

	log.Logger = logger

	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", opts.File).Msg("Failed to create log directory, logging to console only")
	}

	log.Debug().Int("verbosity", verbosity).Str("logFile", opts.File).Msg("Logger initialized")

	return closer
}

// GetLogger returns a logger tagged with a component name.
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// LogOperationStart logs the start of a workflow operation and returns a
// function that logs its end with the elapsed time.
func LogOperationStart(logger zerolog.Logger, operation, id string) func(err error) {
	start := time.Now()
	logger.Info().Str("op", operation).Str("id", id).Msg("Operation started")

	return func(err error) {
		event := logger.Info()
		if err != nil {
			event = logger.Error().Err(err)
		}

		event.Str("op", operation).Str("id", id).Dur("elapsed", time.Since(start)).Msg("Operation finished")
	}
}
