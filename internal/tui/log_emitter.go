package tui

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/joe/nexus-library/internal/library"
)

// LogEmitter reports workflow events as log lines, for --no-tui and
// non-terminal output. Progress lines are throttled.
type LogEmitter struct {
	logger   zerolog.Logger
	interval time.Duration
	last     map[library.Part]time.Time
	now      func() time.Time
}

// NewLogEmitter creates a LogEmitter that logs progress at most once per
// interval per part.
func NewLogEmitter(logger zerolog.Logger, interval time.Duration) *LogEmitter {
	return &LogEmitter{
		logger:   logger,
		interval: interval,
		last:     map[library.Part]time.Time{},
		now:      time.Now,
	}
}

// Emit implements library.EventEmitter.
func (l *LogEmitter) Emit(event library.Event) {
	switch e := event.(type) {
	case library.TransferStarted:
		l.logger.Info().Str("id", e.ID).Str("part", string(e.Part)).Str("direction", e.Direction.String()).
			Str("local", e.Local).Str("remote", e.Remote).Msg("transfer started")
	case library.TransferProgress:
		if e.Progress.Percentage == nil {
			l.logger.Debug().Str("id", e.ID).Msg(e.Progress.RawOutput)
			return
		}

		now := l.now()
		if now.Sub(l.last[e.Part]) < l.interval {
			return
		}

		l.last[e.Part] = now

		speed := ""
		if e.Progress.Speed != nil {
			speed = *e.Progress.Speed
		}

		l.logger.Info().Str("id", e.ID).Str("part", string(e.Part)).
			Str("percentage", *e.Progress.Percentage).Str("speed", speed).Msg("transfer progress")
	case library.TransferFinished:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("id", e.ID).Str("part", string(e.Part)).Msg("transfer failed")
			return
		}

		l.logger.Info().Str("id", e.ID).Str("part", string(e.Part)).Msg("transfer finished")
	case library.VerifyFinished:
		l.logger.Info().Str("id", e.ID).Str("part", string(e.Part)).Bool("match", e.Match).
			Str("local", e.Local.Hash).Str("remote", e.Remote.Hash).Msg("verified")
	case library.ShortcutSynced:
		l.logger.Info().Str("id", e.ID).Str("title", e.Title).Msg("shortcut synced")
	}
}
