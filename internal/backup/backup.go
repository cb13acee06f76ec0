// Package backup mirrors local prefixes and configured directories to the
// archive host.
package backup

import (
	"context"
	"path"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/joe/nexus-library/internal/config"
	"github.com/joe/nexus-library/internal/library"
	"github.com/joe/nexus-library/internal/transfer"
	liberrors "github.com/joe/nexus-library/pkg/errors"
)

// TransferID is the abort handle shared by every backup transfer.
const TransferID = "backup"

// Service runs backups one transfer at a time.
type Service struct {
	settings  *config.Settings
	transfers library.Transferer
	logger    zerolog.Logger
	emitter   library.EventEmitter
	stop      atomic.Bool
}

// New creates a Service.
func New(settings *config.Settings, transfers library.Transferer, logger zerolog.Logger) *Service {
	return &Service{settings: settings, transfers: transfers, logger: logger}
}

// SetEventEmitter sets the receiver of transfer events.
func (s *Service) SetEventEmitter(emitter library.EventEmitter) {
	s.emitter = emitter
}

func (s *Service) emit(event library.Event) {
	if s.emitter != nil {
		s.emitter.Emit(event)
	}
}

// PrefixesDestination is remote.prefixes_path/<steam.user_name>.
func (s *Service) PrefixesDestination() string {
	return path.Join(s.settings.Remote.PrefixesPath, s.settings.Steam.UserName)
}

// LocationDestination is backup.remote_location/<steam.user_name>/<loc.path>.
func (s *Service) LocationDestination(loc config.BackupLocation) string {
	return path.Join(s.settings.Backup.RemoteLocation, s.settings.Steam.UserName, loc.Path)
}

// Prefixes uploads the whole local prefixes root.
func (s *Service) Prefixes(ctx context.Context) library.Result {
	if s.settings.Local.PrefixesPath == "" {
		return failed(liberrors.New(liberrors.KindConfig, "backup", "local.prefixes_path is not set"))
	}

	err := s.upload(ctx, transfer.Request{
		Local:  s.settings.Local.PrefixesPath,
		Remote: s.PrefixesDestination(),
	})
	if err != nil {
		return failed(liberrors.Wrapf(err, liberrors.KindTransfer, "backup", "failed to upload prefixes backup"))
	}

	return library.Result{Status: library.StatusSuccess}
}

// Location uploads one configured directory with its exclude and extra
// rsync arguments.
func (s *Service) Location(ctx context.Context, loc config.BackupLocation) library.Result {
	if err := s.validate(loc); err != nil {
		return failed(err)
	}

	err := s.upload(ctx, transfer.Request{
		Local:   loc.Path,
		Remote:  s.LocationDestination(loc),
		Exclude: loc.Exclude,
		Extra:   loc.Extra,
	})
	if err != nil {
		return failed(liberrors.Wrapf(err, liberrors.KindTransfer, "backup", "failed to upload custom backup").WithPath(loc.Path))
	}

	return library.Result{Status: library.StatusSuccess}
}

// AllLocations backs up every configured location in order. Failures are
// collected in Errors; an Abort stops before the next location.
func (s *Service) AllLocations(ctx context.Context) library.Result {
	s.stop.Store(false)

	var errs []string

	for _, loc := range s.settings.Backup.LocalLocations {
		if s.stop.Load() || ctx.Err() != nil {
			break
		}

		if res := s.Location(ctx, loc); !res.OK() {
			errs = append(errs, res.Message)
		}
	}

	return library.Result{Status: library.StatusSuccess, Errors: errs}
}

// Abort stops the running backup transfer and any remaining locations.
func (s *Service) Abort() error {
	s.stop.Store(true)
	return s.transfers.Abort(TransferID) //nolint:wrapcheck // orchestrator errors are already kinded
}

// Find returns the configured location with the given path.
func (s *Service) Find(localPath string) (config.BackupLocation, bool) {
	for _, loc := range s.settings.Backup.LocalLocations {
		if loc.Path == localPath {
			return loc, true
		}
	}

	return config.BackupLocation{}, false
}

func (s *Service) validate(loc config.BackupLocation) error {
	if loc.Path == "" {
		return liberrors.New(liberrors.KindValidation, "backup", "location path is required")
	}

	if s.settings.Backup.RemoteLocation == "" {
		return liberrors.New(liberrors.KindConfig, "backup", "backup.remote_location is not set")
	}

	for _, pattern := range loc.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return liberrors.Newf(liberrors.KindValidation, "backup", "invalid exclude pattern %q", pattern).WithPath(loc.Path)
		}
	}

	return nil
}

func (s *Service) upload(ctx context.Context, req transfer.Request) error {
	req.ID = TransferID
	req.Direction = transfer.Upload
	req.OnProgress = func(p transfer.Progress) {
		s.emit(library.TransferProgress{ID: TransferID, Part: library.PartBackup, Progress: p})
	}

	s.logger.Info().Str("local", req.Local).Str("remote", req.Remote).Msg("backup starting")
	s.emit(library.TransferStarted{ID: TransferID, Part: library.PartBackup, Direction: req.Direction, Local: req.Local, Remote: req.Remote})

	err := s.transfers.Transfer(ctx, req)
	s.emit(library.TransferFinished{ID: TransferID, Part: library.PartBackup, Err: err})

	if err != nil {
		s.logger.Error().Err(err).Str("local", req.Local).Msg("backup failed")
	}

	return err //nolint:wrapcheck // wrapped by the caller
}

func failed(err error) library.Result {
	return library.Result{Status: library.StatusError, Message: err.Error(), Err: err}
}
