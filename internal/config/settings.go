package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	liberrors "github.com/joe/nexus-library/pkg/errors"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// Catalog drivers.
const (
	DriverSFTP   = "sftp"
	DriverSQLite = "sqlite"
)

// NoPrefixAlias means "download without a prefix".
const NoPrefixAlias = "none"

// Library is one local volume that may hold installed games.
type Library struct {
	Label string `mapstructure:"label" json:"label"`
	Path  string `mapstructure:"path" json:"path"`
}

// BackupLocation is a local directory mirrored to the archive.
type BackupLocation struct {
	Path    string   `mapstructure:"path" json:"path"`
	Exclude []string `mapstructure:"exclude" json:"exclude,omitempty"`
	Extra   []string `mapstructure:"extra" json:"extra,omitempty"`
}

// SteamSettings locates the shortcut file.
type SteamSettings struct {
	UserID            string `mapstructure:"user_id"`
	UserName          string `mapstructure:"user_name"`
	UserConfigPath    string `mapstructure:"user_config_path"`
	ShortcutsFilename string `mapstructure:"shortcuts_filename"`
}

// RemoteSettings describes the archive host. Paths are relative to the
// remote user's home unless absolute.
type RemoteSettings struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	PrivateKeyPath  string `mapstructure:"private_key_path"`
	KnownHostsPath  string `mapstructure:"known_hosts_path"`
	GamesPath       string `mapstructure:"games_path"`
	PrefixesPath    string `mapstructure:"prefixes_path"`
	InitialPrefixes string `mapstructure:"initial_prefixes"`
	DBPath          string `mapstructure:"db_path"`
}

// LocalSettings describes this machine.
type LocalSettings struct {
	Libraries    []Library `mapstructure:"libraries"`
	PrefixesPath string    `mapstructure:"prefixes_path"`
	IconsPath    string    `mapstructure:"icons_path"`
}

// LauncherSettings roots the per-launcher path templates.
type LauncherSettings struct {
	EmulationPath  string `mapstructure:"emulation_path"`
	PortProtonPath string `mapstructure:"port_proton_path"`
}

// CatalogSettings selects the record store.
type CatalogSettings struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// BackupSettings lists custom backup locations.
type BackupSettings struct {
	RemoteLocation string           `mapstructure:"remote_location"`
	LocalLocations []BackupLocation `mapstructure:"local_locations"`
}

// LogSettings configures the rotating log file.
type LogSettings struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Settings is the validated settings file. It is passed explicitly to
// every component constructor.
type Settings struct {
	Steam     SteamSettings    `mapstructure:"steam"`
	Remote    RemoteSettings   `mapstructure:"remote"`
	Local     LocalSettings    `mapstructure:"local"`
	Launchers LauncherSettings `mapstructure:"launchers"`
	Catalog   CatalogSettings  `mapstructure:"catalog"`
	Backup    BackupSettings   `mapstructure:"backup"`
	Log       LogSettings      `mapstructure:"log"`

	FingerprintModeName string          `mapstructure:"fingerprint_mode"`
	FingerprintMode     FingerprintMode `mapstructure:"-"`
}

// Load reads and validates the settings file at configPath. Values may be
// overridden by NEXUS_* environment variables, e.g. NEXUS_REMOTE_HOST.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("NEXUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil, liberrors.Wrapf(err, liberrors.KindConfig, "load", "settings file not found").WithPath(configPath)
		}

		return nil, liberrors.Wrapf(err, liberrors.KindConfig, "load", "failed to parse settings").WithPath(configPath)
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, liberrors.Wrapf(err, liberrors.KindConfig, "load", "failed to decode settings").WithPath(configPath)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("steam.shortcuts_filename", "shortcuts.vdf")
	v.SetDefault("remote.port", 22)
	v.SetDefault("remote.games_path", "Nexus/Games")
	v.SetDefault("remote.prefixes_path", "Nexus/Prefixes")
	v.SetDefault("remote.initial_prefixes", "initial")
	v.SetDefault("remote.db_path", "Nexus/DB")
	v.SetDefault("local.icons_path", filepath.Join(xdg.DataHome, AppName, "icons"))
	v.SetDefault("catalog.driver", DriverSFTP)
	v.SetDefault("catalog.sqlite_path", filepath.Join(xdg.DataHome, AppName, "catalog.db"))
	v.SetDefault("fingerprint_mode", ContentMode.String())
	v.SetDefault("log.file", filepath.Join(xdg.StateHome, AppName, AppName+".log"))
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// Validate checks required values and resolves derived ones.
func (s *Settings) Validate() error {
	var problems []string

	if s.Remote.Host == "" {
		problems = append(problems, "remote.host is required")
	}

	if s.Remote.User == "" {
		problems = append(problems, "remote.user is required")
	}

	if len(s.Local.Libraries) == 0 {
		problems = append(problems, "local.libraries needs at least one entry")
	}

	for i, lib := range s.Local.Libraries {
		if lib.Path == "" {
			problems = append(problems, fmt.Sprintf("local.libraries[%d].path is required", i))
		}

		if lib.Label == "" {
			s.Local.Libraries[i].Label = filepath.Base(lib.Path)
		}
	}

	switch s.Catalog.Driver {
	case DriverSFTP, DriverSQLite:
	default:
		problems = append(problems, fmt.Sprintf("catalog.driver %q is not one of sftp, sqlite", s.Catalog.Driver))
	}

	mode, err := ParseFingerprintMode(s.FingerprintModeName)
	if err != nil {
		problems = append(problems, err.Error())
	}
	s.FingerprintMode = mode

	if len(problems) > 0 {
		return liberrors.New(liberrors.KindConfig, "validate", strings.Join(problems, "; "))
	}

	return nil
}

// ApplyArchiveURL overrides host, user and port from a --remote value.
func (s *Settings) ApplyArchiveURL(raw string) error {
	loc, err := filesystem.ParseArchiveURL(raw)
	if err != nil {
		return liberrors.Wrap(err, liberrors.KindConfig, "remote")
	}

	s.Remote.Host = loc.Host
	s.Remote.User = loc.User
	s.Remote.Port = loc.Port

	if loc.Root != "." {
		s.Remote.GamesPath = path.Join(loc.Root, "Games")
		s.Remote.PrefixesPath = path.Join(loc.Root, "Prefixes")
		s.Remote.DBPath = path.Join(loc.Root, "DB")
	}

	return nil
}

// Endpoint returns the ssh endpoint of the archive host.
func (s *Settings) Endpoint() filesystem.Endpoint {
	return filesystem.Endpoint{
		Host:           s.Remote.Host,
		Port:           s.Remote.Port,
		User:           s.Remote.User,
		PrivateKeyPath: s.Remote.PrivateKeyPath,
		KnownHostsPath: s.Remote.KnownHostsPath,
	}
}

// ShortcutsPath is <user_config_path>/<user_id>/config/<shortcuts_filename>.
func (s *Settings) ShortcutsPath() string {
	return filepath.Join(s.Steam.UserConfigPath, s.Steam.UserID, "config", s.Steam.ShortcutsFilename)
}

// RemoteGamePath is where a game lives on the archive host.
func (s *Settings) RemoteGamePath(gameLocation string) string {
	return path.Join(s.Remote.GamesPath, gameLocation)
}

// RemoteInitialPrefixPath is the shared baseline prefix on the archive host.
func (s *Settings) RemoteInitialPrefixPath(prefixLocation string) string {
	return path.Join(s.Remote.PrefixesPath, s.Remote.InitialPrefixes, prefixLocation)
}

// RemotePrefixPath is a prefix under a named alias on the archive host.
func (s *Settings) RemotePrefixPath(alias, prefixLocation string) string {
	return path.Join(s.Remote.PrefixesPath, alias, prefixLocation)
}

// LocalPrefixPath is where a prefix lives on this machine.
func (s *Settings) LocalPrefixPath(prefixLocation string) string {
	return filepath.Join(s.Local.PrefixesPath, prefixLocation)
}

// IconPath is the local image file referenced by a shortcut entry.
func (s *Settings) IconPath(id string) string {
	return filepath.Join(s.Local.IconsPath, id+".jpg")
}
