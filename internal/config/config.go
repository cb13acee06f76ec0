// Package config handles command-line parsing and the settings file.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/alexflint/go-arg"
)

// AppName names the config, state and data directories.
const AppName = "nexus-library"

// FingerprintMode selects how directory fingerprints are computed.
type FingerprintMode int

const (
	// ContentMode hashes every file's bytes. Slow over network filesystems
	// but detects silent corruption.
	ContentMode FingerprintMode = iota
	// MetadataMode hashes (mtime, size, lowercased path) per file. Fast, but
	// only sees adds, removes, renames and touches.
	MetadataMode
)

// String returns the settings-file spelling of the mode.
func (m FingerprintMode) String() string {
	switch m {
	case ContentMode:
		return "content"
	case MetadataMode:
		return "metadata"
	default:
		return "unknown"
	}
}

// ParseFingerprintMode parses a mode name.
func ParseFingerprintMode(s string) (FingerprintMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "content", "md5", "":
		return ContentMode, nil
	case "metadata", "meta":
		return MetadataMode, nil
	default:
		return ContentMode, fmt.Errorf("invalid fingerprint mode: %s (valid: content, metadata)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg.
func (m *FingerprintMode) UnmarshalText(text []byte) error {
	parsed, err := ParseFingerprintMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed

	return nil
}

// ListCmd prints the reconciled library.
type ListCmd struct {
	Filter string `arg:"-f,--filter" help:"only titles matching this glob (case-insensitive), e.g. '*zelda*'"`
}

// SaveCmd validates and persists a title's catalog fields.
type SaveCmd struct {
	ID             string `arg:"positional,required" help:"launcher app id"`
	Title          string `arg:"--title" help:"display title"`
	ExeTarget      string `arg:"--exe" help:"executable target"`
	StartDir       string `arg:"--start-dir" help:"working directory"`
	LaunchArgs     string `arg:"--launch-args" help:"launch options"`
	Launcher       string `arg:"--launcher" help:"NOOP|PORT_PROTON|PS2|PS3|SWITCH_CITRON|SWITCH_RYUJINX"`
	LauncherTarget string `arg:"--launcher-target" help:"file or directory the launcher starts"`
	GameLocation   string `arg:"--game-location" help:"game directory relative to a library"`
	PrefixLocation string `arg:"--prefix-location" help:"prefix directory relative to the prefixes root"`
	LocalGamePath  string `arg:"--local-path" help:"absolute local game directory for shortcut-only titles"`
}

// IDCmd is a subcommand that takes only a title id.
type IDCmd struct {
	ID string `arg:"positional,required" help:"launcher app id"`
}

// DownloadCmd copies a title from the archive.
type DownloadCmd struct {
	ID      string `arg:"positional,required" help:"launcher app id"`
	Library string `arg:"-l,--library,required" help:"library path to install into"`
	Prefix  string `arg:"-p,--prefix" default:"none" help:"remote prefix alias to install, or none"`
}

// DeleteCmd removes a title's local copy.
type DeleteCmd struct {
	ID     string `arg:"positional,required" help:"launcher app id"`
	Prefix bool   `arg:"--prefix" help:"also delete the local prefix"`
}

// SyncCmd re-renders shortcut entries.
type SyncCmd struct {
	ID  string `arg:"positional" help:"launcher app id"`
	All bool   `arg:"--all" help:"sync every active title"`
}

// IconCmd uploads an icon image.
type IconCmd struct {
	ID   string `arg:"positional,required" help:"launcher app id"`
	File string `arg:"positional,required" help:"image file (png, jpeg or gif)"`
}

// BackupCmd uploads prefixes or custom locations.
type BackupCmd struct {
	Target string `arg:"positional,required" help:"prefixes, locations, or a configured location path"`
}

// WatchCmd keeps presence titles current as volumes come and go.
type WatchCmd struct{}

// Args holds the parsed command line.
type Args struct {
	ConfigPath  string          `arg:"-c,--config,env:NEXUS_CONFIG" help:"settings file"`
	Verbosity   int             `arg:"-v,--verbosity" default:"0" help:"0=warn 1=info 2=debug 3=trace"`
	JSON        bool            `arg:"--json" help:"print results as JSON"`
	Remote      string          `arg:"--remote" help:"override the archive host, e.g. sftp://deck@nexus.host:22"`
	Fingerprint FingerprintMode `arg:"--fingerprint" help:"override fingerprint mode: content|metadata"`
	NoTUI       bool            `arg:"--no-tui" help:"log progress instead of drawing a progress bar"`

	List     *ListCmd     `arg:"subcommand:list" help:"show the reconciled library"`
	Save     *SaveCmd     `arg:"subcommand:save" help:"validate and persist a title"`
	Upload   *IDCmd       `arg:"subcommand:upload" help:"upload and verify a title"`
	Download *DownloadCmd `arg:"subcommand:download" help:"install a title from the archive"`
	Delete   *DeleteCmd   `arg:"subcommand:delete" help:"remove a title's local copy"`
	Refresh  *IDCmd       `arg:"subcommand:refresh" help:"recompute local and remote fingerprints"`
	Details  *IDCmd       `arg:"subcommand:details" help:"list prefix aliases and libraries for a download"`
	Sync     *SyncCmd     `arg:"subcommand:sync" help:"re-render shortcut entries"`
	Icon     *IconCmd     `arg:"subcommand:icon" help:"upload an icon"`
	Backup   *BackupCmd   `arg:"subcommand:backup" help:"back up prefixes or custom locations"`
	Watch    *WatchCmd    `arg:"subcommand:watch" help:"re-sync presence titles when libraries change"`

	fingerprintSet bool
}

// Description returns the program description for go-arg.
func (Args) Description() string {
	return "Reconciles a game library across the catalog, Steam shortcuts and local volumes"
}

// Version returns the version string for go-arg.
func (Args) Version() string {
	return AppName + " 1.0.0"
}

// FingerprintOverride returns the --fingerprint value and whether it was given.
func (a *Args) FingerprintOverride() (FingerprintMode, bool) {
	return a.Fingerprint, a.fingerprintSet
}

// ParseArgs parses argv. The returned parser is used by the caller for help
// output and failures.
func ParseArgs(argv []string) (*Args, *arg.Parser, error) {
	args := &Args{ConfigPath: DefaultConfigPath()}

	parser, err := arg.NewParser(arg.Config{Program: AppName}, args)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build argument parser: %w", err)
	}

	if err := parser.Parse(argv); err != nil {
		return args, parser, err //nolint:wrapcheck // arg.ErrHelp and arg.ErrVersion are compared by the caller
	}

	for _, a := range argv {
		if a == "--fingerprint" || strings.HasPrefix(a, "--fingerprint=") {
			args.fingerprintSet = true
		}
	}

	if parser.Subcommand() == nil {
		return args, parser, fmt.Errorf("a subcommand is required") //nolint:err113 // usage error
	}

	if args.Sync != nil && args.Sync.ID == "" && !args.Sync.All {
		return args, parser, fmt.Errorf("sync needs an id or --all") //nolint:err113 // usage error
	}

	return args, parser, nil
}

// DefaultConfigPath is $XDG_CONFIG_HOME/nexus-library/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}
