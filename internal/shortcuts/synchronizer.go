// Package shortcuts reads and rewrites the launcher's binary shortcut file
// so each active title appears with its current launch triple and presence.
package shortcuts

import (
	"errors"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/config"
	"github.com/joe/nexus-library/internal/launcher"
	liberrors "github.com/joe/nexus-library/pkg/errors"
	"github.com/joe/nexus-library/pkg/fileops"
	"github.com/joe/nexus-library/pkg/filesystem"
)

const backupTimeLayout = "20060102T150405"

// TimeProvider supplies the time used to name backups.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider implements TimeProvider with time.Now.
type RealTimeProvider struct{}

// Now returns the current time.
func (RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Synchronizer keeps shortcut entries in line with catalog items.
type Synchronizer struct {
	path      string
	fs        filesystem.FileSystem
	files     *fileops.FileOps
	resolver  *launcher.Resolver
	libraries []config.Library
	clock     TimeProvider
	logger    zerolog.Logger

	mu sync.Mutex
}

// NewSynchronizer creates a Synchronizer for the shortcut file at path.
func NewSynchronizer(path string, fs filesystem.FileSystem, resolver *launcher.Resolver, libraries []config.Library, logger zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		path:      path,
		fs:        fs,
		files:     fileops.NewFileOps(fs),
		resolver:  resolver,
		libraries: libraries,
		clock:     RealTimeProvider{},
		logger:    logger,
	}
}

// SetTimeProvider replaces the clock used for backup names.
func (s *Synchronizer) SetTimeProvider(clock TimeProvider) {
	s.clock = clock
}

// Path returns the shortcut file location.
func (s *Synchronizer) Path() string {
	return s.path
}

// Sync renders item into its shortcut entry. Items that are not active
// catalog titles are left alone. The file is backed up and replaced only
// when an attribute actually changed.
func (s *Synchronizer) Sync(item *catalog.GameItem) error {
	if item.Source != catalog.SourceCatalog || item.Status != catalog.StatusActive {
		return nil
	}

	triple, err := s.resolver.Triple(item.Launcher, item.LaunchTitle())
	if err != nil {
		return liberrors.Wrap(err, liberrors.KindShortcutSync, "sync").WithPath(s.path)
	}

	title := PresenceTitle(item, s.libraries, s.fs)

	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := s.load()
	if err != nil {
		return err
	}

	list := shortcutList(root)
	entry := findEntry(list, item.ID)
	changed := false

	if entry == nil {
		entry = newEntry(nextIndex(list), item.ID, title, triple.ExeTarget, triple.StartDir, item.IconPath, triple.LaunchArgs)
		list.Append(entry)
		changed = true
	} else {
		changed = writeString(entry, FieldAppName, title) || changed
		changed = writeString(entry, FieldExe, triple.ExeTarget) || changed
		changed = writeString(entry, FieldStartDir, triple.StartDir) || changed
		changed = writeString(entry, FieldLaunchOptions, triple.LaunchArgs) || changed

		if item.IconPath != "" {
			changed = writeString(entry, FieldIcon, item.IconPath) || changed
		}
	}

	if changed {
		if err := s.replace(root); err != nil {
			return err
		}

		s.logger.Info().Str("id", item.ID).Str("title", title).Msg("shortcut updated")
	} else {
		s.logger.Debug().Str("id", item.ID).Msg("shortcut unchanged")
	}

	item.LocalState.LastRenderedTitle = title

	return nil
}

// Entries returns every shortcut in file order.
func (s *Synchronizer) Entries() ([]catalog.ShortcutEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := s.load()
	if err != nil {
		return nil, err
	}

	list := shortcutList(root)
	entries := make([]catalog.ShortcutEntry, 0, len(list.Children))

	for _, entry := range list.Children {
		if entry.Type != TypeMap {
			continue
		}

		entries = append(entries, catalog.ShortcutEntry{
			AppID:         readAppID(entry),
			AppName:       readString(entry, FieldAppName),
			Exe:           readString(entry, FieldExe),
			StartDir:      readString(entry, FieldStartDir),
			LaunchOptions: readString(entry, FieldLaunchOptions),
			IconPath:      readString(entry, FieldIcon),
		})
	}

	return entries, nil
}

func (s *Synchronizer) load() (*Node, error) {
	data, err := s.fs.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, liberrors.Wrapf(err, liberrors.KindShortcutSync, "load", "shortcut file not found").WithPath(s.path)
	}

	if err != nil {
		return nil, liberrors.Wrap(err, liberrors.KindShortcutSync, "load").WithPath(s.path)
	}

	root, err := Decode(data)
	if err != nil {
		return nil, liberrors.Wrapf(err, liberrors.KindShortcutSync, "load", "failed to decode shortcut file").WithPath(s.path)
	}

	return root, nil
}

func (s *Synchronizer) replace(root *Node) error {
	perm := os.FileMode(fileops.DefaultFilePermissions)
	if info, err := s.fs.Stat(s.path); err == nil {
		perm = info.Mode().Perm()
	}

	backup := s.backupPath()
	if _, err := s.files.CopyFile(s.path, backup); err != nil {
		return liberrors.Wrapf(err, liberrors.KindShortcutSync, "backup", "failed to back up shortcut file").WithPath(backup)
	}

	if err := s.files.WriteFileAtomic(s.path, Encode(root), perm); err != nil {
		return liberrors.Wrap(err, liberrors.KindShortcutSync, "write").WithPath(s.path)
	}

	return nil
}

// backupPath names the next backup. Backups taken within the same second get
// a counter so an earlier one is never overwritten.
func (s *Synchronizer) backupPath() string {
	stamp := s.path + "." + s.clock.Now().Format(backupTimeLayout)

	backup := stamp + ".bak"
	for n := 1; filesystem.Exists(s.fs, backup); n++ {
		backup = stamp + "-" + strconv.Itoa(n) + ".bak"
	}

	return backup
}

func findEntry(list *Node, id string) *Node {
	for _, entry := range list.Children {
		if entry.Type == TypeMap && readAppID(entry) == id {
			return entry
		}
	}

	return nil
}
