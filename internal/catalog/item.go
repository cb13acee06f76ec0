// Package catalog holds the game model and the record stores that persist
// the archive's view of it.
package catalog

import (
	"github.com/joe/nexus-library/internal/fingerprint"
	"github.com/joe/nexus-library/internal/launcher"
)

// Status is a title's lifecycle state.
type Status string

// Statuses. A title advances DRAFT -> UPLOADING -> ACTIVE; UPLOADING may be
// re-entered after a failed upload.
const (
	StatusDraft     Status = "DRAFT"
	StatusUploading Status = "UPLOADING"
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusArchived  Status = "ARCHIVED"
)

// Source says where an item's authoritative fields come from.
type Source string

// Sources.
const (
	SourceCatalog      Source = "catalog"
	SourceShortcutOnly Source = "shortcut-only"
)

// DownloadMarker records an in-progress download.
type DownloadMarker struct {
	LibraryPath      string `json:"libraryPath"`
	PrefixAlias      string `json:"prefixAlias,omitempty"`
	LocalGamePath    string `json:"localGamePath"`
	RemoteGamePath   string `json:"remoteGamePath"`
	LocalPrefixPath  string `json:"localPrefixPath,omitempty"`
	RemotePrefixPath string `json:"remotePrefixPath,omitempty"`
}

// LocalState is per-machine state that is never persisted to the catalog.
type LocalState struct {
	Downloading       *DownloadMarker `json:"downloading,omitempty"`
	LastRenderedTitle string          `json:"lastRenderedTitle,omitempty"`
}

// GameItem is the reconciled view of one title.
type GameItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ExeTarget  string `json:"exeTarget"`
	StartDir   string `json:"startDir"`
	LaunchArgs string `json:"launchArgs"`

	Source         Source        `json:"source"`
	Launcher       launcher.Kind `json:"launcher"`
	LauncherTarget string        `json:"launcherTarget,omitempty"`
	Status         Status        `json:"status"`

	GameLocation   string `json:"gameLocation,omitempty"`
	PrefixLocation string `json:"prefixLocation,omitempty"`

	RealLocalGamePath   string `json:"realLocalGamePath,omitempty"`
	RealLocalPrefixPath string `json:"realLocalPrefixPath,omitempty"`

	Icon     []byte `json:"icon,omitempty"`
	IconPath string `json:"iconPath,omitempty"`

	LocalGame    fingerprint.Fingerprint `json:"localGame"`
	RemoteGame   fingerprint.Fingerprint `json:"remoteGame"`
	LocalPrefix  fingerprint.Fingerprint `json:"localPrefix"`
	RemotePrefix fingerprint.Fingerprint `json:"remotePrefix"`

	LocalState LocalState `json:"localState"`
}

// Clone returns a deep copy of g.
func (g *GameItem) Clone() *GameItem {
	clone := *g
	if g.Icon != nil {
		clone.Icon = append([]byte(nil), g.Icon...)
	}

	if g.LocalState.Downloading != nil {
		marker := *g.LocalState.Downloading
		clone.LocalState.Downloading = &marker
	}

	return &clone
}

// HasPrefix reports whether the item tracks a Wine prefix.
func (g *GameItem) HasPrefix() bool {
	return g.PrefixLocation != ""
}

// LaunchTitle is the item as the launcher package sees it.
func (g *GameItem) LaunchTitle() launcher.Title {
	return launcher.Title{
		ID:         g.ID,
		Name:       g.Title,
		ExeTarget:  g.ExeTarget,
		StartDir:   g.StartDir,
		LaunchArgs: g.LaunchArgs,
		Target:     g.LauncherTarget,
		GamePath:   g.RealLocalGamePath,
	}
}

// ShortcutEntry is one launcher shortcut as read from the shortcut file.
type ShortcutEntry struct {
	AppID         string
	AppName       string
	Exe           string
	StartDir      string
	LaunchOptions string
	IconPath      string
}
