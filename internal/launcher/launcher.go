// Package launcher knows how each supported launcher starts a game: the
// executable, working directory and arguments written to the shortcut, and
// the files a fresh download needs before it can be started.
package launcher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joe/nexus-library/pkg/fileops"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// Kind identifies a launcher.
type Kind string

// Supported launchers.
const (
	NOOP          Kind = "NOOP"
	PortProton    Kind = "PORT_PROTON"
	PS2           Kind = "PS2"
	PS3           Kind = "PS3"
	SwitchCitron  Kind = "SWITCH_CITRON"
	SwitchRyujinx Kind = "SWITCH_RYUJINX"
)

// Kinds lists every launcher in display order.
func Kinds() []Kind {
	return []Kind{NOOP, PortProton, PS2, PS3, SwitchCitron, SwitchRyujinx}
}

// ParseKind parses a launcher name, ignoring case.
func ParseKind(s string) (Kind, error) {
	candidate := Kind(strings.ToUpper(strings.TrimSpace(s)))
	for _, kind := range Kinds() {
		if kind == candidate {
			return kind, nil
		}
	}

	return "", fmt.Errorf("unknown launcher %q", s) //nolint:err113 // carries the bad value
}

// NeedsPrefix reports whether titles of this kind run inside a Wine prefix.
func (k Kind) NeedsPrefix() bool {
	return k == PortProton
}

// Settings roots the path templates.
type Settings struct {
	EmulationPath  string
	PortProtonPath string
}

// Title is the part of a game item a launcher needs.
type Title struct {
	ID         string
	Name       string
	ExeTarget  string
	StartDir   string
	LaunchArgs string
	// Target is the file or directory inside GamePath the launcher starts.
	Target string
	// GamePath is the resolved local game directory.
	GamePath string
}

// Triple is what a shortcut entry runs.
type Triple struct {
	ExeTarget  string
	StartDir   string
	LaunchArgs string
}

type variant struct {
	triple func(Settings, Title) Triple
	hook   func(*Resolver, Title) error
}

// variantFor is the single dispatch point over Kind.
func variantFor(kind Kind) (variant, bool) {
	switch kind {
	case NOOP:
		return variant{triple: passThrough, hook: (*Resolver).markExecutable}, true
	case PortProton:
		return variant{triple: portProtonTriple, hook: (*Resolver).writeWrapperScript}, true
	case PS2:
		return emulator{script: "pcsx2-qt.sh", romDir: "ps2"}.variant(), true
	case PS3:
		return emulator{script: "rpcs3.sh", romDir: "ps3", linkDir: true}.variant(), true
	case SwitchCitron:
		return emulator{script: "citron.sh", romDir: "switch"}.variant(), true
	case SwitchRyujinx:
		return emulator{script: "ryujinx.sh", romDir: "switch"}.variant(), true
	default:
		return variant{}, false
	}
}

// Resolver derives launch triples and runs post-download hooks.
type Resolver struct {
	settings Settings
	fs       filesystem.FileSystem
	files    *fileops.FileOps
}

// NewResolver creates a Resolver writing through fs.
func NewResolver(settings Settings, fs filesystem.FileSystem) *Resolver {
	return &Resolver{settings: settings, fs: fs, files: fileops.NewFileOps(fs)}
}

// Triple derives the launch triple for title under kind.
func (r *Resolver) Triple(kind Kind, title Title) (Triple, error) {
	v, ok := variantFor(kind)
	if !ok {
		return Triple{}, fmt.Errorf("unknown launcher %q", kind) //nolint:err113 // carries the bad value
	}

	return v.triple(r.settings, title), nil
}

// PostDownload prepares a freshly downloaded title. Running it twice leaves
// the same files behind as running it once.
func (r *Resolver) PostDownload(kind Kind, title Title) error {
	v, ok := variantFor(kind)
	if !ok {
		return fmt.Errorf("unknown launcher %q", kind) //nolint:err113 // carries the bad value
	}

	return v.hook(r, title)
}

// Quote wraps s in double quotes the way Steam stores exe and start dir.
func Quote(s string) string {
	return `"` + s + `"`
}

// Unquote strips the double quotes Steam puts around paths.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}

	return s
}

func passThrough(_ Settings, t Title) Triple {
	return Triple{ExeTarget: t.ExeTarget, StartDir: t.StartDir, LaunchArgs: t.LaunchArgs}
}

// targetPath resolves Target against GamePath unless it is absolute.
func targetPath(t Title) string {
	if filepath.IsAbs(t.Target) {
		return t.Target
	}

	return filepath.Join(t.GamePath, t.Target)
}
