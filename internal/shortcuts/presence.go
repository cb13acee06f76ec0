package shortcuts

import (
	"fmt"
	"path/filepath"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/config"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// Presence markers shown in front of the title.
const (
	MarkPresent = "✅"
	MarkMissing = "❌"
)

// PresenceTitle renders the title shown in the launcher: whether the game is
// installed, on which library, and with which launcher.
func PresenceTitle(item *catalog.GameItem, libraries []config.Library, fs filesystem.TreeFS) string {
	if !filesystem.Exists(fs, item.RealLocalGamePath) {
		return fmt.Sprintf("%s %s [%s]", MarkMissing, item.Title, item.Launcher)
	}

	if label := libraryLabel(item.RealLocalGamePath, libraries); label != "" {
		return fmt.Sprintf("%s %s [%s] [%s]", MarkPresent, item.Title, label, item.Launcher)
	}

	return fmt.Sprintf("%s %s [%s]", MarkPresent, item.Title, item.Launcher)
}

// libraryLabel returns the label of the library with the longest path
// containing p.
func libraryLabel(p string, libraries []config.Library) string {
	p = filepath.Clean(p)
	best, bestLen := "", -1

	for _, lib := range libraries {
		root := filepath.Clean(lib.Path)
		if lib.Path == "" || (p != root && !filesystem.Below(root, p)) {
			continue
		}

		if len(root) > bestLen {
			best, bestLen = lib.Label, len(root)
		}
	}

	return best
}
