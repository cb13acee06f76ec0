package errors

import "fmt"

// SuggestionGenerator produces operator-facing suggestions for a category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates a SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

type suggestionGenerator struct{}

// Generate returns suggestions for category, mentioning affectedPath when known.
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	switch category {
	case CategoryPermission:
		return g.permission(affectedPath)
	case CategoryDiskSpace:
		return g.diskSpace(affectedPath)
	case CategoryPath:
		return g.path(affectedPath)
	case CategoryDelete:
		return g.delete(affectedPath)
	case CategoryRemote:
		return g.remote()
	case CategoryTransfer:
		return g.transfer(affectedPath)
	case CategoryUnknown:
		return g.unknown(affectedPath)
	default:
		return g.unknown(affectedPath)
	}
}

func (g *suggestionGenerator) remote() []string {
	return []string{
		"Check that the archive host is reachable with 'ssh <user>@<host>'",
		"Verify remote.private_key_path points at a key the host accepts",
		"If remote.known_hosts_path is set, make sure it lists the host key",
	}
}

func (g *suggestionGenerator) transfer(path string) []string {
	suggestions := []string{
		"Run the same command again; rsync resumes from what is already copied",
		"Refresh the title afterwards to compare local and remote fingerprints",
	}

	if path != "" {
		suggestions = append(suggestions, "Confirm the directory is readable: "+path)
	}

	return suggestions
}

func (g *suggestionGenerator) delete(path string) []string {
	suggestions := []string{
		"Check whether another program still holds files in the directory",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("List what is left with 'ls -la %s'", path))
	}

	return suggestions
}

func (g *suggestionGenerator) diskSpace(path string) []string {
	suggestions := []string{
		"Free up space on the target volume or pick another library",
		"Check available space with 'df -h'",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify disk usage for the filesystem containing "+path)
	}

	return suggestions
}

func (g *suggestionGenerator) path(path string) []string {
	if path == "" {
		return []string{
			"Verify the path exists and is spelled correctly",
			"Check that the library volume is mounted",
		}
	}

	return []string{
		"Check if the path exists: " + path,
		"Check that the library volume holding " + path + " is mounted",
	}
}

func (g *suggestionGenerator) permission(path string) []string {
	suggestions := []string{
		"Ensure you have read/write permissions for the files and directories",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Check permissions with 'ls -la %s'", path))
	}

	return suggestions
}

func (g *suggestionGenerator) unknown(path string) []string {
	suggestions := []string{
		"Re-run with -vv and check the log file for details",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify the path is accessible: "+path)
	}

	return suggestions
}
