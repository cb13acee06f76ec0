package errors

import (
	"regexp"
	"strings"
)

// Enricher turns an error into an ActionableError.
type Enricher interface {
	Enrich(err error, affectedPath string) error
}

// NewEnricher creates an Enricher with the default matcher and generator.
func NewEnricher() Enricher {
	return &enricher{
		matcher:   NewPatternMatcher(),
		generator: NewSuggestionGenerator(),
	}
}

// unexported variables.
var (
	//nolint:gochecknoglobals // Compiled once, shared by every enricher
	pathExtractionPatterns = []*regexp.Regexp{
		// "open /path: reason", "failed to create directory /path: reason"
		regexp.MustCompile(`\b\w+\s+(/[^\s:]+):`),
		// "(path)" suffix written by *Error
		regexp.MustCompile(`\((/[^)\s]+)\)`),
		// rsync: "rsync: [sender] change_dir "/path" failed"
		regexp.MustCompile(`"(/[^"]+)"`),
	}
)

type enricher struct {
	matcher   PatternMatcher
	generator SuggestionGenerator
}

// Enrich categorizes err and attaches suggestions. Errors that are already
// actionable are returned unchanged. When affectedPath is empty a path is
// extracted from the message if one is present.
func (e *enricher) Enrich(err error, affectedPath string) error {
	if err == nil {
		return nil
	}

	var actionable ActionableError
	if As(err, &actionable) {
		return actionable
	}

	errMsg := err.Error()

	if affectedPath == "" {
		var kinded *Error
		if As(err, &kinded) && kinded.Path != "" {
			affectedPath = kinded.Path
		} else {
			affectedPath = extractPath(errMsg)
		}
	}

	category := e.matcher.Match(errMsg)
	if category == CategoryUnknown && KindOf(err) == KindTransfer {
		category = CategoryTransfer
	}

	return NewActionableError(err, category, e.generator.Generate(category, affectedPath), affectedPath)
}

// extractPath pulls the first absolute path out of common error formats:
//
//	open /home/deck/shortcuts.vdf: permission denied
//	SHORTCUT_SYNC: file missing (/home/deck/.steam/shortcuts.vdf)
//	rsync: change_dir "/run/media/SSD/Games/Hades" failed: No such file or directory
func extractPath(errorMsg string) string {
	for _, pattern := range pathExtractionPatterns {
		if matches := pattern.FindStringSubmatch(errorMsg); len(matches) > 1 {
			if path := strings.TrimSpace(matches[1]); path != "" {
				return path
			}
		}
	}

	return ""
}
