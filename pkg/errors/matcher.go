package errors

import "strings"

// PatternMatcher maps an error message to a category.
type PatternMatcher interface {
	Match(errorMsg string) ErrorCategory
}

// NewPatternMatcher creates a PatternMatcher with the built-in patterns.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		// Checked in order: ssh auth failures also say "permission denied".
		rules: []matchRule{
			{CategoryRemote, []string{
				"permission denied (publickey",
				"host key verification failed",
				"connection refused",
				"no route to host",
				"connection timed out",
				"handshake failed",
				"could not resolve hostname",
				"ssh connection failed",
			}},
			{CategoryPermission, []string{
				"permission denied",
				"access denied",
				"operation not permitted",
			}},
			{CategoryDiskSpace, []string{
				"no space left on device",
				"disk full",
				"quota exceeded",
			}},
			{CategoryPath, []string{
				"no such file or directory",
				"file not found",
				"path does not exist",
			}},
			{CategoryDelete, []string{
				"directory not empty",
				"cannot remove",
			}},
			{CategoryTransfer, []string{
				"rsync error",
				"connection unexpectedly closed",
				"broken pipe",
				"input/output error",
			}},
		},
	}
}

type matchRule struct {
	category ErrorCategory
	patterns []string
}

type patternMatcher struct {
	rules []matchRule
}

// Match returns the first category whose patterns occur in errorMsg,
// ignoring case, or CategoryUnknown.
func (m *patternMatcher) Match(errorMsg string) ErrorCategory {
	lowerMsg := strings.ToLower(errorMsg)

	for _, rule := range m.rules {
		for _, pattern := range rule.patterns {
			if strings.Contains(lowerMsg, pattern) {
				return rule.category
			}
		}
	}

	return CategoryUnknown
}
