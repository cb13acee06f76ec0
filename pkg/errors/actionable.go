// Package errors defines the failure kinds of library operations and turns
// low-level messages into actionable suggestions for the operator.
//
// Kinded errors carry the stage that failed:
//
//	err := errors.Wrapf(cause, errors.KindTransfer, "upload", "rsync exited with %d", code)
//	if errors.Is(err, errors.ErrTransfer) {
//	    // leave the title in UPLOADING and let the operator retry
//	}
//
// The enricher categorizes any error message and proposes next steps:
//
//	enriched := errors.NewEnricher().Enrich(err, "/run/media/deck/SSD/Games/Hades")
//	fmt.Println(errors.FormatSuggestions(enriched))
package errors

import "strings"

// Exported constants.
const (
	CategoryDelete     ErrorCategory = "delete"
	CategoryDiskSpace  ErrorCategory = "disk_space"
	CategoryPath       ErrorCategory = "path"
	CategoryPermission ErrorCategory = "permission"
	CategoryRemote     ErrorCategory = "remote"
	CategoryTransfer   ErrorCategory = "transfer"
	CategoryUnknown    ErrorCategory = "unknown"
)

// ActionableError is an error with suggestions the operator can act on.
type ActionableError interface {
	error
	OriginalError() string
	Category() ErrorCategory
	Suggestions() []string
	AffectedPath() string
	Unwrap() error
}

// NewActionableError creates an ActionableError around cause.
func NewActionableError(
	cause error,
	category ErrorCategory,
	suggestions []string,
	affectedPath string,
) ActionableError {
	return &actionableError{
		cause:        cause,
		category:     category,
		suggestions:  suggestions,
		affectedPath: affectedPath,
	}
}

// ErrorCategory is the broad class an error message falls into.
type ErrorCategory string

// FormatSuggestions renders the suggestions of an ActionableError as an
// indented bullet list. Returns "" for nil or non-actionable errors.
func FormatSuggestions(err error) string {
	var actionable ActionableError
	if err == nil || !As(err, &actionable) {
		return ""
	}

	suggestions := actionable.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, suggestion := range suggestions {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("  • ")
		builder.WriteString(suggestion)
	}

	return builder.String()
}

type actionableError struct {
	cause        error
	category     ErrorCategory
	suggestions  []string
	affectedPath string
}

func (e *actionableError) AffectedPath() string { return e.affectedPath }

func (e *actionableError) Category() ErrorCategory { return e.category }

func (e *actionableError) Error() string { return e.cause.Error() }

func (e *actionableError) OriginalError() string { return e.cause.Error() }

func (e *actionableError) Suggestions() []string { return e.suggestions }

// Unwrap keeps the kind of the enriched error visible to errors.Is.
func (e *actionableError) Unwrap() error { return e.cause }
