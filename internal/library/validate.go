package library

import (
	"strings"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/launcher"
	liberrors "github.com/joe/nexus-library/pkg/errors"
	"github.com/joe/nexus-library/pkg/filesystem"
)

// Validate checks the fields a save requires and returns the problems found.
func Validate(item *catalog.GameItem, fs filesystem.TreeFS) []string {
	var problems []string

	require := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, name+" is required")
		}
	}

	require(item.ID, "id")
	require(item.Title, "title")
	require(item.ExeTarget, "exe target")
	require(item.StartDir, "start dir")
	require(string(item.Launcher), "launcher")
	require(item.GameLocation, "game location")

	problems = append(problems, locationProblems(item)...)

	if item.Launcher != "" {
		if _, err := launcher.ParseKind(string(item.Launcher)); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if item.Launcher.NeedsPrefix() && item.PrefixLocation == "" {
		problems = append(problems, "prefix location is required for "+string(launcher.PortProton))
	}

	if item.Source == catalog.SourceShortcutOnly && !filesystem.Exists(fs, item.RealLocalGamePath) {
		problems = append(problems, "real local game path does not exist: "+item.RealLocalGamePath)
	}

	return problems
}

// locationProblems rejects locations that would resolve to a library root,
// the prefixes root, or somewhere outside them.
func locationProblems(item *catalog.GameItem) []string {
	var problems []string

	if item.GameLocation != "" && !filesystem.ValidLocation(item.GameLocation) {
		problems = append(problems, "game location must be a directory below the library: "+item.GameLocation)
	}

	if item.PrefixLocation != "" && !filesystem.ValidLocation(item.PrefixLocation) {
		problems = append(problems, "prefix location must be a directory below the prefixes root: "+item.PrefixLocation)
	}

	return problems
}

func validationError(op string, problems []string) error {
	return liberrors.New(liberrors.KindValidation, op, strings.Join(problems, "; "))
}
