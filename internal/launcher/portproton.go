package launcher

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

const scriptPermissions = 0o755

func steamScriptsDir(s Settings) string {
	return filepath.Join(s.PortProtonPath, "steam_scripts")
}

// scriptName turns a title into a file name PortProton accepts.
func scriptName(t Title) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			return r
		}

		return '_'
	}, strings.TrimSpace(t.Name))

	if strings.Trim(name, "_.") == "" {
		return t.ID
	}

	return name
}

// WrapperScriptPath is where the PORT_PROTON wrapper for t is written.
func WrapperScriptPath(s Settings, t Title) string {
	return filepath.Join(steamScriptsDir(s), scriptName(t)+".sh")
}

func portProtonTriple(s Settings, t Title) Triple {
	return Triple{
		ExeTarget:  Quote(WrapperScriptPath(s, t)),
		StartDir:   Quote(steamScriptsDir(s)),
		LaunchArgs: t.LaunchArgs,
	}
}

func (r *Resolver) writeWrapperScript(t Title) error {
	if t.Target == "" {
		return fmt.Errorf("launcher target is required to write the wrapper for %s", t.Name) //nolint:err113 // carries the title
	}

	startScript := filepath.Join(r.settings.PortProtonPath, "data_from_portwine", "scripts", "start.sh")

	var script strings.Builder
	script.WriteString("#!/usr/bin/env bash\n")
	script.WriteString("export LD_PRELOAD=\n")
	script.WriteString("export START_FROM_STEAM=1\n")
	fmt.Fprintf(&script, "exec %s %s \"$@\"\n", doubleQuote(startScript), doubleQuote(targetPath(t)))

	scriptPath := WrapperScriptPath(r.settings, t)
	if err := r.files.WriteFileAtomic(scriptPath, []byte(script.String()), scriptPermissions); err != nil {
		return err
	}

	return r.fs.Chmod(scriptPath, scriptPermissions)
}

// doubleQuote quotes s for bash, escaping the characters that stay special
// inside double quotes.
func doubleQuote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`").Replace(s) + `"`
}
