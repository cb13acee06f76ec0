package launcher

import (
	"path/filepath"
	"strings"
)

const executableBits = 0o111

// markExecutable sets the executable bit on the title's target. Titles
// without a target fall back to the exe when it lives inside the game dir.
func (r *Resolver) markExecutable(t Title) error {
	target := ""

	switch {
	case t.Target != "":
		target = targetPath(t)
	case t.GamePath != "":
		exe := Unquote(t.ExeTarget)
		if filepath.IsAbs(exe) && strings.HasPrefix(exe, filepath.Clean(t.GamePath)+string(filepath.Separator)) {
			target = exe
		}
	}

	if target == "" {
		return nil
	}

	info, err := r.fs.Stat(target)
	if err != nil {
		return err
	}

	return r.fs.Chmod(target, info.Mode().Perm()|executableBits)
}
