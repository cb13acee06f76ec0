package launcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joe/nexus-library/pkg/fileops"
)

// emulator starts ROMs through the emulation suite's launcher scripts.
type emulator struct {
	script string
	romDir string
	// linkDir links the whole game directory instead of the target file.
	linkDir bool
}

func (e emulator) variant() variant {
	return variant{triple: e.triple, hook: e.link}
}

func (e emulator) launchersDir(s Settings) string {
	return filepath.Join(s.EmulationPath, "tools", "launchers")
}

func (e emulator) romPath(s Settings, t Title) string {
	return filepath.Join(s.EmulationPath, "roms", e.romDir, filepath.Base(t.Target))
}

func (e emulator) triple(s Settings, t Title) Triple {
	launchers := e.launchersDir(s)

	return Triple{
		ExeTarget:  Quote(filepath.Join(launchers, e.script)),
		StartDir:   Quote(launchers),
		LaunchArgs: Quote(e.romPath(s, t)),
	}
}

// link replaces the ROM entry with a symlink into the installed game.
func (e emulator) link(r *Resolver, t Title) error {
	if t.Target == "" {
		return fmt.Errorf("launcher target is required to link %s", t.Name) //nolint:err113 // carries the title
	}

	if t.GamePath == "" {
		return fmt.Errorf("local game path is required to link %s", t.Name) //nolint:err113 // carries the title
	}

	linkPath := e.romPath(r.settings, t)

	pointsAt := targetPath(t)
	if e.linkDir {
		pointsAt = t.GamePath
	}

	if err := r.fs.MkdirAll(filepath.Dir(linkPath), fileops.DefaultDirPermissions); err != nil {
		return err
	}

	info, err := r.fs.Lstat(linkPath)

	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return err
	case info.Mode()&os.ModeSymlink == 0:
		return fmt.Errorf("refusing to replace %s: not a symlink", linkPath) //nolint:err113 // carries the path
	default:
		if err := r.fs.Remove(linkPath); err != nil {
			return err
		}
	}

	return r.fs.Symlink(pointsAt, linkPath)
}
