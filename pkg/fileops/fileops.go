// Package fileops holds small file operations shared by the shortcut
// synchronizer, launcher hooks and icon cache.
package fileops

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joe/nexus-library/pkg/filesystem"
)

// Exported constants.
const (
	DefaultDirPermissions  = 0o755
	DefaultFilePermissions = 0o644
)

// FileOps runs file operations against an injected filesystem.
type FileOps struct {
	FS filesystem.FileSystem
}

// NewFileOps creates a FileOps on fs.
func NewFileOps(fs filesystem.FileSystem) *FileOps {
	return &FileOps{FS: fs}
}

// NewRealFileOps creates a FileOps on the local disk.
func NewRealFileOps() *FileOps {
	return NewFileOps(filesystem.NewRealFileSystem())
}

// CopyFile copies src to dst, creating dst's directory and keeping src's mode.
func (fo *FileOps) CopyFile(src, dst string) (int64, error) {
	sourceFile, err := fo.FS.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file %s: %w", src, err)
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	if err := fo.FS.MkdirAll(filepath.Dir(dst), DefaultDirPermissions); err != nil {
		return 0, fmt.Errorf("failed to create destination directory for %s: %w", dst, err)
	}

	destFile, err := fo.FS.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	written, err := io.Copy(destFile, sourceFile)
	closeErr := destFile.Close()

	if err != nil {
		return written, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	if closeErr != nil {
		return written, fmt.Errorf("failed to close %s: %w", dst, closeErr)
	}

	if err := fo.FS.Chmod(dst, sourceInfo.Mode().Perm()); err != nil {
		return written, err
	}

	return written, nil
}

// WriteFileAtomic replaces path with data via a temporary sibling and a
// rename, so readers never observe a partially written file.
func (fo *FileOps) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := fo.FS.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp-"+strconv.FormatInt(time.Now().UnixNano(), 36))

	if err := fo.FS.WriteFile(tmp, data, perm); err != nil {
		return err
	}

	if err := fo.FS.Rename(tmp, path); err != nil {
		_ = fo.FS.Remove(tmp)
		return err
	}

	return nil
}

// SameContent reports whether path exists and holds exactly data.
func (fo *FileOps) SameContent(path string, data []byte) (bool, error) {
	existing, err := fo.FS.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return bytes.Equal(existing, data), nil
}
