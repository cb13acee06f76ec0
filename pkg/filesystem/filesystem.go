// Package filesystem abstracts the local disk and the archive host so
// library code can be exercised against temporary directories in tests.
package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File is an open file on either side of the link.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Stat() (os.FileInfo, error)
}

// TreeFS is the subset of filesystem operations available both locally and
// over SFTP. The catalog store and prefix listing only need this much.
type TreeFS interface {
	Stat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
}

// FileSystem is the local filesystem as seen by hooks, deletes and the
// shortcut synchronizer.
type FileSystem interface {
	TreeFS

	Open(path string) (File, error)
	Create(path string) (File, error)
	Lstat(path string) (os.FileInfo, error)
	RemoveAll(path string) error
	Chmod(path string, mode os.FileMode) error
	Symlink(target, link string) error
	Readlink(link string) (string, error)
}

// Exists reports whether path can be stat'ed through fs.
func Exists(fs TreeFS, path string) bool {
	if path == "" {
		return false
	}

	_, err := fs.Stat(path)

	return err == nil
}

// ValidLocation reports whether location names a directory strictly below
// whatever root it is joined to: relative, not ".", and never climbing out
// with "..".
func ValidLocation(location string) bool {
	if strings.TrimSpace(location) == "" || filepath.IsAbs(location) || strings.HasPrefix(location, "/") {
		return false
	}

	clean := filepath.Clean(location)

	return clean != "." && clean != ".." && !strings.HasPrefix(clean, ".."+string(filepath.Separator))
}

// Below reports whether path lies strictly inside root.
func Below(root, path string) bool {
	if root == "" || path == "" {
		return false
	}

	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}

	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// RealFileSystem implements FileSystem with the os package.
type RealFileSystem struct{}

// NewRealFileSystem creates a new RealFileSystem instance.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// Chmod changes the mode of a file.
func (fs *RealFileSystem) Chmod(path string, mode os.FileMode) error {
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}

	return nil
}

// Create creates a file for writing.
func (fs *RealFileSystem) Create(path string) (File, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	return file, nil
}

// Lstat returns file information without following symlinks.
func (fs *RealFileSystem) Lstat(path string) (os.FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to lstat %s: %w", path, err)
	}

	return info, nil
}

// MkdirAll creates a directory and all necessary parents.
func (fs *RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	return nil
}

// Open opens a file for reading.
func (fs *RealFileSystem) Open(path string) (File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return file, nil
}

// ReadDir lists a directory.
func (fs *RealFileSystem) ReadDir(path string) ([]os.FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	infos := make([]os.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue // removed while listing
		}
		infos = append(infos, info)
	}

	return infos, nil
}

// ReadFile reads a whole file.
func (fs *RealFileSystem) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return data, nil
}

// Readlink returns the target of a symlink.
func (fs *RealFileSystem) Readlink(link string) (string, error) {
	target, err := os.Readlink(link)
	if err != nil {
		return "", fmt.Errorf("failed to read link %s: %w", link, err)
	}

	return target, nil
}

// Remove removes a file or empty directory.
func (fs *RealFileSystem) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

// RemoveAll removes a directory tree.
func (fs *RealFileSystem) RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

// Rename moves a file, replacing the destination.
func (fs *RealFileSystem) Rename(oldpath, newpath string) error {
	if err := os.Rename(oldpath, newpath); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", oldpath, newpath, err)
	}

	return nil
}

// Stat returns file information.
func (fs *RealFileSystem) Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info, nil
}

// Symlink creates link pointing at target.
func (fs *RealFileSystem) Symlink(target, link string) error {
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("failed to create symlink %s: %w", link, err)
	}

	return nil
}

// WriteFile writes data, truncating any existing file.
func (fs *RealFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
