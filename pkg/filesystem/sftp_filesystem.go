package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pkg/sftp"
)

// SFTPFileSystem implements TreeFS on the archive host. Relative paths are
// resolved against the remote user's home directory, as rsync does.
type SFTPFileSystem struct {
	client *sftp.Client
}

// NewSFTPFileSystem creates an SFTPFileSystem on an established connection.
func NewSFTPFileSystem(conn *SFTPConnection) *SFTPFileSystem {
	return &SFTPFileSystem{client: conn.Client()}
}

// MkdirAll creates a remote directory and all parents. perm is ignored;
// the server applies its umask.
func (fs *SFTPFileSystem) MkdirAll(path string, _ os.FileMode) error {
	if err := fs.client.MkdirAll(path); err != nil {
		return fmt.Errorf("failed to create remote directory %s: %w", path, err)
	}

	return nil
}

// ReadDir lists a remote directory.
func (fs *SFTPFileSystem) ReadDir(path string) ([]os.FileInfo, error) {
	infos, err := fs.client.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote directory %s: %w", path, err)
	}

	return infos, nil
}

// ReadFile reads a whole remote file.
func (fs *SFTPFileSystem) ReadFile(path string) ([]byte, error) {
	file, err := fs.client.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote file %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote file %s: %w", path, err)
	}

	return data, nil
}

// Remove removes a remote file or empty directory.
func (fs *SFTPFileSystem) Remove(path string) error {
	if err := fs.client.Remove(path); err != nil {
		return fmt.Errorf("failed to remove remote file %s: %w", path, err)
	}

	return nil
}

// Rename moves a remote file, replacing the destination. Servers without the
// posix-rename extension get a remove followed by a plain rename.
func (fs *SFTPFileSystem) Rename(oldpath, newpath string) error {
	err := fs.client.PosixRename(oldpath, newpath)
	if err == nil {
		return nil
	}

	var statusErr *sftp.StatusError
	if !errors.As(err, &statusErr) || statusErr.FxCode() != sftp.ErrSSHFxOpUnsupported {
		return fmt.Errorf("failed to rename remote file %s: %w", oldpath, err)
	}

	_ = fs.client.Remove(newpath)
	if err := fs.client.Rename(oldpath, newpath); err != nil {
		return fmt.Errorf("failed to rename remote file %s: %w", oldpath, err)
	}

	return nil
}

// Stat returns remote file information.
func (fs *SFTPFileSystem) Stat(path string) (os.FileInfo, error) {
	info, err := fs.client.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat remote file %s: %w", path, err)
	}

	return info, nil
}

// WriteFile writes data to a remote file, truncating it first.
func (fs *SFTPFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	file, err := fs.client.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("failed to create remote file %s: %w", path, err)
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write remote file %s: %w", path, err)
	}

	if err := file.Chmod(perm); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to chmod remote file %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close remote file %s: %w", path, err)
	}

	return nil
}
