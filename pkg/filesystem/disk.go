package filesystem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DiskUsage describes the filesystem holding a path.
type DiskUsage struct {
	TotalBytes     uint64 `json:"totalBytes"`
	AvailableBytes uint64 `json:"availableBytes"`
	UsedBytes      uint64 `json:"usedBytes"`
}

// DiskInspector reports disk usage for a path.
type DiskInspector interface {
	Usage(path string) (DiskUsage, error)
}

// StatfsInspector implements DiskInspector with statfs(2).
type StatfsInspector struct{}

// Usage returns the usage of the filesystem containing path. Available is
// what an unprivileged user can still write.
func (StatfsInspector) Usage(path string) (DiskUsage, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return DiskUsage{}, fmt.Errorf("failed to statfs %s: %w", path, err)
	}

	blockSize := uint64(stat.Bsize) //nolint:gosec // block size is never negative

	return DiskUsage{
		TotalBytes:     stat.Blocks * blockSize,
		AvailableBytes: stat.Bavail * blockSize,
		UsedBytes:      (stat.Blocks - stat.Bfree) * blockSize,
	}, nil
}
