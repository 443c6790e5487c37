package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manav03panchal/tasktime/internal/errors"
)

// DiskSpaceInfo contains information about available disk space.
type DiskSpaceInfo struct {
	Path       string
	TotalBytes uint64
	FreeBytes  uint64
}

// CheckDiskSpace returns a SystemError wrapping ErrDiskFull when less than
// minFree bytes are available at path. If free space cannot be determined
// the write is allowed.
func CheckDiskSpace(path string, minFree uint64) error {
	info, err := GetDiskSpace(existingParent(path))
	if err != nil {
		return nil
	}

	if info.FreeBytes < minFree {
		return errors.NewSystemError(
			fmt.Sprintf("insufficient disk space: %d MB free, need at least %d MB",
				info.FreeBytes/(1024*1024),
				minFree/(1024*1024)),
			errors.ErrDiskFull,
		)
	}
	return nil
}

func (d *DB) checkSpace() error {
	if d.path == "" || d.MinFreeSpace == 0 {
		return nil
	}
	return CheckDiskSpace(d.path, d.MinFreeSpace)
}

func existingParent(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}
