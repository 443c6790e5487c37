//go:build windows

package storage

import "errors"

// GetDiskSpace is not implemented on Windows; writes skip the space check.
func GetDiskSpace(path string) (*DiskSpaceInfo, error) {
	return nil, errors.New("disk space check not supported on windows")
}
