//go:build linux

// Package diskusage reads the total capacity of the filesystem backing a
// path, used by the Analyzer's prediction to solve for a fill date against
// the real disk, not an assumed constant.
package diskusage

import "golang.org/x/sys/unix"

// TotalBytes returns the total size of the filesystem containing path.
func TotalBytes(path string) (int64, bool) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, false
	}

	return int64(stat.Blocks) * int64(stat.Bsize), true
}
