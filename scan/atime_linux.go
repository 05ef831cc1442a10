//go:build linux

package scan

import (
	"os"
	"syscall"
	"time"
)

// accessTime extracts the last-access time from platform-specific stat
// data, falling back to ModTime when unavailable. Mirrors the
// fs/localfs.platformSpecificOwnerInfo build-tag split for per-OS
// os.FileInfo.Sys() handling.
func accessTime(fi os.FileInfo) time.Time {
	if stat, ok := fi.Sys().(*syscall.Stat_t); ok {
		return time.Unix(stat.Atim.Sec, stat.Atim.Nsec) //nolint:unconvert
	}

	return fi.ModTime()
}
