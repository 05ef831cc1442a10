//go:build !linux

package scan

import (
	"os"
	"time"
)

// accessTime falls back to ModTime on platforms where this module does not
// decode a platform-specific stat struct for atime.
func accessTime(fi os.FileInfo) time.Time {
	return fi.ModTime()
}
