//go:build !linux

package diskusage

// TotalBytes is unsupported on this platform.
func TotalBytes(path string) (int64, bool) {
	return 0, false
}
