package scan

// Options configures one Scanner run. The zero value is not usable; use
// DefaultOptions and override fields, mirroring the validated-options-struct
// idiom used elsewhere in this codebase (e.g. volumefs.BackupArgs).
type Options struct {
	Roots          []string
	FollowSymlinks bool
	IncludeHidden  bool

	// SkipDirNames is matched against a directory's base name.
	SkipDirNames map[string]bool

	// SkipPrefixes is matched against a child's absolute path prefix,
	// e.g. "/proc", "/sys", "/dev" style virtual filesystems.
	SkipPrefixes []string

	// TopDirDepth is how many path segments below a scan root are kept
	// when computing a file's top-dir aggregation key. Per spec.md's open
	// question, depth counts from the scan root, not the filesystem root.
	TopDirDepth int

	BatchSize     int
	ProgressEvery int
}

const (
	defaultTopDirDepth   = 2
	defaultBatchSize     = 2000
	defaultProgressEvery = 500
)

// DefaultOptions returns sensible defaults: no symlink following, hidden
// files excluded, the common virtual-filesystem prefixes skipped.
func DefaultOptions() Options {
	return Options{
		SkipDirNames: map[string]bool{
			".git":         true,
			"node_modules": true,
			".Trash":       true,
		},
		SkipPrefixes: []string{
			"/proc", "/sys", "/dev", "/run",
		},
		TopDirDepth:   defaultTopDirDepth,
		BatchSize:     defaultBatchSize,
		ProgressEvery: defaultProgressEvery,
	}
}

func (o *Options) applyDefaults() {
	if o.TopDirDepth <= 0 {
		o.TopDirDepth = defaultTopDirDepth
	}

	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}

	if o.ProgressEvery <= 0 {
		o.ProgressEvery = defaultProgressEvery
	}
}

func (o Options) skipByPrefix(path string) bool {
	for _, p := range o.SkipPrefixes {
		if path == p || hasPathPrefix(path, p) {
			return true
		}
	}

	return false
}

func hasPathPrefix(path, prefix string) bool {
	if len(path) <= len(prefix) {
		return false
	}

	return path[:len(prefix)] == prefix && path[len(prefix)] == '/'
}
