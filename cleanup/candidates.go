package cleanup

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/dedup"
	"github.com/diskwatch/diskwatch/snapshot"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

// devArtifactNames are directory base names treated as disposable build/
// dependency caches by the dev-clean selector.
var devArtifactNames = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	".pytest_cache": true,
	".mypy_cache":  true,
	"dist":         true,
	"build":        true,
	"target":       true,
	".next":        true,
	".nuxt":        true,
	".venv":        true,
}

const devArtifactMaxDepth = 6

// DiscoverDevArtifacts walks each root up to a bounded depth and returns
// every directory whose base name is a recognized disposable cache,
// without descending further once one is found.
func DiscoverDevArtifacts(roots []string) ([]string, error) {
	var found []string

	for _, root := range roots {
		rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // per-path walk errors are non-fatal for discovery
			}

			if !d.IsDir() || path == root {
				return nil
			}

			depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
			if depth > devArtifactMaxDepth {
				return filepath.SkipDir
			}

			if devArtifactNames[d.Name()] {
				found = append(found, path)
				return filepath.SkipDir
			}

			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walking %q for dev artifacts", root)
		}
	}

	return found, nil
}

// FromDevArtifacts turns discovered dev-artifact directories into targets.
// Unlike FromPaths it does not look them up in the snapshot: each directory
// is scored as category other and not hidden.
func FromDevArtifacts(ctx context.Context, st *store.Store, snapshotID int64, roots []string) ([]Target, error) {
	paths, err := DiscoverDevArtifacts(roots)
	if err != nil {
		return nil, err
	}

	out := make([]Target, 0, len(paths))

	for _, p := range paths {
		out = append(out, assess(p, snapshot.CategoryOther, false, "dev-artifact"))
	}

	return out, nil
}

// FromDuplicates turns the remove-paths of every duplicate cluster into
// targets, skipping each cluster's keep path.
func FromDuplicates(ctx context.Context, st *store.Store, snapshotID int64, clusters []dedup.Cluster) ([]Target, error) {
	var out []Target

	for _, c := range clusters {
		for _, p := range c.RemovePaths {
			t, err := resolveTarget(ctx, st, snapshotID, p, "duplicate")
			if err != nil {
				return nil, err
			}

			out = append(out, t)
		}
	}

	return out, nil
}

// FromLargeAndOld targets files at or above minSize older than
// olderThanDays.
func FromLargeAndOld(ctx context.Context, st *store.Store, snapshotID int64, minSize int64, olderThanDays int, limit int) ([]Target, error) {
	files, err := st.LargeAndOldFiles(ctx, snapshotID, minSize, olderThanDays, limit)
	if err != nil {
		return nil, errors.Wrap(err, "loading large-and-old files")
	}

	out := make([]Target, 0, len(files))
	for _, f := range files {
		out = append(out, assess(f.Path, f.Category, f.Hidden, "large-and-old"))
	}

	return out, nil
}

// FromLogsAndTemp targets files the classifier placed in the logs
// category (log/temp extensions or cache/tmp path markers), ordered by
// size descending and bounded by limit.
func FromLogsAndTemp(ctx context.Context, st *store.Store, snapshotID int64, limit int) ([]Target, error) {
	files, err := st.LargestFiles(ctx, snapshotID, -1)
	if err != nil {
		return nil, errors.Wrap(err, "loading files")
	}

	var out []Target

	for _, f := range files {
		if limit > 0 && len(out) >= limit {
			break
		}

		if f.Category != snapshot.CategoryLogs {
			continue
		}

		out = append(out, assess(f.Path, f.Category, f.Hidden, "logs-temp"))
	}

	return out, nil
}

// FromPaths resolves an explicit list of paths against the snapshot.
func FromPaths(ctx context.Context, st *store.Store, snapshotID int64, paths []string) ([]Target, error) {
	out := make([]Target, 0, len(paths))

	for _, p := range paths {
		t, err := resolveTarget(ctx, st, snapshotID, p, "explicit")
		if err != nil {
			return nil, err
		}

		out = append(out, t)
	}

	return out, nil
}
