package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/diskwatch/diskwatch/dedup"
	"github.com/diskwatch/diskwatch/snapshot"
)

func TestDiscoverDevArtifactsFindsKnownDirectoriesAndStopsDescending(t *testing.T) {
	root := t.TempDir()

	nodeModules := filepath.Join(root, "project", "node_modules")
	nested := filepath.Join(nodeModules, "some-pkg", "node_modules")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	pycache := filepath.Join(root, "project", "src", "__pycache__")
	require.NoError(t, os.MkdirAll(pycache, 0o755))

	ordinary := filepath.Join(root, "project", "src", "main.go")
	require.NoError(t, os.WriteFile(ordinary, []byte("x"), 0o644))

	found, err := DiscoverDevArtifacts([]string{root})
	require.NoError(t, err)
	require.Contains(t, found, nodeModules)
	require.Contains(t, found, pycache)
	// the nested node_modules under the first one must not be reported
	// separately: discovery stops descending once a match is found.
	require.NotContains(t, found, nested)
}

func TestFromDuplicatesSkipsKeepPath(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := newTestStore(t)

	keep := filepath.Join(dir, "keep.bin")
	remove := filepath.Join(dir, "remove.bin")

	snapID, err := st.CreateSnapshot(ctx, []string{dir})
	require.NoError(t, err)

	clusters := []dedup.Cluster{
		{ID: "abc123", Size: 10, FileCount: 2, PotentialWaste: 10, KeepPath: keep, RemovePaths: []string{remove}},
	}

	targets, err := FromDuplicates(ctx, st, snapID, clusters)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, remove, targets[0].Path)
}

func TestFromPathsResolvesUnscannedPathAsUncategorized(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	snapID, err := st.CreateSnapshot(ctx, nil)
	require.NoError(t, err)

	targets, err := FromPaths(ctx, st, snapID, []string{"/never/scanned/path"})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Empty(t, targets[0].Category)
}

func TestFromPathsUsesStoredCategoryAndHidden(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := newTestStore(t)

	path := filepath.Join(dir, ".secret.log")

	snapID, err := st.CreateSnapshot(ctx, []string{dir})
	require.NoError(t, err)

	require.NoError(t, st.InsertFileBatch(ctx, snapID, []snapshot.FileRecord{
		{Path: path, DirPath: dir, TopDir: dir, Size: 1, Extension: ".log", ModTime: time.Now().UTC(), Category: snapshot.CategoryLogs, Hidden: true},
	}))

	targets, err := FromPaths(ctx, st, snapID, []string{path})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, snapshot.CategoryLogs, targets[0].Category)
	require.True(t, targets[0].Hidden)
}
