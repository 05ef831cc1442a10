package dedup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/diskwatch/diskwatch/snapshot"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "diskwatch.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = st.Close() })

	return st
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	return path
}

func TestRunFindsExactDuplicateCluster(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := newTestStore(t)

	content := []byte("the quick brown fox jumps over the lazy dog, repeated for good measure")

	a := writeFile(t, dir, "a.txt", content)
	b := writeFile(t, dir, "b.txt", content)
	c := writeFile(t, dir, "c.txt", content)
	writeFile(t, dir, "unique.txt", []byte("nothing else matches this"))

	snapID, err := st.CreateSnapshot(ctx, []string{dir})
	require.NoError(t, err)

	now := time.Now().UTC()
	rows := []snapshot.FileRecord{
		{Path: a, DirPath: dir, TopDir: dir, Size: int64(len(content)), ModTime: now},
		{Path: b, DirPath: dir, TopDir: dir, Size: int64(len(content)), ModTime: now.Add(time.Second)},
		{Path: c, DirPath: dir, TopDir: dir, Size: int64(len(content)), ModTime: now.Add(2 * time.Second)},
		{Path: filepath.Join(dir, "unique.txt"), DirPath: dir, TopDir: dir, Size: 25, ModTime: now},
	}
	require.NoError(t, st.InsertFileBatch(ctx, snapID, rows))

	result, err := New(st, snapID, DefaultOptions(), nil).Run(ctx)
	require.NoError(t, err)
	require.Len(t, result.Clusters, 1)

	cluster := result.Clusters[0]
	require.Equal(t, 3, cluster.FileCount)
	require.Equal(t, a, cluster.KeepPath) // earliest mtime wins as keep
	require.ElementsMatch(t, []string{b, c}, cluster.RemovePaths)
	require.Equal(t, int64(len(content))*2, cluster.PotentialWaste)
	require.Equal(t, cluster.PotentialWaste, result.AggregateWaste)
}

func TestRunIgnoresFilesWithDistinctContent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := newTestStore(t)

	// same size, different content: the size bucket matches, but the
	// partial hash prefix covers these short files whole, so they are
	// already separated there and never reach the full hash phase.
	a := writeFile(t, dir, "a.bin", []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1"))
	b := writeFile(t, dir, "b.bin", []byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb1"))

	snapID, err := st.CreateSnapshot(ctx, []string{dir})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, st.InsertFileBatch(ctx, snapID, []snapshot.FileRecord{
		{Path: a, DirPath: dir, TopDir: dir, Size: 68, ModTime: now},
		{Path: b, DirPath: dir, TopDir: dir, Size: 68, ModTime: now},
	}))

	result, err := New(st, snapID, DefaultOptions(), nil).Run(ctx)
	require.NoError(t, err)
	require.Empty(t, result.Clusters)
	require.Zero(t, result.AggregateWaste)
}

func TestRunEmptySnapshotProducesNoClusters(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	snapID, err := st.CreateSnapshot(ctx, nil)
	require.NoError(t, err)

	result, err := New(st, snapID, DefaultOptions(), nil).Run(ctx)
	require.NoError(t, err)
	require.Empty(t, result.Clusters)
	require.Zero(t, result.SizeBucketCount)
}

func TestBuildClusterOrdersByModTimeThenPath(t *testing.T) {
	now := time.Now().UTC()
	members := []store.CandidateFile{
		{Path: "/z.txt", Size: 10, ModTime: now},
		{Path: "/a.txt", Size: 10, ModTime: now},
		{Path: "/b.txt", Size: 10, ModTime: now.Add(-time.Minute)},
	}

	cluster := buildCluster("deadbeefdeadbeefdeadbeef", members)

	require.Equal(t, "/b.txt", cluster.KeepPath) // earliest mtime
	require.ElementsMatch(t, []string{"/a.txt", "/z.txt"}, cluster.RemovePaths)
	require.Len(t, cluster.ID, clusterIDLength)
}
