package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/diskwatch/diskwatch/classify"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "diskwatch.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = st.Close() })

	return st
}

func TestRunWalksTreeAndRecordsFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "top.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "mid.txt"), []byte("yy"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b", "deep.txt"), []byte("zzz"), 0o644))

	st := newTestStore(t)
	opts := DefaultOptions()
	opts.Roots = []string{root}

	scanner := New(st, opts, classify.DefaultRules(), nil)

	result, err := scanner.Run(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, result.TotalFiles)
	require.EqualValues(t, 6, result.TotalBytes)
	require.False(t, result.Partial)

	files, err := st.LargestFiles(ctx, result.SnapshotID, 10)
	require.NoError(t, err)
	require.Len(t, files, 3)
}

func TestRunExcludesHiddenFilesByDefault(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "visible.txt"), []byte("x"), 0o644))

	st := newTestStore(t)
	opts := DefaultOptions()
	opts.Roots = []string{root}

	result, err := New(st, opts, classify.DefaultRules(), nil).Run(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, result.TotalFiles)
}

func TestRunIncludesHiddenFilesWhenConfigured(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "visible.txt"), []byte("x"), 0o644))

	st := newTestStore(t)
	opts := DefaultOptions()
	opts.Roots = []string{root}
	opts.IncludeHidden = true

	result, err := New(st, opts, classify.DefaultRules(), nil).Run(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, result.TotalFiles)
}

func TestRunSkipsConfiguredDirNames(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "pkg.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("x"), 0o644))

	st := newTestStore(t)
	opts := DefaultOptions()
	opts.Roots = []string{root}

	result, err := New(st, opts, classify.DefaultRules(), nil).Run(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, result.TotalFiles)
}

func TestRunSkipsBrokenSymlinkSilently(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	require.NoError(t, os.Symlink(filepath.Join(root, "does-not-exist"), filepath.Join(root, "dangling")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "real.txt"), []byte("x"), 0o644))

	st := newTestStore(t)
	opts := DefaultOptions()
	opts.Roots = []string{root}
	opts.FollowSymlinks = true

	result, err := New(st, opts, classify.DefaultRules(), nil).Run(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, result.TotalFiles)
	require.Empty(t, result.Errors)
}

func TestRunRejectsProtectedRoot(t *testing.T) {
	st := newTestStore(t)
	opts := DefaultOptions()
	opts.Roots = []string{"/etc"}

	_, err := New(st, opts, classify.DefaultRules(), nil).Run(context.Background())
	require.Error(t, err)
}

func TestTopDirKeyCountsFromScanRoot(t *testing.T) {
	root := "/data/shared"
	got := topDirKey(root, "/data/shared/projects/alpha/src", 2)
	require.Equal(t, filepath.Join(root, "projects", "alpha"), got)
}

func TestTopDirKeyAtRootItself(t *testing.T) {
	root := "/data/shared"
	require.Equal(t, root, topDirKey(root, root, 2))
}
