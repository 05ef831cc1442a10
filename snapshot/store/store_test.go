package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/diskwatch/diskwatch/snapshot"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "diskwatch.db")

	st, err := Open(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() { _ = st.Close() })

	return st
}

func file(path string, size int64, mtime time.Time, category snapshot.Category) snapshot.FileRecord {
	return snapshot.FileRecord{
		Path:      path,
		DirPath:   filepath.Dir(path),
		TopDir:    "/data",
		Size:      size,
		Extension: filepath.Ext(path),
		ModTime:   mtime,
		Category:  category,
	}
}

func TestCreateAndFinalizeSnapshot(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.CreateSnapshot(ctx, []string{"/data"})
	require.NoError(t, err)
	require.NotZero(t, id)

	snap, err := st.GetSnapshot(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.False(t, snap.Finalized())

	require.NoError(t, st.FinalizeSnapshot(ctx, id, 3, 1024, 0.5))

	snap, err = st.GetSnapshot(ctx, id)
	require.NoError(t, err)
	require.True(t, snap.Finalized())
	require.EqualValues(t, 3, snap.TotalFiles)
	require.EqualValues(t, 1024, snap.TotalBytes)
}

func TestGetSnapshotMissingReturnsNilNoError(t *testing.T) {
	st := openTestStore(t)

	snap, err := st.GetSnapshot(context.Background(), 9999)
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestInsertFileBatchIsIdempotentOnConflict(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.CreateSnapshot(ctx, []string{"/data"})
	require.NoError(t, err)

	now := time.Now().UTC()
	rows := []snapshot.FileRecord{file("/data/a.txt", 100, now, snapshot.CategoryDocuments)}

	require.NoError(t, st.InsertFileBatch(ctx, id, rows))
	// inserting the same (snapshot, path) again must not error or duplicate.
	require.NoError(t, st.InsertFileBatch(ctx, id, rows))

	got, err := st.LargestFiles(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestLargestAndLargeFiles(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.CreateSnapshot(ctx, []string{"/data"})
	require.NoError(t, err)

	now := time.Now().UTC()
	rows := []snapshot.FileRecord{
		file("/data/small.txt", 10, now, snapshot.CategoryDocuments),
		file("/data/big.bin", 10_000_000, now, snapshot.CategoryOther),
		file("/data/medium.log", 5000, now, snapshot.CategoryLogs),
	}
	require.NoError(t, st.InsertFileBatch(ctx, id, rows))

	largest, err := st.LargestFiles(ctx, id, 1)
	require.NoError(t, err)
	require.Len(t, largest, 1)
	require.Equal(t, "/data/big.bin", largest[0].Path)

	large, err := st.LargeFiles(ctx, id, 1000, 10)
	require.NoError(t, err)
	require.Len(t, large, 2)
}

func TestOldAndLargeAndOldFiles(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.CreateSnapshot(ctx, []string{"/data"})
	require.NoError(t, err)

	old := time.Now().UTC().AddDate(0, 0, -200)
	recent := time.Now().UTC()

	rows := []snapshot.FileRecord{
		file("/data/ancient.bin", 10_000_000, old, snapshot.CategoryOther),
		file("/data/fresh.bin", 10_000_000, recent, snapshot.CategoryOther),
	}
	require.NoError(t, st.InsertFileBatch(ctx, id, rows))

	oldFiles, err := st.OldFiles(ctx, id, 90, 10)
	require.NoError(t, err)
	require.Len(t, oldFiles, 1)
	require.Equal(t, "/data/ancient.bin", oldFiles[0].Path)

	largeOld, err := st.LargeAndOldFiles(ctx, id, 1000, 90, 10)
	require.NoError(t, err)
	require.Len(t, largeOld, 1)
	require.Equal(t, "/data/ancient.bin", largeOld[0].Path)
}

func TestFileByPath(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.CreateSnapshot(ctx, []string{"/data"})
	require.NoError(t, err)

	require.NoError(t, st.InsertFileBatch(ctx, id, []snapshot.FileRecord{
		file("/data/a.txt", 10, time.Now().UTC(), snapshot.CategoryDocuments),
	}))

	got, err := st.FileByPath(ctx, id, "/data/a.txt")
	require.NoError(t, err)
	require.NotNil(t, got)

	missing, err := st.FileByPath(ctx, id, "/data/never-scanned.txt")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestFolderSizesAndTypeDistribution(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.CreateSnapshot(ctx, []string{"/data"})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, st.InsertFileBatch(ctx, id, []snapshot.FileRecord{
		file("/data/a.txt", 100, now, snapshot.CategoryDocuments),
		file("/data/b.txt", 200, now, snapshot.CategoryDocuments),
		file("/data/c.jpg", 250, now, snapshot.CategoryMedia),
	}))

	folders, err := st.FolderSizes(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	require.EqualValues(t, 550, folders[0].Bytes)

	dist, err := st.TypeDistribution(ctx, id)
	require.NoError(t, err)
	require.Len(t, dist, 2)
	require.Equal(t, snapshot.CategoryDocuments, dist[0].Category)
}

func TestPreviousSnapshotOrdering(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	first, err := st.CreateSnapshot(ctx, []string{"/data"})
	require.NoError(t, err)

	second, err := st.CreateSnapshot(ctx, []string{"/data"})
	require.NoError(t, err)

	prev, err := st.PreviousSnapshot(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, prev)
	require.Equal(t, first, prev.ID)

	none, err := st.PreviousSnapshot(ctx, first)
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestChurnAddedRemovedChanged(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	prevID, err := st.CreateSnapshot(ctx, []string{"/data"})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, st.InsertFileBatch(ctx, prevID, []snapshot.FileRecord{
		file("/data/keep.txt", 100, now, snapshot.CategoryDocuments),
		file("/data/removed.txt", 100, now, snapshot.CategoryDocuments),
		file("/data/changed.txt", 100, now, snapshot.CategoryDocuments),
	}))

	curID, err := st.CreateSnapshot(ctx, []string{"/data"})
	require.NoError(t, err)
	require.NoError(t, st.InsertFileBatch(ctx, curID, []snapshot.FileRecord{
		file("/data/keep.txt", 100, now, snapshot.CategoryDocuments),
		file("/data/changed.txt", 999, now, snapshot.CategoryDocuments),
		file("/data/added.txt", 100, now, snapshot.CategoryDocuments),
	}))

	added, err := st.ChurnAdded(ctx, curID, prevID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"/data/added.txt"}, added)

	removed, err := st.ChurnRemoved(ctx, curID, prevID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"/data/removed.txt"}, removed)

	changed, err := st.ChurnChanged(ctx, curID, prevID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"/data/changed.txt"}, changed)
}
