package analysis

import (
	"context"
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

func seedSnapshot(t *testing.T, st *store.Store, roots []string, rows []snapshot.FileRecord, totalFiles, totalBytes int64) int64 {
	t.Helper()

	ctx := context.Background()

	id, err := st.CreateSnapshot(ctx, roots)
	require.NoError(t, err)

	if len(rows) > 0 {
		require.NoError(t, st.InsertFileBatch(ctx, id, rows))
	}

	require.NoError(t, st.FinalizeSnapshot(ctx, id, totalFiles, totalBytes, 1.0))

	return id
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	id := seedSnapshot(t, st, []string{"/data"}, nil, 5, 5000)

	summary, err := New(st, id).Summary(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 5, summary.TotalFiles)
	require.EqualValues(t, 5000, summary.TotalBytes)
	require.Equal(t, []string{"/data"}, summary.Roots)
}

func TestParetoTopConsumers(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	rows := []snapshot.FileRecord{
		{Path: "/data/big/a", DirPath: "/data/big", TopDir: "/data/big", Size: 800},
		{Path: "/data/small/a", DirPath: "/data/small", TopDir: "/data/small", Size: 100},
		{Path: "/data/tiny/a", DirPath: "/data/tiny", TopDir: "/data/tiny", Size: 100},
	}

	id := seedSnapshot(t, st, []string{"/data"}, rows, 3, 1000)

	result, err := New(st, id).ParetoTopConsumers(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.Coverage, 80.0)
	require.Equal(t, "/data/big", result.Folders[0].TopDir)
}

func TestParetoTopConsumersEmptySnapshot(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	id := seedSnapshot(t, st, nil, nil, 0, 0)

	result, err := New(st, id).ParetoTopConsumers(ctx)
	require.NoError(t, err)
	require.Empty(t, result.Folders)
	require.Zero(t, result.Coverage)
}

func TestGrowthComparePreviousWithNoPriorSnapshot(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	id := seedSnapshot(t, st, []string{"/data"}, nil, 1, 100)

	result, err := New(st, id).GrowthComparePrevious(ctx)
	require.NoError(t, err)
	require.False(t, result.HasPrevious)
}

func TestGrowthComparePreviousSkipsUnfinalizedPredecessor(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	// unfinalized: created but never finalized (duration stays zero).
	_, err := st.CreateSnapshot(ctx, []string{"/data"})
	require.NoError(t, err)

	curID := seedSnapshot(t, st, []string{"/data"}, nil, 1, 100)

	result, err := New(st, curID).GrowthComparePrevious(ctx)
	require.NoError(t, err)
	require.False(t, result.HasPrevious)
}

func TestGrowthComparePreviousComputesDeltasAndChurn(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	prevRows := []snapshot.FileRecord{
		{Path: "/data/keep.txt", DirPath: "/data", TopDir: "/data", Size: 100, ModTime: time.Unix(100, 0)},
		{Path: "/data/removed.txt", DirPath: "/data", TopDir: "/data", Size: 50, ModTime: time.Unix(100, 0)},
	}
	prevID := seedSnapshot(t, st, []string{"/data"}, prevRows, 2, 150)

	curRows := []snapshot.FileRecord{
		{Path: "/data/keep.txt", DirPath: "/data", TopDir: "/data", Size: 100, ModTime: time.Unix(100, 0)},
		{Path: "/data/added.txt", DirPath: "/data", TopDir: "/data", Size: 900, ModTime: time.Unix(200, 0)},
	}
	curID := seedSnapshot(t, st, []string{"/data"}, curRows, 2, 1000)
	_ = prevID

	result, err := New(st, curID).GrowthComparePrevious(ctx)
	require.NoError(t, err)
	require.True(t, result.HasPrevious)
	require.EqualValues(t, 850, result.DeltaBytes)
	require.Equal(t, 1, result.Churn.Added)
	require.Equal(t, 1, result.Churn.Removed)
	require.Equal(t, 0, result.Churn.Changed)
}

func TestSizeHistogramBucketsBySize(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	rows := []snapshot.FileRecord{
		{Path: "/data/tiny", DirPath: "/data", TopDir: "/data", Size: 500},
		{Path: "/data/mid", DirPath: "/data", TopDir: "/data", Size: 2 * 1024 * 1024},
	}
	id := seedSnapshot(t, st, []string{"/data"}, rows, 2, 2*1024*1024+500)

	buckets, err := New(st, id).SizeHistogram(ctx)
	require.NoError(t, err)

	var total int64
	for _, b := range buckets {
		total += b.Count
	}

	require.EqualValues(t, 2, total)
}

func TestPredictDiskFillNeedsAtLeastThreeSnapshots(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	id1 := seedSnapshot(t, st, []string{"/data"}, nil, 1, 100)
	_ = seedSnapshot(t, st, []string{"/data"}, nil, 1, 200)

	result, err := New(st, id1).PredictDiskFill(ctx)
	require.NoError(t, err)
	require.False(t, result.HasPrediction)
}
