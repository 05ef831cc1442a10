package analysis

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/snapshot/store"
)

// FolderDelta is one top_dir's byte delta between two snapshots.
type FolderDelta struct {
	TopDir     string
	DeltaBytes int64
}

// Churn is the added/removed/changed file-path sets between two adjacent
// snapshots, plus the churn rate.
type Churn struct {
	Added   int
	Removed int
	Changed int
	RatePct float64
}

// GrowthResult is the result of growth_compare_previous().
type GrowthResult struct {
	HasPrevious     bool
	PreviousID      int64
	DeltaBytes      int64
	DeltaFiles      int64
	FolderDeltas    []FolderDelta
	Churn           Churn
}

// GrowthComparePrevious reports totals deltas, per-top-dir deltas sorted by
// absolute magnitude, and file churn against the snapshot immediately
// preceding this one.
func (a *Analyzer) GrowthComparePrevious(ctx context.Context) (GrowthResult, error) {
	prev, err := a.st.PreviousSnapshot(ctx, a.snapshotID)
	if err != nil {
		return GrowthResult{}, errors.Wrap(err, "loading previous snapshot")
	}

	if prev == nil || !prev.Finalized() {
		return GrowthResult{HasPrevious: false}, nil
	}

	cur, err := a.st.GetSnapshot(ctx, a.snapshotID)
	if err != nil {
		return GrowthResult{}, errors.Wrap(err, "loading current snapshot")
	}

	if cur == nil {
		return GrowthResult{}, errors.Errorf("no such snapshot %d", a.snapshotID)
	}

	curFolders, err := a.st.AllFolderSizes(ctx, a.snapshotID)
	if err != nil {
		return GrowthResult{}, errors.Wrap(err, "loading current folder sizes")
	}

	prevAnalyzer := &Analyzer{st: a.st, snapshotID: prev.ID}

	prevFolders, err := prevAnalyzer.st.AllFolderSizes(ctx, prev.ID)
	if err != nil {
		return GrowthResult{}, errors.Wrap(err, "loading previous folder sizes")
	}

	deltas := folderDeltas(curFolders, prevFolders)

	added, err := a.st.ChurnAdded(ctx, a.snapshotID, prev.ID)
	if err != nil {
		return GrowthResult{}, errors.Wrap(err, "computing churn added")
	}

	removed, err := a.st.ChurnRemoved(ctx, a.snapshotID, prev.ID)
	if err != nil {
		return GrowthResult{}, errors.Wrap(err, "computing churn removed")
	}

	changed, err := a.st.ChurnChanged(ctx, a.snapshotID, prev.ID)
	if err != nil {
		return GrowthResult{}, errors.Wrap(err, "computing churn changed")
	}

	var ratePct float64
	if cur.TotalFiles > 0 {
		ratePct = float64(len(added)+len(removed)+len(changed)) * 100 / float64(cur.TotalFiles)
	}

	return GrowthResult{
		HasPrevious:  true,
		PreviousID:   prev.ID,
		DeltaBytes:   cur.TotalBytes - prev.TotalBytes,
		DeltaFiles:   cur.TotalFiles - prev.TotalFiles,
		FolderDeltas: deltas,
		Churn: Churn{
			Added:   len(added),
			Removed: len(removed),
			Changed: len(changed),
			RatePct: ratePct,
		},
	}, nil
}

func folderDeltas(cur, prev []store.FolderSize) []FolderDelta {
	byDir := map[string]int64{}

	for _, f := range cur {
		byDir[f.TopDir] += f.Bytes
	}

	for _, f := range prev {
		byDir[f.TopDir] -= f.Bytes
	}

	out := make([]FolderDelta, 0, len(byDir))
	for dir, delta := range byDir {
		if delta == 0 {
			continue
		}

		out = append(out, FolderDelta{TopDir: dir, DeltaBytes: delta})
	}

	sort.Slice(out, func(i, j int) bool {
		return math.Abs(float64(out[i].DeltaBytes)) > math.Abs(float64(out[j].DeltaBytes))
	})

	return out
}

// HistoryPoint is one row of growth_history().
type HistoryPoint struct {
	SnapshotID int64
	CreatedAt  string
	TotalFiles int64
	TotalBytes int64
}

// GrowthHistory returns every snapshot in insertion order with totals.
func (a *Analyzer) GrowthHistory(ctx context.Context) ([]HistoryPoint, error) {
	snaps, err := a.st.ListSnapshots(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing snapshots")
	}

	out := make([]HistoryPoint, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, HistoryPoint{
			SnapshotID: s.ID,
			CreatedAt:  s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			TotalFiles: s.TotalFiles,
			TotalBytes: s.TotalBytes,
		})
	}

	return out, nil
}
