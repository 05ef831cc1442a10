// Package analysis implements the Analyzer: read-only aggregation over one
// snapshot plus growth comparison against its predecessor. Every query is
// delegated to snapshot/store, which owns the actual SQL; this package
// only shapes results and implements logic that does not belong in SQL
// (pareto prefix, histogram bucketing, OLS prediction).
package analysis

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/internal/units"
	"github.com/diskwatch/diskwatch/snapshot"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

// Analyzer answers questions about one snapshot.
type Analyzer struct {
	st         *store.Store
	snapshotID int64
}

// New returns an Analyzer bound to one snapshot.
func New(st *store.Store, snapshotID int64) *Analyzer {
	return &Analyzer{st: st, snapshotID: snapshotID}
}

// Summary is the result of summary().
type Summary struct {
	SnapshotID int64
	CreatedAt  time.Time
	Roots      []string
	TotalFiles int64
	TotalBytes int64
}

// Summary returns the snapshot's headline totals.
func (a *Analyzer) Summary(ctx context.Context) (Summary, error) {
	snap, err := a.st.GetSnapshot(ctx, a.snapshotID)
	if err != nil {
		return Summary{}, errors.Wrap(err, "loading snapshot")
	}

	if snap == nil {
		return Summary{}, errors.Errorf("no such snapshot %d", a.snapshotID)
	}

	return Summary{
		SnapshotID: snap.ID,
		CreatedAt:  snap.CreatedAt,
		Roots:      snap.Roots,
		TotalFiles: snap.TotalFiles,
		TotalBytes: snap.TotalBytes,
	}, nil
}

// LargestFiles returns the top-K files by descending size.
func (a *Analyzer) LargestFiles(ctx context.Context, limit int) ([]snapshot.FileRecord, error) {
	return a.st.LargestFiles(ctx, a.snapshotID, limit)
}

// FolderSizes groups by top_dir, descending by bytes.
func (a *Analyzer) FolderSizes(ctx context.Context, limit int) ([]store.FolderSize, error) {
	return a.st.FolderSizes(ctx, a.snapshotID, limit)
}

// TypeDistribution groups by category, descending by bytes.
func (a *Analyzer) TypeDistribution(ctx context.Context) ([]store.CategoryBytes, error) {
	return a.st.TypeDistribution(ctx, a.snapshotID)
}

// ExtensionFrequency groups by extension, descending by count.
func (a *Analyzer) ExtensionFrequency(ctx context.Context, limit int) ([]store.ExtensionCount, error) {
	return a.st.ExtensionFrequency(ctx, a.snapshotID, limit)
}

// LargeFiles filters by minimum size, descending.
func (a *Analyzer) LargeFiles(ctx context.Context, minSize int64, limit int) ([]snapshot.FileRecord, error) {
	return a.st.LargeFiles(ctx, a.snapshotID, minSize, limit)
}

// OldFiles filters by age, ascending mtime.
func (a *Analyzer) OldFiles(ctx context.Context, olderThanDays int, limit int) ([]snapshot.FileRecord, error) {
	return a.st.OldFiles(ctx, a.snapshotID, olderThanDays, limit)
}

// LargeAndOldFiles intersects both filters.
func (a *Analyzer) LargeAndOldFiles(ctx context.Context, minSize int64, olderThanDays int, limit int) ([]snapshot.FileRecord, error) {
	return a.st.LargeAndOldFiles(ctx, a.snapshotID, minSize, olderThanDays, limit)
}

// ParetoResult is the result of pareto_top_consumers().
type ParetoResult struct {
	Folders  []store.FolderSize
	Coverage float64 // percentage of total bytes covered, may exceed 80
}

// ParetoTopConsumers returns the smallest prefix of the folder-size
// ordering whose cumulative bytes reach 80% of the folder total.
func (a *Analyzer) ParetoTopConsumers(ctx context.Context) (ParetoResult, error) {
	const targetPct = 80.0

	all, err := a.st.AllFolderSizes(ctx, a.snapshotID)
	if err != nil {
		return ParetoResult{}, errors.Wrap(err, "loading folder sizes")
	}

	var total int64
	for _, f := range all {
		total += f.Bytes
	}

	if total == 0 {
		return ParetoResult{}, nil
	}

	var (
		running int64
		cutoff  int
	)

	for i, f := range all {
		running += f.Bytes
		cutoff = i + 1

		if float64(running)*100/float64(total) >= targetPct {
			break
		}
	}

	return ParetoResult{
		Folders:  all[:cutoff],
		Coverage: float64(running) * 100 / float64(total),
	}, nil
}

// FormatBytes re-exports internal/units for report rendering convenience.
func FormatBytes(n int64) string { return units.FormatBytes(n) }
