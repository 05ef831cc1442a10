package cli

import (
	"context"

	"github.com/diskwatch/diskwatch/analysis"
	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

var visualizeCommand = App.Command("visualize", "Emit histogram/folder-size/type-distribution data shaped for an external chart renderer.")

func init() {
	visualizeCommand.Action(withStore(runVisualize))
}

type visualizeReport struct {
	Histogram      []analysis.HistogramBucket `json:"histogram"`
	FolderSizes    any                        `json:"folderSizes"`
	TypeDistribution any                      `json:"typeDistribution"`
}

func runVisualize(ctx context.Context, cfg config.Config, st *store.Store) (any, error) {
	snapshotID, err := resolveSnapshotID(ctx, st)
	if err != nil {
		return nil, err
	}

	az := analysis.New(st, snapshotID)

	histogram, err := az.SizeHistogram(ctx)
	if err != nil {
		return nil, err
	}

	const defaultFolderLimit = 30

	folders, err := az.FolderSizes(ctx, defaultFolderLimit)
	if err != nil {
		return nil, err
	}

	byCategory, err := az.TypeDistribution(ctx)
	if err != nil {
		return nil, err
	}

	return visualizeReport{Histogram: histogram, FolderSizes: folders, TypeDistribution: byCategory}, nil
}
