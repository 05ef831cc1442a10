package cli

import (
	"context"

	"github.com/diskwatch/diskwatch/analysis"
	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

var (
	largeCommand  = App.Command("large", "List the largest files in a snapshot.")
	largeMinSize  = largeCommand.Flag("min-size", "Minimum size, e.g. 500MB.").String()
	largeLimit    = largeCommand.Flag("limit", "Maximum rows to return.").Default("50").Int()
)

func init() {
	largeCommand.Action(withStore(runLarge))
}

func runLarge(ctx context.Context, cfg config.Config, st *store.Store) (any, error) {
	snapshotID, err := resolveSnapshotID(ctx, st)
	if err != nil {
		return nil, err
	}

	az := analysis.New(st, snapshotID)

	minSize, err := parseSizeFlag(*largeMinSize, cfg.MinSize)
	if err != nil {
		return nil, err
	}

	if minSize > 0 {
		return az.LargeFiles(ctx, minSize, *largeLimit)
	}

	return az.LargestFiles(ctx, *largeLimit)
}
