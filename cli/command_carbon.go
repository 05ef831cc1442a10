package cli

import (
	"context"

	"github.com/diskwatch/diskwatch/analysis"
	"github.com/diskwatch/diskwatch/carbon"
	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

var carbonCommand = App.Command("carbon", "Estimate an approximate CO2e figure for a snapshot's stored bytes.")

func init() {
	carbonCommand.Action(withStore(runCarbon))
}

func runCarbon(ctx context.Context, cfg config.Config, st *store.Store) (any, error) {
	snapshotID, err := resolveSnapshotID(ctx, st)
	if err != nil {
		return nil, err
	}

	summary, err := analysis.New(st, snapshotID).Summary(ctx)
	if err != nil {
		return nil, err
	}

	return carbon.EstimateBytes(summary.TotalBytes, cfg.Carbon), nil
}
