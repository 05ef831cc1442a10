package cli

import (
	"context"

	"github.com/diskwatch/diskwatch/dedup"
	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

var duplicatesCommand = App.Command("duplicates", "Find byte-identical duplicate file clusters within a snapshot.")

func init() {
	duplicatesCommand.Action(withStore(runDuplicates))
}

func runDuplicates(ctx context.Context, cfg config.Config, st *store.Store) (any, error) {
	snapshotID, err := resolveSnapshotID(ctx, st)
	if err != nil {
		return nil, err
	}

	detector := dedup.New(st, snapshotID, dedup.DefaultOptions(), nil)

	return detector.Run(ctx)
}
