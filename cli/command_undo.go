package cli

import (
	"context"

	"github.com/diskwatch/diskwatch/cleanup"
	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

var (
	undoCommand  = App.Command("undo", "Restore every un-restored quarantined item of a cleanup action.")
	undoActionID = undoCommand.Arg("action-id", "Cleanup action id to undo.").Required().String()
)

func init() {
	undoCommand.Action(withStore(runUndo))
}

func runUndo(ctx context.Context, cfg config.Config, st *store.Store) (any, error) {
	snapshotID, err := resolveSnapshotID(ctx, st)
	if err != nil {
		return nil, err
	}

	engine, err := cleanup.New(st, snapshotID, nil, "", cfg.LogFile)
	if err != nil {
		return nil, err
	}
	defer engine.Close() //nolint:errcheck

	return engine.Undo(ctx, *undoActionID)
}
