package cli

import (
	"context"

	"github.com/diskwatch/diskwatch/analysis"
	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

var (
	oldCommand       = App.Command("old", "List the oldest files in a snapshot.")
	oldOlderThanDays = oldCommand.Flag("older-than-days", "Minimum age in days.").Default("90").Int()
	oldLimit         = oldCommand.Flag("limit", "Maximum rows to return.").Default("50").Int()
	oldAlsoLarge     = oldCommand.Flag("also-large", "Additionally require size >= min-size.").Bool()
	oldMinSize       = oldCommand.Flag("min-size", "Minimum size, used with --also-large.").Default("0").String()
)

func init() {
	oldCommand.Action(withStore(runOld))
}

// oldFileRow augments a FileRecord with a human-readable relative age, for
// callers reading the JSON report by eye rather than piping it onward.
type oldFileRow struct {
	snapshot.FileRecord
	HumanAge string `json:"humanAge"`
}

func runOld(ctx context.Context, cfg config.Config, st *store.Store) (any, error) {
	snapshotID, err := resolveSnapshotID(ctx, st)
	if err != nil {
		return nil, err
	}

	az := analysis.New(st, snapshotID)

	var (
		files []snapshot.FileRecord
	)

	if !*oldAlsoLarge {
		files, err = az.OldFiles(ctx, *oldOlderThanDays, *oldLimit)
	} else {
		var minSize int64

		minSize, err = parseSizeFlag(*oldMinSize, cfg.MinSize)
		if err != nil {
			return nil, err
		}

		files, err = az.LargeAndOldFiles(ctx, minSize, *oldOlderThanDays, *oldLimit)
	}

	if err != nil {
		return nil, err
	}

	rows := make([]oldFileRow, len(files))
	for i, f := range files {
		rows[i] = oldFileRow{FileRecord: f, HumanAge: humanizeAge(f.ModTime)}
	}

	return rows, nil
}
