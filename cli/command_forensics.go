package cli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sanity-io/litter"

	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

var (
	forensicsCommand  = App.Command("forensics", "Dump the full audit trail for one cleanup action, read-only.")
	forensicsActionID = forensicsCommand.Arg("action-id", "Cleanup action id to inspect.").Required().String()
	forensicsPretty   = forensicsCommand.Flag("pretty", "Print a human-readable dump to stderr in addition to the JSON report.").Bool()
)

func init() {
	forensicsCommand.Action(withStore(runForensics))
}

type forensicsReport struct {
	ActionID string               `json:"actionId"`
	Items    []store.CleanupItemRow  `json:"items"`
	Manifest []store.ManifestRow     `json:"manifest"`
}

func runForensics(ctx context.Context, cfg config.Config, st *store.Store) (any, error) {
	items, err := st.ItemsForAction(ctx, *forensicsActionID)
	if err != nil {
		return nil, errors.Wrap(err, "loading cleanup items")
	}

	manifest, err := st.ManifestForAction(ctx, *forensicsActionID)
	if err != nil {
		return nil, errors.Wrap(err, "loading quarantine manifest")
	}

	if len(items) == 0 {
		return nil, errors.Errorf("no cleanup action %q found", *forensicsActionID)
	}

	report := forensicsReport{ActionID: *forensicsActionID, Items: items, Manifest: manifest}

	if *forensicsPretty {
		fmt.Fprintln(stderrOut, litter.Sdump(report))
	}

	return report, nil
}
