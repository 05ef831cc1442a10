package cli

import (
	"context"

	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/cleanup"
	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

var (
	devCleanCommand    = App.Command("dev-clean", "Find and optionally remove disposable dependency/build caches (node_modules, __pycache__, dist, ...).")
	devCleanRoots      = devCleanCommand.Arg("root", "Root to search (repeatable).").Strings()
	devCleanQuarantine = devCleanCommand.Flag("quarantine-dir", "Quarantine tree root.").Default("/var/tmp/diskwatch/quarantine").String()
	devCleanDryRun     = devCleanCommand.Flag("dry-run", "Report what would happen without touching the filesystem.").Default("true").Bool()
	devCleanConfirm    = devCleanCommand.Flag("confirm", "Required to acknowledge a non-dry-run run.").Bool()
)

func init() {
	devCleanCommand.Action(withStore(runDevClean))
}

func runDevClean(ctx context.Context, cfg config.Config, st *store.Store) (any, error) {
	snapshotID, err := resolveSnapshotID(ctx, st)
	if err != nil {
		return nil, err
	}

	roots := *devCleanRoots
	if len(roots) == 0 {
		roots = cfg.Roots
	}

	if len(roots) == 0 {
		return nil, errors.New("at least one root is required, via argument or config")
	}

	targets, err := cleanup.FromDevArtifacts(ctx, st, snapshotID, roots)
	if err != nil {
		return nil, err
	}

	policy := cfg.Policy
	policy.DryRun = *devCleanDryRun
	policy.QuarantineMode = true
	policy.Confirm = *devCleanConfirm

	if !policy.DryRun && !policy.Confirm {
		return nil, errors.New("a non-dry-run dev-clean requires --confirm")
	}

	engine, err := cleanup.New(st, snapshotID, roots, *devCleanQuarantine, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	defer engine.Close() //nolint:errcheck

	result, err := engine.Execute(ctx, targets, "dev-clean", policy)
	if err != nil {
		return nil, err
	}

	for _, item := range result.Items {
		printItemLine(item.Path, item.Outcome, item.Risk.Level, item.Reason)
	}

	return result, nil
}
