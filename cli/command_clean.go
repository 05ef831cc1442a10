package cli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/cleanup"
	"github.com/diskwatch/diskwatch/dedup"
	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

var (
	cleanCommand     = App.Command("clean", "Execute a cleanup plan against a snapshot.")
	cleanSelector    = cleanCommand.Flag("select", "Candidate selector: duplicates, large-and-old, logs-temp, or paths.").Default("duplicates").String()
	cleanPaths       = cleanCommand.Flag("path", "Explicit target path (repeatable, used with --select=paths).").Strings()
	cleanRoots       = cleanCommand.Flag("allowed-root", "Root a target must lie under (repeatable).").Strings()
	cleanQuarantine  = cleanCommand.Flag("quarantine-dir", "Quarantine tree root.").Default("/var/tmp/diskwatch/quarantine").String()
	cleanDryRun      = cleanCommand.Flag("dry-run", "Report what would happen without touching the filesystem.").Default("true").Bool()
	cleanQuarantined = cleanCommand.Flag("quarantine-mode", "Move targets to quarantine instead of permanent deletion.").Default("true").Bool()
	cleanForce       = cleanCommand.Flag("force-high-risk", "Act on high-risk targets.").Bool()
	cleanConfirm     = cleanCommand.Flag("confirm", "Required to acknowledge a non-dry-run, non-quarantine run.").Bool()
	cleanMinSize     = cleanCommand.Flag("min-size", "Minimum size, used with --select=large-and-old.").String()
	cleanOlderDays   = cleanCommand.Flag("older-than-days", "Minimum age in days, used with --select=large-and-old.").Default("90").Int()
	cleanLimit       = cleanCommand.Flag("limit", "Maximum targets to select, used with --select=large-and-old or logs-temp.").Default("1000").Int()
)

func init() {
	cleanCommand.Action(withStore(runClean))
}

func runClean(ctx context.Context, cfg config.Config, st *store.Store) (any, error) {
	snapshotID, err := resolveSnapshotID(ctx, st)
	if err != nil {
		return nil, err
	}

	targets, err := selectCleanupTargets(ctx, st, snapshotID, cfg)
	if err != nil {
		return nil, err
	}

	allowedRoots := *cleanRoots
	if len(allowedRoots) == 0 {
		allowedRoots = cfg.Roots
	}

	if len(allowedRoots) == 0 {
		return nil, errors.New("at least one --allowed-root is required, via flag or config")
	}

	policy := cfg.Policy
	policy.DryRun = *cleanDryRun
	policy.QuarantineMode = *cleanQuarantined
	policy.ForceHighRisk = *cleanForce
	policy.Confirm = *cleanConfirm

	if !policy.DryRun && !policy.QuarantineMode && !policy.Confirm {
		if !confirmInteractive(fmt.Sprintf("Permanently delete %d selected targets?", len(targets))) {
			return nil, errors.New("permanent deletion requires --confirm")
		}

		policy.Confirm = true
	}

	engine, err := cleanup.New(st, snapshotID, allowedRoots, *cleanQuarantine, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	defer engine.Close() //nolint:errcheck

	result, err := engine.Execute(ctx, targets, *cleanSelector, policy)
	if err != nil {
		return nil, err
	}

	for _, item := range result.Items {
		printItemLine(item.Path, item.Outcome, item.Risk.Level, item.Reason)
	}

	return result, nil
}

func selectCleanupTargets(ctx context.Context, st *store.Store, snapshotID int64, cfg config.Config) ([]cleanup.Target, error) {
	switch *cleanSelector {
	case "duplicates":
		detector := dedup.New(st, snapshotID, dedup.DefaultOptions(), nil)

		result, err := detector.Run(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "running duplicate detection")
		}

		return cleanup.FromDuplicates(ctx, st, snapshotID, result.Clusters)

	case "large-and-old":
		minSize, err := parseSizeFlag(*cleanMinSize, cfg.MinSize)
		if err != nil {
			return nil, err
		}

		return cleanup.FromLargeAndOld(ctx, st, snapshotID, minSize, *cleanOlderDays, *cleanLimit)

	case "logs-temp":
		return cleanup.FromLogsAndTemp(ctx, st, snapshotID, *cleanLimit)

	case "paths":
		if len(*cleanPaths) == 0 {
			return nil, errors.New("--select=paths requires at least one --path")
		}

		return cleanup.FromPaths(ctx, st, snapshotID, *cleanPaths)

	default:
		return nil, errors.Errorf("unknown selector %q", *cleanSelector)
	}
}
