package cli

import (
	"context"

	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/analysis"
	"github.com/diskwatch/diskwatch/classify"
	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/scan"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

var (
	analyzeCommand = App.Command("analyze", "Scan the configured roots and report a storage summary.")
	analyzeRoots   = analyzeCommand.Arg("root", "Filesystem root to scan (repeatable).").Strings()
	analyzeFollow  = analyzeCommand.Flag("follow-symlinks", "Follow symlinked directories.").Bool()
	analyzeHidden  = analyzeCommand.Flag("include-hidden", "Include dotfiles and dot-directories.").Bool()
)

func init() {
	analyzeCommand.Action(withStore(runAnalyze))
}

// analyzeReport is the JSON shape written by the analyze command.
type analyzeReport struct {
	Scan       scan.Result          `json:"scan"`
	Summary    analysis.Summary     `json:"summary"`
	Pareto     analysis.ParetoResult `json:"paretoTopConsumers"`
	ByCategory any                  `json:"typeDistribution"`
	TopExt     any                  `json:"extensionFrequency"`
}

func runAnalyze(ctx context.Context, cfg config.Config, st *store.Store) (any, error) {
	roots := *analyzeRoots
	if len(roots) == 0 {
		roots = cfg.Roots
	}

	if len(roots) == 0 {
		return nil, errors.New("at least one root is required, via argument or config")
	}

	rules, err := classify.LoadUserRules(cfg.ClassifierRules)
	if err != nil {
		return nil, err
	}

	opts := scan.DefaultOptions()
	opts.Roots = roots
	opts.FollowSymlinks = *analyzeFollow || cfg.FollowSymlinks
	opts.IncludeHidden = *analyzeHidden || cfg.IncludeHidden

	scanner := scan.New(st, opts, rules, nil)

	result, err := scanner.Run(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "scanning")
	}

	az := analysis.New(st, result.SnapshotID)

	summary, err := az.Summary(ctx)
	if err != nil {
		return nil, err
	}

	pareto, err := az.ParetoTopConsumers(ctx)
	if err != nil {
		return nil, err
	}

	byCategory, err := az.TypeDistribution(ctx)
	if err != nil {
		return nil, err
	}

	const defaultExtensionLimit = 20

	topExt, err := az.ExtensionFrequency(ctx, defaultExtensionLimit)
	if err != nil {
		return nil, err
	}

	return analyzeReport{
		Scan:       *result,
		Summary:    summary,
		Pareto:     pareto,
		ByCategory: byCategory,
		TopExt:     topExt,
	}, nil
}
