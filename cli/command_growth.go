package cli

import (
	"context"

	"github.com/diskwatch/diskwatch/analysis"
	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

var (
	growthCommand  = App.Command("growth", "Compare a snapshot against its predecessor and show growth history.")
	growthPredict  = growthCommand.Flag("predict", "Include a disk-fill prediction.").Bool()
)

func init() {
	growthCommand.Action(withStore(runGrowth))
}

type growthReport struct {
	Compare    analysis.GrowthResult        `json:"compareToPrevious"`
	History    []analysis.HistoryPoint      `json:"history"`
	Prediction *analysis.PredictionResult   `json:"prediction,omitempty"`
}

func runGrowth(ctx context.Context, cfg config.Config, st *store.Store) (any, error) {
	snapshotID, err := resolveSnapshotID(ctx, st)
	if err != nil {
		return nil, err
	}

	az := analysis.New(st, snapshotID)

	compare, err := az.GrowthComparePrevious(ctx)
	if err != nil {
		return nil, err
	}

	history, err := az.GrowthHistory(ctx)
	if err != nil {
		return nil, err
	}

	report := growthReport{Compare: compare, History: history}

	if *growthPredict {
		pred, err := az.PredictDiskFill(ctx)
		if err != nil {
			return nil, err
		}

		report.Prediction = &pred
	}

	return report, nil
}
