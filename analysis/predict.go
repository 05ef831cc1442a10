package analysis

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/internal/diskusage"
)

// PredictionResult is the result of predict_disk_fill().
type PredictionResult struct {
	HasPrediction bool
	Note          string
	ETADays       float64
	PredictedFull time.Time
}

const minSnapshotsForPrediction = 3

// PredictDiskFill fits total bytes as a linear function of elapsed days
// across every finalized snapshot and solves for when the first root's
// filesystem would be full. It needs at least three snapshots and a
// positive slope to produce a prediction.
func (a *Analyzer) PredictDiskFill(ctx context.Context) (PredictionResult, error) {
	snaps, err := a.st.ListSnapshots(ctx)
	if err != nil {
		return PredictionResult{}, errors.Wrap(err, "listing snapshots")
	}

	var finalized []struct {
		day   float64
		bytes float64
	}

	var first time.Time

	for i, s := range snaps {
		if !s.Finalized() {
			continue
		}

		if i == 0 || first.IsZero() {
			first = s.CreatedAt
		}

		finalized = append(finalized, struct {
			day   float64
			bytes float64
		}{day: s.CreatedAt.Sub(first).Hours() / 24, bytes: float64(s.TotalBytes)})
	}

	if len(finalized) < minSnapshotsForPrediction {
		return PredictionResult{HasPrediction: false, Note: "fewer than three snapshots"}, nil
	}

	a_, b, ok := ordinaryLeastSquares(finalized)
	if !ok {
		return PredictionResult{HasPrediction: false, Note: "zero variance in elapsed days"}, nil
	}

	if b <= 0 {
		return PredictionResult{HasPrediction: false, Note: "non-positive growth slope"}, nil
	}

	var diskTotal int64

	if len(snaps) > 0 {
		snap, err := a.st.GetSnapshot(ctx, a.snapshotID)
		if err == nil && snap != nil && len(snap.Roots) > 0 {
			if total, ok := diskusage.TotalBytes(snap.Roots[0]); ok {
				diskTotal = total
			}
		}
	}

	if diskTotal == 0 {
		return PredictionResult{HasPrediction: false, Note: "disk total unavailable"}, nil
	}

	fillDay := (float64(diskTotal) - a_) / b
	latest := finalized[len(finalized)-1].day
	etaDays := fillDay - latest

	return PredictionResult{
		HasPrediction: true,
		ETADays:       etaDays,
		PredictedFull: first.Add(time.Duration(fillDay * 24 * float64(time.Hour))),
	}, nil
}

func ordinaryLeastSquares(points []struct {
	day   float64
	bytes float64
}) (intercept, slope float64, ok bool) {
	n := float64(len(points))

	var sumX, sumY, sumXY, sumXX float64

	for _, p := range points {
		sumX += p.day
		sumY += p.bytes
		sumXY += p.day * p.bytes
		sumXX += p.day * p.day
	}

	meanX := sumX / n
	denom := sumXX - n*meanX*meanX

	if denom == 0 {
		return 0, 0, false
	}

	slope = (sumXY - n*meanX*(sumY/n)) / denom
	intercept = (sumY / n) - slope*meanX

	return intercept, slope, true
}
