package analysis

import (
	"context"

	"github.com/pkg/errors"
)

// HistogramBucket is one labeled bucket of size_histogram().
type HistogramBucket struct {
	Label string
	Count int64
}

const (
	kib = 1024
	mib = kib * 1024
	gib = mib * 1024
)

// histogramBoundaries are lower-inclusive, upper-exclusive; the final
// boundary is an overflow bucket with no upper bound.
var histogramBoundaries = []int64{
	0, 4 * kib, 64 * kib, mib, 10 * mib, 100 * mib, gib, 10 * gib,
}

var histogramLabels = []string{
	"0 - 4 KiB",
	"4 KiB - 64 KiB",
	"64 KiB - 1 MiB",
	"1 MiB - 10 MiB",
	"10 MiB - 100 MiB",
	"100 MiB - 1 GiB",
	"1 GiB - 10 GiB",
	"10 GiB+",
}

// SizeHistogram places each file into a fixed logarithmic bucket.
func (a *Analyzer) SizeHistogram(ctx context.Context) ([]HistogramBucket, error) {
	counts, err := a.st.HistogramBucketCounts(ctx, a.snapshotID, histogramBoundaries)
	if err != nil {
		return nil, errors.Wrap(err, "computing histogram")
	}

	out := make([]HistogramBucket, len(histogramLabels))
	for i, label := range histogramLabels {
		out[i] = HistogramBucket{Label: label, Count: counts[i]}
	}

	return out, nil
}
