package dedup

import (
	"context"

	"github.com/petar/GoLLRB/llrb"
	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/snapshot/store"
)

// bucketItem orders size buckets by descending cardinality (ties broken by
// ascending size, for determinism), so the largest-cardinality buckets can
// be read off an llrb.Tree in ascending traversal order. This is the
// selection structure used to trim candidates to CandidateCeiling without
// depending on the store's own ORDER BY doing the right thing.
type bucketItem struct {
	bucket store.SizeBucket
}

func (a bucketItem) Less(other llrb.Item) bool {
	b := other.(bucketItem)

	if a.bucket.Count != b.bucket.Count {
		return a.bucket.Count > b.bucket.Count
	}

	return a.bucket.Size < b.bucket.Size
}

// selectCandidateBuckets returns the size buckets to hash, trimmed to
// ceiling total candidate files by keeping the largest-cardinality buckets
// first, per spec.md §4.4 phase 1.
func selectCandidateBuckets(ctx context.Context, st *store.Store, snapshotID int64, ceiling int) ([]store.SizeBucket, int64, error) {
	all, err := st.CandidateSizeBuckets(ctx, snapshotID)
	if err != nil {
		return nil, 0, errors.Wrap(err, "loading candidate size buckets")
	}

	var totalCandidates int64
	for _, b := range all {
		totalCandidates += b.Count
	}

	if int64(ceiling) <= 0 || totalCandidates <= int64(ceiling) {
		return all, totalCandidates, nil
	}

	tree := llrb.New()
	for _, b := range all {
		tree.InsertNoReplace(bucketItem{bucket: b})
	}

	var (
		selected []store.SizeBucket
		running  int64
	)

	tree.AscendGreaterOrEqual(tree.Min(), func(it llrb.Item) bool {
		b := it.(bucketItem).bucket
		if running+b.Count > int64(ceiling) && len(selected) > 0 {
			return false
		}

		selected = append(selected, b)
		running += b.Count

		return running < int64(ceiling)
	})

	return selected, running, nil
}
