package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// SizeBucket is one candidate size with its member count, used for phase 1
// of duplicate detection.
type SizeBucket struct {
	Size  int64
	Count int64
}

// CandidateSizeBuckets returns every size > 0 shared by at least two files
// in the snapshot, largest cardinality first (so callers trimming to a
// ceiling keep the buckets most likely to contain real duplicates).
func (s *Store) CandidateSizeBuckets(ctx context.Context, snapshotID int64) ([]SizeBucket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT size, COUNT(*) AS c FROM files
		WHERE snapshot_id = ? AND size > 0
		GROUP BY size HAVING COUNT(*) >= 2
		ORDER BY c DESC`, snapshotID)
	if err != nil {
		return nil, errors.Wrap(err, "querying candidate size buckets")
	}
	defer rows.Close() //nolint:errcheck

	var out []SizeBucket

	for rows.Next() {
		var b SizeBucket
		if err := rows.Scan(&b.Size, &b.Count); err != nil {
			return nil, errors.Wrap(err, "scanning size bucket")
		}

		out = append(out, b)
	}

	return out, rows.Err()
}

// CandidatePathsForSize returns the path and mtime of every file of the
// given size in the snapshot.
func (s *Store) CandidatePathsForSize(ctx context.Context, snapshotID int64, size int64) ([]CandidateFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, mtime FROM files WHERE snapshot_id = ? AND size = ?`,
		snapshotID, size)
	if err != nil {
		return nil, errors.Wrap(err, "querying candidate paths")
	}
	defer rows.Close() //nolint:errcheck

	var out []CandidateFile

	for rows.Next() {
		var (
			c     CandidateFile
			mtime string
		)

		if err := rows.Scan(&c.Path, &mtime); err != nil {
			return nil, errors.Wrap(err, "scanning candidate path")
		}

		t, err := time.Parse(time.RFC3339Nano, mtime)
		if err != nil {
			return nil, errors.Wrap(err, "parsing mtime")
		}

		c.ModTime = t
		c.Size = size
		out = append(out, c)
	}

	return out, rows.Err()
}

// CandidateFile is the minimal projection the duplicate detector needs:
// enough to read, hash, and deterministically order a file.
type CandidateFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}
