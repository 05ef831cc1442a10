package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/snapshot"
)

// FolderSize is one row of the folder_sizes aggregation.
type FolderSize struct {
	TopDir string
	Bytes  int64
	Files  int64
}

// CategoryBytes is one row of the type_distribution aggregation.
type CategoryBytes struct {
	Category snapshot.Category
	Bytes    int64
	Files    int64
}

// ExtensionCount is one row of the extension_frequency aggregation.
type ExtensionCount struct {
	Extension string
	Files     int64
	Bytes     int64
}

func scanFileRow(rows *sqlRows) (snapshot.FileRecord, error) {
	var (
		f               snapshot.FileRecord
		mtime, atime    string
		hidden, symlink int
	)

	err := rows.Scan(&f.ID, &f.SnapshotID, &f.Path, &f.DirPath, &f.TopDir, &f.Size,
		&f.Extension, &mtime, &atime, &f.Permission, &hidden, &symlink, &f.Category)
	if err != nil {
		return f, err
	}

	f.ModTime, err = time.Parse(time.RFC3339Nano, mtime)
	if err != nil {
		return f, errors.Wrap(err, "parsing mtime")
	}

	f.AccessTime, err = time.Parse(time.RFC3339Nano, atime)
	if err != nil {
		return f, errors.Wrap(err, "parsing atime")
	}

	f.Hidden = hidden != 0
	f.Symlink = symlink != 0

	return f, nil
}

const fileColumns = `id, snapshot_id, path, dir_path, top_dir, size, extension, mtime, atime, permissions, is_hidden, is_symlink, category`

// LargestFiles returns the top-K files by descending size, ties broken by
// ascending path.
func (s *Store) LargestFiles(ctx context.Context, snapshotID int64, limit int) ([]snapshot.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE snapshot_id = ? ORDER BY size DESC, path ASC LIMIT ?`,
		snapshotID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying largest files")
	}
	defer rows.Close() //nolint:errcheck

	return collectFiles(rows)
}

// LargeFiles returns files at or above minSize, largest first.
func (s *Store) LargeFiles(ctx context.Context, snapshotID int64, minSize int64, limit int) ([]snapshot.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE snapshot_id = ? AND size >= ? ORDER BY size DESC, path ASC LIMIT ?`,
		snapshotID, minSize, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying large files")
	}
	defer rows.Close() //nolint:errcheck

	return collectFiles(rows)
}

// OldFiles returns files whose mtime is older than olderThanDays, oldest
// first.
func (s *Store) OldFiles(ctx context.Context, snapshotID int64, olderThanDays int, limit int) ([]snapshot.FileRecord, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(time.RFC3339Nano)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE snapshot_id = ? AND mtime < ? ORDER BY mtime ASC, path ASC LIMIT ?`,
		snapshotID, cutoff, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying old files")
	}
	defer rows.Close() //nolint:errcheck

	return collectFiles(rows)
}

// LargeAndOldFiles intersects LargeFiles and OldFiles, ordered by
// descending size.
func (s *Store) LargeAndOldFiles(ctx context.Context, snapshotID int64, minSize int64, olderThanDays int, limit int) ([]snapshot.FileRecord, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(time.RFC3339Nano)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE snapshot_id = ? AND size >= ? AND mtime < ?
		 ORDER BY size DESC, path ASC LIMIT ?`,
		snapshotID, minSize, cutoff, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying large-and-old files")
	}
	defer rows.Close() //nolint:errcheck

	return collectFiles(rows)
}

// FileByPath returns the file row for one exact path in a snapshot, or nil
// if no such row exists (e.g. the path was never scanned).
func (s *Store) FileByPath(ctx context.Context, snapshotID int64, path string) (*snapshot.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE snapshot_id = ? AND path = ? LIMIT 1`,
		snapshotID, path)
	if err != nil {
		return nil, errors.Wrap(err, "querying file by path")
	}
	defer rows.Close() //nolint:errcheck

	files, err := collectFiles(rows)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, nil
	}

	return &files[0], nil
}

// FolderSizes groups files by top_dir, descending by bytes.
func (s *Store) FolderSizes(ctx context.Context, snapshotID int64, limit int) ([]FolderSize, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT top_dir, SUM(size), COUNT(*) FROM files WHERE snapshot_id = ?
		 GROUP BY top_dir ORDER BY SUM(size) DESC LIMIT ?`,
		snapshotID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying folder sizes")
	}
	defer rows.Close() //nolint:errcheck

	var out []FolderSize

	for rows.Next() {
		var fsz FolderSize
		if err := rows.Scan(&fsz.TopDir, &fsz.Bytes, &fsz.Files); err != nil {
			return nil, errors.Wrap(err, "scanning folder size row")
		}

		out = append(out, fsz)
	}

	return out, rows.Err()
}

// AllFolderSizes returns every top_dir group, unlimited, used to compute
// the pareto prefix.
func (s *Store) AllFolderSizes(ctx context.Context, snapshotID int64) ([]FolderSize, error) {
	return s.FolderSizes(ctx, snapshotID, -1)
}

// TypeDistribution groups files by category, descending by bytes.
func (s *Store) TypeDistribution(ctx context.Context, snapshotID int64) ([]CategoryBytes, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, SUM(size), COUNT(*) FROM files WHERE snapshot_id = ?
		 GROUP BY category ORDER BY SUM(size) DESC`,
		snapshotID)
	if err != nil {
		return nil, errors.Wrap(err, "querying type distribution")
	}
	defer rows.Close() //nolint:errcheck

	var out []CategoryBytes

	for rows.Next() {
		var cb CategoryBytes
		if err := rows.Scan(&cb.Category, &cb.Bytes, &cb.Files); err != nil {
			return nil, errors.Wrap(err, "scanning category row")
		}

		out = append(out, cb)
	}

	return out, rows.Err()
}

// ExtensionFrequency groups files by extension, descending by count.
func (s *Store) ExtensionFrequency(ctx context.Context, snapshotID int64, limit int) ([]ExtensionCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT extension, COUNT(*), SUM(size) FROM files WHERE snapshot_id = ?
		 GROUP BY extension ORDER BY COUNT(*) DESC LIMIT ?`,
		snapshotID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying extension frequency")
	}
	defer rows.Close() //nolint:errcheck

	var out []ExtensionCount

	for rows.Next() {
		var ec ExtensionCount
		if err := rows.Scan(&ec.Extension, &ec.Files, &ec.Bytes); err != nil {
			return nil, errors.Wrap(err, "scanning extension row")
		}

		out = append(out, ec)
	}

	return out, rows.Err()
}

// HistogramBucketCounts returns the count of files in each fixed
// logarithmic bucket boundary, lower-inclusive/upper-exclusive, in
// ascending boundary order; the last element is the overflow bucket.
func (s *Store) HistogramBucketCounts(ctx context.Context, snapshotID int64, boundaries []int64) ([]int64, error) {
	counts := make([]int64, len(boundaries))

	for i := range boundaries {
		var (
			lower = boundaries[i]
			query string
			args  []any
		)

		if i+1 < len(boundaries) {
			upper := boundaries[i+1]
			query = `SELECT COUNT(*) FROM files WHERE snapshot_id = ? AND size >= ? AND size < ?`
			args = []any{snapshotID, lower, upper}
		} else {
			query = `SELECT COUNT(*) FROM files WHERE snapshot_id = ? AND size >= ?`
			args = []any{snapshotID, lower}
		}

		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&counts[i]); err != nil {
			return nil, errors.Wrap(err, "querying histogram bucket")
		}
	}

	return counts, nil
}

// ChurnAdded returns paths present in currentID but absent from previousID.
func (s *Store) ChurnAdded(ctx context.Context, currentID, previousID int64) ([]string, error) {
	return s.pathSetDiff(ctx,
		`SELECT path FROM files WHERE snapshot_id = ? AND path NOT IN (SELECT path FROM files WHERE snapshot_id = ?)`,
		currentID, previousID)
}

// ChurnRemoved returns paths present in previousID but absent from
// currentID.
func (s *Store) ChurnRemoved(ctx context.Context, currentID, previousID int64) ([]string, error) {
	return s.pathSetDiff(ctx,
		`SELECT path FROM files WHERE snapshot_id = ? AND path NOT IN (SELECT path FROM files WHERE snapshot_id = ?)`,
		previousID, currentID)
}

// ChurnChanged returns paths present in both snapshots with a different
// size or mtime.
func (s *Store) ChurnChanged(ctx context.Context, currentID, previousID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cur.path FROM files cur
		JOIN files prev ON prev.snapshot_id = ? AND prev.path = cur.path
		WHERE cur.snapshot_id = ? AND (cur.size != prev.size OR cur.mtime != prev.mtime)`,
		previousID, currentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying changed files")
	}
	defer rows.Close() //nolint:errcheck

	return collectPaths(rows)
}

func (s *Store) pathSetDiff(ctx context.Context, query string, a, b int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, a, b)
	if err != nil {
		return nil, errors.Wrap(err, "querying path set diff")
	}
	defer rows.Close() //nolint:errcheck

	return collectPaths(rows)
}

func collectPaths(rows *sqlRows) ([]string, error) {
	var out []string

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errors.Wrap(err, "scanning path")
		}

		out = append(out, p)
	}

	return out, rows.Err()
}

func collectFiles(rows *sqlRows) ([]snapshot.FileRecord, error) {
	var out []snapshot.FileRecord

	for rows.Next() {
		f, err := scanFileRow(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning file row")
		}

		out = append(out, f)
	}

	return out, rows.Err()
}
