// Package store implements the Snapshot Store: the single source of truth
// for snapshots, files, cleanup actions, cleanup items, and quarantine
// manifests. It is the only component permitted to mutate persisted rows.
//
// The store is backed by modernc.org/sqlite (pure Go, no cgo) through
// database/sql. No example in the retrieval pack vendors an embedded SQL
// database driver, so this dependency is named here rather than grounded
// in a specific teacher file; its schema/pragma discipline (WAL, NORMAL
// synchronous, in-memory temp store, batched commits) is grounded directly
// in spec.md §4.1's "Durability" paragraph.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" //nolint:revive // registers the "sqlite" database/sql driver

	"github.com/diskwatch/diskwatch/internal/applog"
	"github.com/diskwatch/diskwatch/snapshot"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at   TEXT NOT NULL,
	roots_json   TEXT NOT NULL,
	total_files  INTEGER NOT NULL DEFAULT 0,
	total_bytes  INTEGER NOT NULL DEFAULT 0,
	duration_sec REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS files (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	snapshot_id INTEGER NOT NULL REFERENCES snapshots(id),
	path        TEXT NOT NULL,
	dir_path    TEXT NOT NULL,
	top_dir     TEXT NOT NULL,
	size        INTEGER NOT NULL,
	extension   TEXT NOT NULL,
	mtime       TEXT NOT NULL,
	atime       TEXT NOT NULL,
	permissions INTEGER NOT NULL,
	is_hidden   INTEGER NOT NULL,
	is_symlink  INTEGER NOT NULL,
	category    TEXT NOT NULL,
	UNIQUE(snapshot_id, path)
);

CREATE INDEX IF NOT EXISTS idx_files_snapshot_size      ON files(snapshot_id, size);
CREATE INDEX IF NOT EXISTS idx_files_snapshot_extension ON files(snapshot_id, extension);
CREATE INDEX IF NOT EXISTS idx_files_snapshot_category  ON files(snapshot_id, category);
CREATE INDEX IF NOT EXISTS idx_files_snapshot_mtime     ON files(snapshot_id, mtime);
CREATE INDEX IF NOT EXISTS idx_files_snapshot_path      ON files(snapshot_id, path);
CREATE INDEX IF NOT EXISTS idx_files_snapshot_topdir    ON files(snapshot_id, top_dir);

CREATE TABLE IF NOT EXISTS cleanup_actions (
	action_id   TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	snapshot_id INTEGER NOT NULL REFERENCES snapshots(id),
	mode        TEXT NOT NULL,
	dry_run     INTEGER NOT NULL,
	details_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cleanup_items (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	action_id       TEXT NOT NULL REFERENCES cleanup_actions(action_id),
	path            TEXT NOT NULL,
	status          TEXT NOT NULL,
	risk_level      TEXT NOT NULL,
	risk_score      INTEGER NOT NULL,
	reason          TEXT NOT NULL,
	quarantine_path TEXT,
	error           TEXT
);

CREATE INDEX IF NOT EXISTS idx_cleanup_items_action ON cleanup_items(action_id);

CREATE TABLE IF NOT EXISTS quarantine_manifest (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	action_id       TEXT NOT NULL REFERENCES cleanup_actions(action_id),
	original_path   TEXT NOT NULL,
	quarantine_path TEXT NOT NULL,
	restored_at     TEXT
);

CREATE INDEX IF NOT EXISTS idx_quarantine_action ON quarantine_manifest(action_id);
`

// sqlRows is a local alias so sibling files in this package can reference
// *sql.Rows without each importing database/sql under a different name.
type sqlRows = sql.Rows

// Store is the single source of truth for persisted engine state.
type Store struct {
	db         *sql.DB
	lock       *flock.Flock
	batchSize  int
	EffectiveDBPath string
}

const defaultBatchSize = 2000

// Open opens (creating if necessary) the snapshot store at dbPath. If
// dbPath's directory is not writable, it falls back to a process-local
// temporary directory and logs a warning, per spec.md §4.1.
func Open(dbPath string) (*Store, error) {
	log := applog.New("store")

	dir := filepath.Dir(dbPath)

	err := os.MkdirAll(dir, 0o755)
	if err == nil {
		// an existing directory may still be read-only: probe with a file.
		var probe *os.File
		if probe, err = os.CreateTemp(dir, ".diskwatch-probe-*"); err == nil {
			probe.Close()           //nolint:errcheck
			os.Remove(probe.Name()) //nolint:errcheck
		}
	}

	if err != nil {
		tmp, tmpErr := os.MkdirTemp("", "diskwatch-db-*")
		if tmpErr != nil {
			return nil, errors.Wrap(err, "creating database directory")
		}

		log.Warnw("database directory not writable, falling back to temp dir",
			"requested", dbPath, "fallback", tmp, "cause", err)

		dbPath = filepath.Join(tmp, filepath.Base(dbPath))
	}

	lock := flock.New(dbPath + ".lock")

	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "locking database")
	}

	if !locked {
		return nil, errors.Errorf("database %q is locked by another process", dbPath)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		lock.Unlock() //nolint:errcheck

		return nil, errors.Wrap(err, "opening database")
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()        //nolint:errcheck
			lock.Unlock()     //nolint:errcheck

			return nil, errors.Wrapf(err, "applying %q", pragma)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()    //nolint:errcheck
		lock.Unlock() //nolint:errcheck

		return nil, errors.Wrap(err, "applying schema")
	}

	return &Store{
		db:              db,
		lock:            lock,
		batchSize:       defaultBatchSize,
		EffectiveDBPath: dbPath,
	}, nil
}

// Close releases the database handle and the writer lock.
func (s *Store) Close() error {
	err := s.db.Close()
	if unlockErr := s.lock.Unlock(); err == nil {
		err = unlockErr
	}

	return err
}

// CreateSnapshot inserts a new snapshot row with zero totals and returns
// its id.
func (s *Store) CreateSnapshot(ctx context.Context, roots []string) (int64, error) {
	rootsJSON, err := json.Marshal(roots)
	if err != nil {
		return 0, errors.Wrap(err, "marshaling roots")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (created_at, roots_json) VALUES (?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), string(rootsJSON))
	if err != nil {
		return 0, errors.Wrap(err, "creating snapshot")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "reading snapshot id")
	}

	return id, nil
}

// InsertFileBatch bulk-inserts rows within a single transaction, crash-safe
// via the enclosing commit. The Scanner is responsible for calling this
// once per batchSize-sized batch.
func (s *Store) InsertFileBatch(ctx context.Context, snapshotID int64, rows []snapshot.FileRecord) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning batch transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files (snapshot_id, path, dir_path, top_dir, size, extension,
			mtime, atime, permissions, is_hidden, is_symlink, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(snapshot_id, path) DO NOTHING`)
	if err != nil {
		return errors.Wrap(err, "preparing insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			snapshotID, r.Path, r.DirPath, r.TopDir, r.Size, r.Extension,
			r.ModTime.UTC().Format(time.RFC3339Nano),
			r.AccessTime.UTC().Format(time.RFC3339Nano),
			r.Permission, boolToInt(r.Hidden), boolToInt(r.Symlink), string(r.Category))
		if err != nil {
			return errors.Wrapf(err, "inserting file %q", r.Path)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing batch")
	}

	return nil
}

// BatchSize returns the configured insert batch threshold.
func (s *Store) BatchSize() int { return s.batchSize }

// FinalizeSnapshot records the final totals and duration of a completed
// scan. Called exactly once per snapshot.
func (s *Store) FinalizeSnapshot(ctx context.Context, id int64, totalFiles, totalBytes int64, durationSec float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE snapshots SET total_files = ?, total_bytes = ?, duration_sec = ? WHERE id = ?`,
		totalFiles, totalBytes, durationSec, id)
	if err != nil {
		return errors.Wrapf(err, "finalizing snapshot %d", id)
	}

	return nil
}

func scanSnapshotRow(row interface{ Scan(...any) error }) (snapshot.Snapshot, error) {
	var (
		s         snapshot.Snapshot
		createdAt string
		rootsJSON string
	)

	if err := row.Scan(&s.ID, &createdAt, &rootsJSON, &s.TotalFiles, &s.TotalBytes, &s.DurationSeconds); err != nil {
		return snapshot.Snapshot{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return snapshot.Snapshot{}, errors.Wrap(err, "parsing created_at")
	}

	s.CreatedAt = t

	var roots []string
	if err := json.Unmarshal([]byte(rootsJSON), &roots); err != nil {
		return snapshot.Snapshot{}, errors.Wrap(err, "parsing roots_json")
	}

	s.Roots = roots

	return s, nil
}

// GetSnapshot returns one snapshot by id.
func (s *Store) GetSnapshot(ctx context.Context, id int64) (*snapshot.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, roots_json, total_files, total_bytes, duration_sec FROM snapshots WHERE id = ?`, id)

	snap, err := scanSnapshotRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // "no such snapshot" is not an error condition for callers
	}

	if err != nil {
		return nil, errors.Wrapf(err, "loading snapshot %d", id)
	}

	return &snap, nil
}

// LatestSnapshot returns the most recently created snapshot id regardless
// of finalization state; callers must check Finalized() before treating it
// as a complete scan, per spec.md §5.
func (s *Store) LatestSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, roots_json, total_files, total_bytes, duration_sec
		 FROM snapshots ORDER BY id DESC LIMIT 1`)

	snap, err := scanSnapshotRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, errors.Wrap(err, "loading latest snapshot")
	}

	return &snap, nil
}

// PreviousSnapshot returns the snapshot immediately preceding id in
// insertion order, or nil if none exists. It does not filter on
// finalization state; see spec.md §9 Open Questions.
func (s *Store) PreviousSnapshot(ctx context.Context, id int64) (*snapshot.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, roots_json, total_files, total_bytes, duration_sec
		 FROM snapshots WHERE id < ? ORDER BY id DESC LIMIT 1`, id)

	snap, err := scanSnapshotRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, errors.Wrapf(err, "loading previous snapshot for %d", id)
	}

	return &snap, nil
}

// ListSnapshots returns every snapshot in insertion order, for
// growth_history.
func (s *Store) ListSnapshots(ctx context.Context) ([]snapshot.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, roots_json, total_files, total_bytes, duration_sec
		 FROM snapshots ORDER BY id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "listing snapshots")
	}
	defer rows.Close() //nolint:errcheck

	var out []snapshot.Snapshot

	for rows.Next() {
		snap, err := scanSnapshotRow(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning snapshot row")
		}

		out = append(out, snap)
	}

	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
