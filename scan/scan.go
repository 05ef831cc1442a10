// Package scan implements the Scanner: a depth-first traversal of one or
// more roots that emits FileRecord rows into a single snapshot, with
// progress callbacks. It is grounded in two places in the retrieval pack:
// the platform-specific stat/ownership handling of fs/localfs
// (local_fs_nonwindows.go / local_fs_windows.go), generalized here from
// content-addressable-storage entries to plain FileRecord rows, and the
// explicit-stack, batched-channel ingestion idiom of the "dug" disk usage
// scanner in the example pack's other_examples (internal/scan/scanner.go).
package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/classify"
	"github.com/diskwatch/diskwatch/internal/applog"
	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/progress"
	"github.com/diskwatch/diskwatch/snapshot"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

// FileError captures one non-fatal I/O error encountered during a scan.
type FileError struct {
	Path string
	Err  string
}

// Result summarizes one completed (possibly partial) scan.
type Result struct {
	SnapshotID   int64
	TotalFiles   int64
	TotalBytes   int64
	Duration     time.Duration
	DirsVisited  int64
	Errors       []FileError
	Partial      bool
}

const maxSampledErrors = 200

type dirWork struct {
	path  string
	depth int
	root  string
}

// Scanner coordinates one traversal against a Store.
type Scanner struct {
	st       *store.Store
	opts     Options
	rules    classify.Rules
	reporter progress.Reporter
}

// New returns a Scanner that writes into st.
func New(st *store.Store, opts Options, rules classify.Rules, reporter progress.Reporter) *Scanner {
	opts.applyDefaults()

	if reporter == nil {
		reporter = progress.NullReporter{}
	}

	return &Scanner{st: st, opts: opts, rules: rules, reporter: reporter}
}

// Run validates the configured roots and performs the traversal, writing
// rows into a freshly created snapshot.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	log := applog.New("scan")

	if len(s.opts.Roots) == 0 {
		return nil, errors.New("at least one root is required")
	}

	for _, r := range s.opts.Roots {
		if config.IsProtected(r) {
			return nil, errors.Errorf("root %q is a protected path", r)
		}

		info, err := os.Stat(r)
		if err != nil {
			return nil, errors.Wrapf(err, "root %q", r)
		}

		if !info.IsDir() {
			return nil, errors.Errorf("root %q is not a directory", r)
		}
	}

	snapshotID, err := s.st.CreateSnapshot(ctx, s.opts.Roots)
	if err != nil {
		return nil, errors.Wrap(err, "creating snapshot")
	}

	start := time.Now()
	s.reporter.Report(progress.Update{Phase: progress.PhaseInitializing})

	res := &Result{SnapshotID: snapshotID}

	pending := make([]snapshot.FileRecord, 0, s.opts.BatchSize)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}

		if err := s.st.InsertFileBatch(ctx, snapshotID, pending); err != nil {
			return err
		}

		pending = pending[:0]

		return nil
	}

	var stack []dirWork

	for _, root := range s.opts.Roots {
		stack = append(stack, dirWork{path: root, depth: 0, root: root})
	}

	lastReported := int64(0)

	for len(stack) > 0 {
		if ctx.Err() != nil {
			res.Partial = true

			break
		}

		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(top.path)
		if err != nil {
			res.Errors = appendSampled(res.Errors, FileError{Path: top.path, Err: err.Error()})
			continue
		}

		res.DirsVisited++

		for _, entry := range entries {
			childPath := filepath.Join(top.path, entry.Name())

			if s.opts.skipByPrefix(childPath) {
				continue
			}

			if !s.opts.IncludeHidden && isHiddenName(entry.Name()) {
				continue
			}

			info, symlink, broken, err := s.statChild(childPath)
			if err != nil {
				res.Errors = appendSampled(res.Errors, FileError{Path: childPath, Err: err.Error()})
				continue
			}

			if broken {
				continue
			}

			isDir := info.IsDir()

			if isDir {
				if s.opts.SkipDirNames[entry.Name()] {
					continue
				}

				if symlink && !s.opts.FollowSymlinks {
					// directory reached only through a symlink: do not
					// descend when symlinks are not followed.
					continue
				}

				stack = append(stack, dirWork{path: childPath, depth: top.depth + 1, root: top.root})

				continue
			}

			rec := s.buildRecord(snapshotID, childPath, top.path, top.root, info, symlink)
			pending = append(pending, rec)

			res.TotalFiles++
			res.TotalBytes += rec.Size

			if len(pending) >= s.opts.BatchSize {
				if err := flush(); err != nil {
					return nil, errors.Wrap(err, "flushing batch")
				}
			}

			if res.TotalFiles-lastReported >= int64(s.opts.ProgressEvery) {
				lastReported = res.TotalFiles
				s.reporter.Report(progress.Update{
					Phase:       progress.PhaseScanning,
					FilesSeen:   res.TotalFiles,
					BytesSeen:   res.TotalBytes,
					CurrentPath: childPath,
					DirsVisited: res.DirsVisited,
				})
			}
		}
	}

	if res.Partial {
		// a canceled scan still flushes and finalizes with its partial
		// totals, so the remaining writes must not see the cancellation.
		ctx = context.WithoutCancel(ctx)
	}

	if err := flush(); err != nil {
		return nil, errors.Wrap(err, "flushing final batch")
	}

	res.Duration = time.Since(start)

	if err := s.st.FinalizeSnapshot(ctx, snapshotID, res.TotalFiles, res.TotalBytes, res.Duration.Seconds()); err != nil {
		return nil, errors.Wrap(err, "finalizing snapshot")
	}

	s.reporter.Report(progress.Update{
		Phase:       progress.PhaseCompleted,
		FilesSeen:   res.TotalFiles,
		BytesSeen:   res.TotalBytes,
		DirsVisited: res.DirsVisited,
	})

	if res.Partial {
		log.Warnw("scan canceled before completion", "snapshot_id", snapshotID, "files", res.TotalFiles)
	}

	return res, nil
}

// statChild resolves one directory child. It returns (info, wasSymlink,
// broken, error). A symlink is always resolved with os.Stat, whatever
// FollowSymlinks says, so the returned info describes its target; the
// caller decides whether to descend into a symlinked directory. A broken
// symlink is reported via broken=true rather than an error, because lstat
// on a dangling link always succeeds and the only way to detect
// brokenness is to attempt the resolve.
func (s *Scanner) statChild(path string) (os.FileInfo, bool, bool, error) {
	lst, err := os.Lstat(path)
	if err != nil {
		return nil, false, false, err
	}

	symlink := lst.Mode()&os.ModeSymlink != 0
	if !symlink {
		return lst, false, false, nil
	}

	target, err := os.Stat(path)
	if err != nil {
		// dangling symlink: skip silently, not an error sample.
		return nil, true, true, nil
	}

	return target, true, false, nil
}

func (s *Scanner) buildRecord(snapshotID int64, path, dirPath, root string, info os.FileInfo, symlink bool) snapshot.FileRecord {
	ext := classify.Extension(path)
	category := s.rules.Classify(path, ext)

	return snapshot.FileRecord{
		SnapshotID: snapshotID,
		Path:       path,
		DirPath:    dirPath,
		TopDir:     topDirKey(root, dirPath, s.opts.TopDirDepth),
		Size:       info.Size(),
		Extension:  ext,
		ModTime:    info.ModTime(),
		AccessTime: accessTime(info),
		Permission: uint32(info.Mode().Perm()),
		Hidden:     isHiddenName(filepath.Base(path)),
		Symlink:    symlink,
		Category:   category,
	}
}

// topDirKey computes the fixed-depth aggregation prefix of dirPath relative
// to root, counting depth from the scan root (per spec.md's Open Question
// resolution — recorded in DESIGN.md).
func topDirKey(root, dirPath string, depth int) string {
	rel, err := filepath.Rel(root, dirPath)
	if err != nil || rel == "." {
		return root
	}

	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) > depth {
		parts = parts[:depth]
	}

	return filepath.Join(root, filepath.Join(parts...))
}

func isHiddenName(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func appendSampled(errs []FileError, e FileError) []FileError {
	if len(errs) >= maxSampledErrors {
		return errs
	}

	return append(errs, e)
}
