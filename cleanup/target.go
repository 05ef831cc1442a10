// Package cleanup implements the risk-scored, root-bound, quarantined
// execution engine, plus its reversible undo path and the candidate
// selectors that feed it target paths.
package cleanup

import (
	"context"

	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/classify"
	"github.com/diskwatch/diskwatch/snapshot"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

// Target is one proposed cleanup target, carrying enough context to risk-
// score it without a second database round trip inside Execute.
type Target struct {
	Path     string
	Category snapshot.Category
	Hidden   bool
	Risk     classify.Assessment
	Reason   string
}

func assess(path string, category snapshot.Category, hidden bool, reason string) Target {
	a := classify.Score(path, category, hidden)
	return Target{Path: path, Category: category, Hidden: hidden, Risk: a, Reason: reason}
}

// resolveTarget looks up a path's stored category/hidden flag for
// selectors (duplicates, explicit paths) that only have a path in hand. A
// path absent from the snapshot is scored uncategorized and unhidden.
func resolveTarget(ctx context.Context, st *store.Store, snapshotID int64, path, reason string) (Target, error) {
	f, err := st.FileByPath(ctx, snapshotID, path)
	if err != nil {
		return Target{}, errors.Wrapf(err, "resolving target %q", path)
	}

	if f == nil {
		return assess(path, "", false, reason), nil
	}

	return assess(path, f.Category, f.Hidden, reason), nil
}
