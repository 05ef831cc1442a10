package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// UndoItemResult is the per-row outcome of one Undo call.
type UndoItemResult struct {
	OriginalPath   string
	QuarantinePath string
	Restored       bool
	Error          string
}

// UndoResult summarizes one Undo call.
type UndoResult struct {
	ActionID string
	Items    []UndoItemResult
}

// Undo restores every not-yet-restored manifest row of actionID, reporting
// per-row failures without aborting the remainder.
func (e *Engine) Undo(ctx context.Context, actionID string) (UndoResult, error) {
	rows, err := e.st.ManifestForAction(ctx, actionID)
	if err != nil {
		return UndoResult{}, errors.Wrapf(err, "loading manifest for action %q", actionID)
	}

	result := UndoResult{ActionID: actionID}

	for _, row := range rows {
		if row.RestoredAt != nil {
			continue
		}

		item := UndoItemResult{OriginalPath: row.OriginalPath, QuarantinePath: row.QuarantinePath}

		if _, statErr := os.Stat(row.QuarantinePath); statErr != nil {
			item.Error = errors.Wrap(statErr, "quarantine source missing").Error()
			result.Items = append(result.Items, item)

			continue
		}

		if mkErr := os.MkdirAll(filepath.Dir(row.OriginalPath), 0o755); mkErr != nil {
			item.Error = errors.Wrap(mkErr, "creating original parent directory").Error()
			result.Items = append(result.Items, item)

			continue
		}

		if mvErr := moveFile(row.QuarantinePath, row.OriginalPath); mvErr != nil {
			item.Error = errors.Wrap(mvErr, "restoring original location").Error()
			result.Items = append(result.Items, item)

			continue
		}

		if err := e.st.MarkRestored(ctx, row.ID, time.Now().UTC()); err != nil {
			item.Error = errors.Wrap(err, "marking manifest restored").Error()
			result.Items = append(result.Items, item)

			continue
		}

		item.Restored = true
		result.Items = append(result.Items, item)

		e.log.Infow("undo restored", "action", actionID, "path", row.OriginalPath)
	}

	return result, nil
}
