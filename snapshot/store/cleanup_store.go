package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// ItemOutcome is the terminal status of one cleanup item.
type ItemOutcome string

// Possible outcomes, per the per-target state machine.
const (
	OutcomeDryRun      ItemOutcome = "dry-run"
	OutcomeQuarantined ItemOutcome = "quarantined"
	OutcomeDeleted     ItemOutcome = "deleted"
	OutcomeSkipped     ItemOutcome = "skipped"
	OutcomeFailed      ItemOutcome = "failed"
)

// CleanupItemRow is one row to be written for a cleanup action.
type CleanupItemRow struct {
	Path           string
	Status         ItemOutcome
	RiskLevel      string
	RiskScore      int
	Reason         string
	QuarantinePath string
	Error          string
}

// ManifestRow is one quarantine manifest entry.
type ManifestRow struct {
	ID             int64
	ActionID       string
	OriginalPath   string
	QuarantinePath string
	RestoredAt     *time.Time
}

// CreateCleanupAction writes the action's header row, once, before any
// items.
func (s *Store) CreateCleanupAction(ctx context.Context, actionID string, snapshotID int64, mode string, dryRun bool, details any) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return errors.Wrap(err, "marshaling cleanup details")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cleanup_actions (action_id, created_at, snapshot_id, mode, dry_run, details_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		actionID, time.Now().UTC().Format(time.RFC3339Nano), snapshotID, mode, boolToInt(dryRun), string(detailsJSON))
	if err != nil {
		return errors.Wrapf(err, "creating cleanup action %s", actionID)
	}

	return nil
}

// AppendCleanupItem writes one terminal outcome row, and a matching
// quarantine manifest row when the outcome is "quarantined".
func (s *Store) AppendCleanupItem(ctx context.Context, actionID string, item CleanupItemRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cleanup_items (action_id, path, status, risk_level, risk_score, reason, quarantine_path, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		actionID, item.Path, string(item.Status), item.RiskLevel, item.RiskScore, item.Reason,
		nullableString(item.QuarantinePath), nullableString(item.Error))
	if err != nil {
		return errors.Wrapf(err, "appending cleanup item %q", item.Path)
	}

	if item.Status == OutcomeQuarantined {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO quarantine_manifest (action_id, original_path, quarantine_path, restored_at)
			VALUES (?, ?, ?, NULL)`,
			actionID, item.Path, item.QuarantinePath)
		if err != nil {
			return errors.Wrapf(err, "appending quarantine manifest for %q", item.Path)
		}
	}

	return nil
}

// ManifestForAction returns every quarantine manifest row for an action.
func (s *Store) ManifestForAction(ctx context.Context, actionID string) ([]ManifestRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action_id, original_path, quarantine_path, restored_at
		 FROM quarantine_manifest WHERE action_id = ? ORDER BY id ASC`, actionID)
	if err != nil {
		return nil, errors.Wrap(err, "querying manifest")
	}
	defer rows.Close() //nolint:errcheck

	var out []ManifestRow

	for rows.Next() {
		var (
			m          ManifestRow
			restoredAt sql.NullString
		)

		if err := rows.Scan(&m.ID, &m.ActionID, &m.OriginalPath, &m.QuarantinePath, &restoredAt); err != nil {
			return nil, errors.Wrap(err, "scanning manifest row")
		}

		if restoredAt.Valid {
			t, err := time.Parse(time.RFC3339Nano, restoredAt.String)
			if err != nil {
				return nil, errors.Wrap(err, "parsing restored_at")
			}

			m.RestoredAt = &t
		}

		out = append(out, m)
	}

	return out, rows.Err()
}

// MarkRestored stamps a manifest row's restored_at.
func (s *Store) MarkRestored(ctx context.Context, manifestID int64, when time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE quarantine_manifest SET restored_at = ? WHERE id = ?`,
		when.UTC().Format(time.RFC3339Nano), manifestID)
	if err != nil {
		return errors.Wrapf(err, "marking manifest %d restored", manifestID)
	}

	return nil
}

// ItemsForAction returns every cleanup item row for an action, for
// forensics reporting.
func (s *Store) ItemsForAction(ctx context.Context, actionID string) ([]CleanupItemRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, status, risk_level, risk_score, reason, COALESCE(quarantine_path, ''), COALESCE(error, '')
		FROM cleanup_items WHERE action_id = ? ORDER BY id ASC`, actionID)
	if err != nil {
		return nil, errors.Wrap(err, "querying cleanup items")
	}
	defer rows.Close() //nolint:errcheck

	var out []CleanupItemRow

	for rows.Next() {
		var (
			it     CleanupItemRow
			status string
		)

		if err := rows.Scan(&it.Path, &status, &it.RiskLevel, &it.RiskScore, &it.Reason, &it.QuarantinePath, &it.Error); err != nil {
			return nil, errors.Wrap(err, "scanning cleanup item row")
		}

		it.Status = ItemOutcome(status)
		out = append(out, it)
	}

	return out, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}

	return s
}
