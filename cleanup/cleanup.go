package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	natomic "github.com/natefinch/atomic"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/diskwatch/diskwatch/classify"
	"github.com/diskwatch/diskwatch/internal/applog"
	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot/store"
)

// Policy mirrors internal/config.Policy; the engine takes its own copy so
// callers can tweak it per-action without touching shared config state.
type Policy = config.Policy

// Engine executes cleanup plans against a single snapshot.
type Engine struct {
	st            *store.Store
	snapshotID    int64
	allowedRoots  []string
	quarantineDir string
	log           *zap.SugaredLogger
	audit         *auditWriter
}

// New returns an Engine bound to a snapshot, its allowed roots, and a
// quarantine directory. logFile is the append-only audit log destination
// (spec.md §6's log_file); pass "" to disable it. Callers must Close the
// returned Engine to flush and release the audit log handle.
func New(st *store.Store, snapshotID int64, allowedRoots []string, quarantineDir string, logFile string) (*Engine, error) {
	audit, err := openAuditWriter(logFile)
	if err != nil {
		return nil, err
	}

	return &Engine{
		st:            st,
		snapshotID:    snapshotID,
		allowedRoots:  allowedRoots,
		quarantineDir: quarantineDir,
		log:           applog.New("cleanup"),
		audit:         audit,
	}, nil
}

// Close releases the audit log handle, if one was opened.
func (e *Engine) Close() error {
	return e.audit.Close()
}

// ItemResult is the terminal outcome for one target, mirrored from the
// persisted row for the caller's convenience.
type ItemResult struct {
	Path           string
	Outcome        store.ItemOutcome
	Risk           classify.Assessment
	Reason         string
	QuarantinePath string
	Error          string
}

// PlanResult is the outcome of one Execute call.
type PlanResult struct {
	ActionID string
	Items    []ItemResult
}

// Execute runs the per-target state machine against every target and
// writes one cleanup_actions row plus one cleanup_items row (and a
// quarantine_manifest row when quarantined) per target. The action row is
// written once, before any item rows, per the design's auditability
// guarantee. Each item row commits as its own statement rather than inside
// one transaction spanning the whole action, so a forensic trail survives
// up to the point of a mid-run crash instead of being rolled back with it.
func (e *Engine) Execute(ctx context.Context, targets []Target, mode string, policy Policy) (PlanResult, error) {
	actionID := uuid.NewString()

	details := map[string]any{
		"mode":          mode,
		"allowedRoots":  e.allowedRoots,
		"quarantineDir": e.quarantineDir,
		"policy":        policy,
	}

	if err := e.st.CreateCleanupAction(ctx, actionID, e.snapshotID, mode, policy.DryRun, details); err != nil {
		return PlanResult{}, errors.Wrap(err, "creating cleanup action")
	}

	result := PlanResult{ActionID: actionID}

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			// Cleanup honors cancellation between items, never mid-item.
			break
		}

		item := e.runOne(ctx, actionID, t, policy)
		result.Items = append(result.Items, item)

		row := store.CleanupItemRow{
			Path:           item.Path,
			Status:         item.Outcome,
			RiskLevel:      string(item.Risk.Level),
			RiskScore:      item.Risk.Score,
			Reason:         item.Reason,
			QuarantinePath: item.QuarantinePath,
			Error:          item.Error,
		}

		if err := e.st.AppendCleanupItem(ctx, actionID, row); err != nil {
			return result, errors.Wrapf(err, "recording outcome for %q", item.Path)
		}

		e.log.Infow("cleanup item", "action", actionID, "path", item.Path, "outcome", item.Outcome)
		e.audit.logItem(actionID, item)
	}

	return result, nil
}

func (e *Engine) runOne(ctx context.Context, actionID string, t Target, policy Policy) ItemResult {
	base := ItemResult{Path: t.Path, Risk: t.Risk, Reason: t.Reason}

	if !e.contained(t.Path) {
		base.Outcome = store.OutcomeSkipped
		base.Reason = "outside-allowed-roots"
		return base
	}

	if config.IsProtected(t.Path) {
		base.Outcome = store.OutcomeSkipped
		base.Reason = "protected-path"
		return base
	}

	if t.Risk.Level == classify.RiskHigh && !policy.ForceHighRisk {
		base.Outcome = store.OutcomeSkipped
		base.Reason = "high-risk-without-force"
		return base
	}

	if policy.DryRun {
		base.Outcome = store.OutcomeDryRun
		return base
	}

	if policy.QuarantineMode {
		dest, err := e.quarantine(actionID, t.Path)
		if err != nil {
			base.Outcome = store.OutcomeFailed
			base.Error = err.Error()
			e.log.Warnw("quarantine failed", "path", t.Path, "err", err)

			return base
		}

		base.Outcome = store.OutcomeQuarantined
		base.QuarantinePath = dest

		return base
	}

	if err := os.Remove(t.Path); err != nil {
		base.Outcome = store.OutcomeFailed
		base.Error = err.Error()
		e.log.Warnw("delete failed", "path", t.Path, "err", err)

		return base
	}

	base.Outcome = store.OutcomeDeleted

	return base
}

// contained reports whether path's canonical form equals or lies strictly
// under one of the engine's allowed roots.
func (e *Engine) contained(path string) bool {
	clean, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return false
	}

	for _, root := range e.allowedRoots {
		cleanRoot, err := filepath.Abs(filepath.Clean(root))
		if err != nil {
			continue
		}

		if clean == cleanRoot || strings.HasPrefix(clean, cleanRoot+string(filepath.Separator)) {
			return true
		}
	}

	return false
}

const fallbackQuarantineBase = "diskwatch"

// quarantine moves path into <quarantine_root>/<action_id>/<original_path
// without leading separator>, falling back to a process-local temp
// directory when the configured root is not writable, and to copy+remove
// when the move crosses filesystems.
func (e *Engine) quarantine(actionID, path string) (string, error) {
	dest := quarantineDestination(actionID, path, e.quarantineDir)

	if mkErr := os.MkdirAll(filepath.Dir(dest), 0o755); mkErr != nil {
		fallback := filepath.Join(os.TempDir(), fallbackQuarantineBase, "quarantine", actionID, strings.TrimPrefix(path, string(filepath.Separator)))

		if fbErr := os.MkdirAll(filepath.Dir(fallback), 0o755); fbErr != nil {
			return "", errors.Wrapf(mkErr, "creating quarantine dir (fallback also failed: %v)", fbErr)
		}

		dest = fallback
	}

	if err := moveFile(path, dest); err != nil {
		return "", errors.Wrapf(err, "moving %q to quarantine", path)
	}

	return dest, nil
}

func quarantineDestination(actionID, path, root string) string {
	clean := strings.TrimPrefix(path, string(filepath.Separator))
	return filepath.Join(root, actionID, clean)
}

// moveFile renames path to dest, falling back to copy+remove whenever the
// rename fails (typically because the two paths are on different devices).
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "opening source for cross-device move")
	}
	defer in.Close() //nolint:errcheck

	if err := natomic.WriteFile(dest, in); err != nil {
		return errors.Wrap(err, "writing quarantine copy")
	}

	if err := os.Remove(src); err != nil {
		return errors.Wrap(err, "removing original after copy")
	}

	return nil
}
