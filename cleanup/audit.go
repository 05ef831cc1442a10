package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// auditWriter appends one text line per cleanup item outcome to the
// configured log_file, mirroring disk_intelligence_engine.py's
// setup_logger FileHandler: an append-only text audit trail distinct from
// the structured zap logging applog provides, per spec.md §6/§7 ("Audit
// log (append-only text) at log_file").
type auditWriter struct {
	mu   sync.Mutex
	file *os.File
}

// openAuditWriter opens path for append, creating it and its parent
// directory if necessary. A blank path disables the audit writer: its
// methods become no-ops rather than erroring, since log_file is optional
// config.
func openAuditWriter(path string) (*auditWriter, error) {
	if path == "" {
		return nil, nil //nolint:nilnil // disabled audit writer is not an error
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating audit log directory for %q", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening audit log %q", path)
	}

	return &auditWriter{file: f}, nil
}

// logItem appends one audit line. Safe to call on a nil *auditWriter.
func (a *auditWriter) logItem(actionID string, item ItemResult) {
	if a == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	line := fmt.Sprintf("%s action=%s path=%q outcome=%s risk=%s reason=%q",
		time.Now().UTC().Format(time.RFC3339Nano), actionID, item.Path, item.Outcome, item.Risk.Level, item.Reason)

	if item.Error != "" {
		line += fmt.Sprintf(" error=%q", item.Error)
	}

	fmt.Fprintln(a.file, line) //nolint:errcheck // best-effort audit trail, cleanup must not fail on it
}

// Close closes the underlying file. Safe to call on a nil *auditWriter.
func (a *auditWriter) Close() error {
	if a == nil {
		return nil
	}

	return a.file.Close()
}
