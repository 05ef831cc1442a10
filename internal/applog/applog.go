// Package applog provides a per-component logger factory, modeled on the
// LoggerForModuleFunc pattern used elsewhere in this codebase's ancestry:
// call sites ask for a named logger once and keep it, instead of threading
// a logger through every function signature.
package applog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	baseMu   sync.Mutex
	base     *zap.Logger
	baseInit bool
)

// Configure installs the process-wide zap logger used by New. Call once
// during startup; safe to call again in tests to swap in an observer core.
func Configure(l *zap.Logger) {
	baseMu.Lock()
	defer baseMu.Unlock()

	base = l
	baseInit = true
}

func ensureBase() *zap.Logger {
	baseMu.Lock()
	defer baseMu.Unlock()

	if !baseInit {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}

		base = l
		baseInit = true
	}

	return base
}

// New returns a logger scoped to component, e.g. applog.New("scan").
func New(component string) *zap.SugaredLogger {
	return ensureBase().Named(component).Sugar()
}
