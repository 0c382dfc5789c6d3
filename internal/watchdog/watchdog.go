// Package watchdog provides the supervisory error sink shared by the
// client's background tasks. Background failures set a flag; the next
// foreground decision reads and clears it.
package watchdog

import (
	"sync/atomic"

	"github.com/tjfontaine/decision-client/internal/trace"
)

// Watchdog is a single-writer/multi-reader background-error flag. One
// instance is owned by the live model and passed by reference to every
// subsystem; there are no process-wide singletons.
type Watchdog struct {
	unhandled atomic.Bool
	tr        trace.Logger
}

// New returns a watchdog reporting diagnostics to tr.
func New(tr trace.Logger) *Watchdog {
	if tr == nil {
		tr = trace.Null{}
	}
	return &Watchdog{tr: tr}
}

// SetTraceLogger replaces the diagnostic sink. Called once during Init,
// after the trace logger itself is constructed.
func (w *Watchdog) SetTraceLogger(tr trace.Logger) {
	if tr != nil {
		w.tr = tr
	}
}

// SetUnhandledBackgroundError records that a background failure was not
// handled by a user callback.
func (w *Watchdog) SetUnhandledBackgroundError(value bool) {
	if value {
		w.tr.Warn("watchdog: unhandled background error recorded")
	}
	w.unhandled.Store(value)
}

// HasBackgroundErrorBeenReported returns the flag and clears it, so a
// single background failure surfaces on exactly one foreground call.
func (w *Watchdog) HasBackgroundErrorBeenReported() bool {
	return w.unhandled.Swap(false)
}
