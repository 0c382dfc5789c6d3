package decision

import "github.com/tjfontaine/decision-client/status"

// Option configures a LiveModel before initialisation.
type Option func(*LiveModel)

// WithErrorHandler installs the background-error callback. It is
// invoked from the background goroutines for send and model-refresh
// failures, and from the enqueuing caller's goroutine when a full
// queue drops an event. Without one, a default handler arms the watchdog so
// the next foreground decision fails with
// status.UnhandledBackgroundError.
func WithErrorHandler(fn status.ErrorFn) Option {
	return func(lm *LiveModel) {
		lm.userErrFn = fn
	}
}
