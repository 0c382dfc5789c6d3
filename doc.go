// Package decision is a client library for online contextual-bandit
// decision serving with delayed reward attribution.
//
// A hosting application asks the live model, on every user-facing
// opportunity, to rank a set of candidate actions (or choose a
// continuous action, or fill a set of slots) given a JSON context. The
// client returns an explored choice, logs the interaction for
// off-policy learning, and later accepts asynchronous outcome reports
// against the same event identifier. In the background it refreshes a
// locally held exploration/prediction model from a remote source so
// subsequent decisions reflect ongoing training.
//
// The foreground APIs are synchronous and safe for concurrent use
// against one LiveModel. Background failures — senders, model refresh,
// queue overflow — are delivered to the configured error callback; when
// none is set they arm a watchdog that makes the next foreground
// decision fail with status.UnhandledBackgroundError.
package decision
