// Package sender delivers framed event batches to their terminal
// destination: an event-hub-style HTTP endpoint, an APIM-style HTTP
// endpoint, a local file, or a local SQLite database.
package sender

import (
	"context"
	"fmt"

	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/internal/trace"
	"github.com/tjfontaine/decision-client/status"
)

// Sender accepts framed batch payloads. Send has enqueue semantics for
// asynchronous implementations: delivery failures after retry
// exhaustion are reported through the error callback, never returned to
// the caller that enqueued the batch.
type Sender interface {
	Init(cfg *config.Config) error
	Send(payload []byte) error
	Close(ctx context.Context) error
}

// Factory creates a sender from configuration. The caller selects the
// current config section (interaction/observation/episode) before
// invoking it, which is how per-channel options are resolved.
type Factory func(cfg *config.Config, errFn status.ErrorFn, tr trace.Logger) (Sender, error)

var registry = map[string]Factory{
	config.SenderHTTP:   newEventHubSender,
	config.SenderAPIM:   newAPISender,
	config.SenderFile:   newFileSender,
	config.SenderSQLite: newSQLiteSender,
}

// Register adds a named sender factory. Panics on duplicates;
// registration happens before Init.
func Register(name string, f Factory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("sender %q already registered", name))
	}
	registry[name] = f
}

// Create instantiates the named sender.
func Create(name string, cfg *config.Config, errFn status.ErrorFn, tr trace.Logger) (Sender, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown sender %q", name)
	}
	return f(cfg, errFn, tr)
}
