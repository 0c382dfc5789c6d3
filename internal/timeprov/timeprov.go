// Package timeprov supplies the pluggable clock stamped onto logged
// events.
package timeprov

import (
	"fmt"
	"time"

	"github.com/tjfontaine/decision-client/config"
)

// Provider yields the timestamp attached to each logged event.
type Provider interface {
	Now() time.Time
}

// Factory creates a Provider from configuration.
type Factory func(cfg *config.Config) (Provider, error)

var registry = map[string]Factory{
	config.TimeProviderClock: func(*config.Config) (Provider, error) {
		return Clock{}, nil
	},
	config.TimeProviderNull: func(*config.Config) (Provider, error) {
		return Null{}, nil
	},
}

// Register adds a named time-provider factory. Panics on duplicates;
// registration happens before Init.
func Register(name string, f Factory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("time provider %q already registered", name))
	}
	registry[name] = f
}

// Create instantiates the provider named by
// time.provider.implementation, defaulting to the UTC clock.
func Create(cfg *config.Config) (Provider, error) {
	name := cfg.Get(config.TimeProviderImplementation, config.TimeProviderClock)
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown time provider %q", name)
	}
	return f(cfg)
}

// Clock reads the system clock in UTC.
type Clock struct{}

func (Clock) Now() time.Time { return time.Now().UTC() }

// Null returns the zero time; used when event timestamps are supplied
// downstream.
type Null struct{}

func (Null) Now() time.Time { return time.Time{} }
