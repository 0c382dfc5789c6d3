// Package trace provides the pluggable diagnostic logger used across
// the client's subsystems.
package trace

import (
	"fmt"
	"log/slog"

	"github.com/tjfontaine/decision-client/config"
)

// Logger receives diagnostic lines from the client's subsystems.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Factory creates a Logger from configuration.
type Factory func(cfg *config.Config) (Logger, error)

var registry = map[string]Factory{
	config.TraceLogNull: func(*config.Config) (Logger, error) {
		return Null{}, nil
	},
	config.TraceLogConsole: func(*config.Config) (Logger, error) {
		return &slogLogger{logger: slog.Default()}, nil
	},
}

// Register adds a named trace-logger factory. It panics on a duplicate
// name; registration happens before Init, never after.
func Register(name string, f Factory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("trace logger %q already registered", name))
	}
	registry[name] = f
}

// Create instantiates the trace logger named by
// trace.log.implementation, defaulting to the null logger.
func Create(cfg *config.Config) (Logger, error) {
	name := cfg.Get(config.TraceLogImplementation, config.TraceLogNull)
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown trace logger %q", name)
	}
	return f(cfg)
}

// Null discards all diagnostics.
type Null struct{}

func (Null) Debug(string, ...any) {}
func (Null) Info(string, ...any)  {}
func (Null) Warn(string, ...any)  {}
func (Null) Error(string, ...any) {}

// slogLogger forwards diagnostics to the process-wide slog logger.
type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Info(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Warn(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Error(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}
