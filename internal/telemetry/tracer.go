// Package telemetry bootstraps OpenTelemetry tracing for hosts that
// want decision spans exported. The client itself only starts spans
// through the global tracer, which stays a no-op until a provider is
// installed here or by the host application.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName scopes the spans started by the client.
const TracerName = "github.com/tjfontaine/decision-client"

// Tracer returns the client's tracer from the installed provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// InitStdoutTracer installs a tracer provider with a pretty-printed
// stdout exporter, for development and the demo binary. It returns the
// provider's shutdown function.
func InitStdoutTracer(serviceName string, logger *slog.Logger) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info("OpenTelemetry initialized", slog.String("service", serviceName))

	return tp.Shutdown, nil
}
