// Package telemetry implements Telemetry (SPEC_FULL.md §2.13): one
// OpenTelemetry span per (batch, variant) task plus child spans for
// preprocessing/constraint-building/solving, exported via the stdout
// exporter or suppressed entirely.
//
// Grounded on
// Cizor-spacetime-constellation-sim/internal/observability/tracing.go's
// InitTracing shape, trimmed to this CLI's two exporter choices
// (SPEC_FULL.md §6: OTEL_EXPORTER is "stdout" or "none", no OTLP option —
// an offline batch CLI has no collector endpoint to talk to).
package telemetry

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ageo-project/locate-from-db"

// Init wires a tracer provider per the OTEL_EXPORTER environment variable
// ("stdout" or "none", default "none"), returning a shutdown func to flush
// spans.
func Init(ctx context.Context, exporter string) (func(context.Context) error, error) {
	if exporter == "" || exporter == "none" {
		otel.SetTracerProvider(trace.NewNoopTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", "locate-from-db"),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns this package's tracer, fetched fresh each call so it
// always reflects whatever provider Init last installed.
func Tracer() trace.Tracer { return otel.Tracer(tracerName) }
