// Package otel wires opt-in OTLP trace export for roster services.
package otel

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	endpointEnv = "GLIZZY_ROSTER_OTEL_ENDPOINT"
	enabledEnv  = "GLIZZY_ROSTER_OTEL_ENABLED"
)

// ShutdownFunc flushes pending spans and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// Setup installs a global tracer provider exporting OTLP over HTTP.
//
// Export is opt-in: without GLIZZY_ROSTER_OTEL_ENDPOINT, or with
// GLIZZY_ROSTER_OTEL_ENABLED set to "false", no provider is registered and
// the returned shutdown is a no-op. Callers defer the shutdown to flush
// spans on the way out.
func Setup(ctx context.Context, service string) (ShutdownFunc, error) {
	noop := ShutdownFunc(func(context.Context) error { return nil })

	endpoint, ok := exportEndpoint()
	if !ok {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, fmt.Errorf("build otlp exporter: %w", err)
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(service)),
	)
	if err != nil {
		return noop, fmt.Errorf("build trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return provider.Shutdown, nil
}

// exportEndpoint reads the opt-in export configuration from the environment.
func exportEndpoint() (string, bool) {
	if strings.EqualFold(os.Getenv(enabledEnv), "false") {
		return "", false
	}
	endpoint := strings.TrimSpace(os.Getenv(endpointEnv))
	return endpoint, endpoint != ""
}
