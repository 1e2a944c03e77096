package telemetry

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// EndpointEnv is the standard environment variable holding the OTLP
// collector endpoint.
const EndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"

// Providers are the OpenTelemetry SDK providers installed as the global
// tracer and meter providers.
type Providers struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
}

// SetupOTLP exports traces and metrics over OTLP/gRPC to endpoint. endpoint
// is either host:port, exported without TLS, or a URL whose scheme selects
// the transport security.
func SetupOTLP(ctx context.Context, endpoint, version string) (*Providers, error) {
	var (
		traceOpts  []otlptracegrpc.Option
		metricOpts []otlpmetricgrpc.Option
	)
	if strings.Contains(endpoint, "://") {
		traceOpts = append(traceOpts, otlptracegrpc.WithEndpointURL(endpoint))
		metricOpts = append(metricOpts, otlpmetricgrpc.WithEndpointURL(endpoint))
	} else {
		traceOpts = append(traceOpts, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithEndpoint(endpoint), otlpmetricgrpc.WithInsecure())
	}
	traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, err
	}
	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return nil, errors.Join(err, traceExp.Shutdown(ctx))
	}
	return Install(ctx, version,
		sdktrace.WithBatcher(traceExp),
		sdkmetric.NewPeriodicReader(metricExp))
}

// Install builds the SDK providers around the given span processor and
// metric reader and installs them globally. Tracers and meters created by
// NewClueTracer and NewClueMetrics afterwards report to them.
func Install(ctx context.Context, version string, spans sdktrace.TracerProviderOption, reader sdkmetric.Reader) (*Providers, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", "mcpgen"),
		attribute.String("service.version", version),
	))
	if err != nil {
		return nil, err
	}
	p := &Providers{
		tracer: sdktrace.NewTracerProvider(sdktrace.WithResource(res), spans),
		meter:  sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader)),
	}
	otel.SetTracerProvider(p.tracer)
	otel.SetMeterProvider(p.meter)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return p, nil
}

// Flush exports the spans and metrics recorded so far.
func (p *Providers) Flush(ctx context.Context) error {
	return errors.Join(p.tracer.ForceFlush(ctx), p.meter.ForceFlush(ctx))
}

// Shutdown flushes and stops both providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(p.tracer.Shutdown(ctx), p.meter.Shutdown(ctx))
}
